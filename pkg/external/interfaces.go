// Package external contains HTTP clients for the remote genomics services the
// pipeline depends on: the gene coordinate lookup API and the FHIR
// genomics-operations endpoint.
package external

import (
	"context"

	"github.com/subject-variants-server/internal/domain"
)

// CoordinateLookupAPI is the outbound contract for gene coordinate lookups.
type CoordinateLookupAPI interface {
	LookupCoordinates(ctx context.Context, geneSymbol string) (*domain.CoordinateRange, error)
}

// SubjectVariantAPI is the outbound contract for patient variant lookups.
type SubjectVariantAPI interface {
	FindSubjectVariants(ctx context.Context, patientID, coordinateRange string) (*domain.VariantReport, error)
}

// ExternalServiceType identifies a remote service for logging and breaker
// naming.
type ExternalServiceType string

const (
	ServiceTypeGenesAPI ExternalServiceType = "ClinicalTablesGenes"
	ServiceTypeFHIR     ExternalServiceType = "GenomicsOperations"
)
