// Package domain contains core business entities for the subject-variants
// pipeline: genomic coordinate resolution, patient variant retrieval from a
// FHIR genomics-operations endpoint, and translation of the returned report
// into flat, UI-ready variant rows.
package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// State represents the orchestration state of one (gene, patient) pipeline
// instance. Transitions are strictly forward; Unresolved is absorbing.
type State string

const (
	StateIdle               State = "IDLE"
	StateCoordinatesPending State = "COORDINATES_PENDING"
	StateCoordinatesReady   State = "COORDINATES_READY"
	StateVariantsPending    State = "VARIANTS_PENDING"
	StateVariantsReady      State = "VARIANTS_READY"
	StateUnresolved         State = "UNRESOLVED"
)

// IsValid validates that the state is one of the known pipeline states.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateCoordinatesPending, StateCoordinatesReady,
		StateVariantsPending, StateVariantsReady, StateUnresolved:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Readiness is the three-level progress indicator exposed for presentation
// purposes. Only ReadinessVariants permits handing rows to the consumer.
type Readiness string

const (
	ReadinessNotReady    Readiness = "not-ready"
	ReadinessCoordinates Readiness = "coordinates-ready"
	ReadinessVariants    Readiness = "variants-ready"
)

// Readiness maps the orchestration state onto the presentation indicator.
func (s State) Readiness() Readiness {
	switch s {
	case StateVariantsReady:
		return ReadinessVariants
	case StateCoordinatesReady, StateVariantsPending:
		return ReadinessCoordinates
	default:
		return ReadinessNotReady
	}
}

// AlleleFrequency is a population allele frequency. The zero-information
// value is NaN, which serializes as JSON null so that downstream consumers
// can distinguish "absent" from a true zero frequency.
type AlleleFrequency float64

// IsSet reports whether a frequency was actually observed in the payload.
func (f AlleleFrequency) IsSet() bool {
	return !math.IsNaN(float64(f))
}

// MarshalJSON encodes NaN as null; encoding/json rejects NaN otherwise.
func (f AlleleFrequency) MarshalJSON() ([]byte, error) {
	if !f.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON decodes null back to the NaN sentinel.
func (f *AlleleFrequency) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = AlleleFrequency(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = AlleleFrequency(v)
	return nil
}

// VariantRow is the flattened representation of one genomic variant
// observation, the only outbound data contract toward the consumer.
// String fields default to empty; AlleleFreq defaults to NaN.
type VariantRow struct {
	SPDI          string          `json:"spdi"`
	DNAChangeType string          `json:"dna_change_type"`
	SourceClass   string          `json:"source_class"`
	AllelicState  string          `json:"allelic_state"`
	MolecImpact   string          `json:"molecular_impact"`
	AlleleFreq    AlleleFrequency `json:"allele_frequency"`
}

// NewVariantRow returns a row with all fields at their defaults.
func NewVariantRow() VariantRow {
	return VariantRow{AlleleFreq: AlleleFrequency(math.NaN())}
}

// CoordinateRange is a genomic interval on a specific reference build,
// used to scope a variant lookup. Immutable once resolved.
type CoordinateRange struct {
	GeneSymbol       string    `json:"gene_symbol"`
	BuildCoordinates string    `json:"build_coordinates"`
	ResolvedAt       time.Time `json:"resolved_at"`
}

// IsEmpty reports whether the range carries no coordinates. An empty range
// makes a variant lookup a guard no-op rather than an error.
func (c CoordinateRange) IsEmpty() bool {
	return strings.TrimSpace(c.BuildCoordinates) == ""
}

// GeneCoordinateQuery identifies one coordinate resolution request.
type GeneCoordinateQuery struct {
	GeneSymbol string `json:"gene_symbol"`
}

// VariantQuery identifies one variant lookup request. CoordinateRange must
// be non-empty for a request to be issued.
type VariantQuery struct {
	PatientID       string `json:"patient_id"`
	CoordinateRange string `json:"coordinate_range"`
}

// NormalizeGeneSymbol normalizes a gene symbol for lookups and cache keys.
func NormalizeGeneSymbol(geneSymbol string) string {
	return strings.TrimSpace(strings.ToUpper(geneSymbol))
}
