package domain

import "context"

// CoordinateResolver resolves a gene symbol to its genomic coordinate range.
// Implementations memoize per session: at most one outbound lookup per
// distinct gene for the resolver's lifetime.
type CoordinateResolver interface {
	Resolve(ctx context.Context, geneSymbol string) (*CoordinateRange, error)
}

// VariantFetcher retrieves a patient's variant report scoped to a coordinate
// range. An empty range is a guard no-op: no request is issued and both
// return values are nil.
type VariantFetcher interface {
	FindSubjectVariants(ctx context.Context, patientID, coordinateRange string) (*VariantReport, error)
}

// RowConsumer receives the translated rows. It is the only outbound data
// contract toward the rest of the application.
type RowConsumer func(rows []VariantRow)

// ConfigManager provides access to validated application configuration.
type ConfigManager interface {
	GetConfig() *Config
	Validate() error
}
