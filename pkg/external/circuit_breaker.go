package external

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/subject-variants-server/internal/domain"
)

// ResilientGenomicsClient wraps the two remote clients with circuit breakers
// so that a misbehaving upstream trips fast instead of tying up the pipeline.
// An open breaker surfaces as the corresponding pipeline error kind; there is
// no retry or fallback.
type ResilientGenomicsClient struct {
	genesClient *GenesClient
	fhirClient  *FHIRClient

	genesBreaker *gobreaker.CircuitBreaker
	fhirBreaker  *gobreaker.CircuitBreaker

	logger *logrus.Logger
}

// NewResilientGenomicsClient creates genomics API clients guarded by circuit
// breakers.
func NewResilientGenomicsClient(genesConfig GenesConfig, fhirConfig FHIRConfig, logger *logrus.Logger) *ResilientGenomicsClient {
	r := &ResilientGenomicsClient{
		genesClient: NewGenesClient(genesConfig),
		fhirClient:  NewFHIRClient(fhirConfig),
		logger:      logger,
	}

	r.genesBreaker = gobreaker.NewCircuitBreaker(breakerSettings(ServiceTypeGenesAPI, logger))
	r.fhirBreaker = gobreaker.NewCircuitBreaker(breakerSettings(ServiceTypeFHIR, logger))

	return r
}

func breakerSettings(service ExternalServiceType, logger *logrus.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        string(service),
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}
}

// LookupCoordinates resolves gene coordinates through the genes breaker.
func (r *ResilientGenomicsClient) LookupCoordinates(ctx context.Context, geneSymbol string) (*domain.CoordinateRange, error) {
	result, err := r.genesBreaker.Execute(func() (interface{}, error) {
		return r.genesClient.LookupCoordinates(ctx, geneSymbol)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, domain.NewResolutionError("genes API unavailable (circuit breaker open)", err)
		}
		return nil, err
	}
	return result.(*domain.CoordinateRange), nil
}

// FindSubjectVariants fetches the variant report through the FHIR breaker.
// The empty-range guard is honored before the breaker so a no-op never
// counts against the upstream.
func (r *ResilientGenomicsClient) FindSubjectVariants(ctx context.Context, patientID, coordinateRange string) (*domain.VariantReport, error) {
	if coordinateRange == "" {
		return nil, nil
	}

	result, err := r.fhirBreaker.Execute(func() (interface{}, error) {
		return r.fhirClient.FindSubjectVariants(ctx, patientID, coordinateRange)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, domain.NewFetchError("FHIR server unavailable (circuit breaker open)", err)
		}
		return nil, err
	}
	return result.(*domain.VariantReport), nil
}

// BreakerStates returns the current state of both circuit breakers.
func (r *ResilientGenomicsClient) BreakerStates() map[string]gobreaker.State {
	return map[string]gobreaker.State{
		string(ServiceTypeGenesAPI): r.genesBreaker.State(),
		string(ServiceTypeFHIR):     r.fhirBreaker.State(),
	}
}
