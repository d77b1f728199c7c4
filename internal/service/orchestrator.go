package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/subject-variants-server/internal/domain"
)

// Orchestrator sequences the two remote stages for one (gene, patient)
// pairing: coordinates must fully resolve before the variant lookup is
// issued. Construction has no side effects; the caller drives the pipeline
// through an explicit Run. State moves strictly forward and Unresolved is
// absorbing — there is no auto-retry, a failed instance is replaced, not
// revived.
type Orchestrator struct {
	gene      string
	patientID string

	resolver domain.CoordinateResolver
	fetcher  domain.VariantFetcher
	logger   *logrus.Logger

	mu     sync.Mutex
	state  domain.State
	coords *domain.CoordinateRange
	rows   []domain.VariantRow
}

// NewOrchestrator creates an idle pipeline instance. Instances are
// independent; concurrent instances for different genes share nothing but
// the resolver's cache.
func NewOrchestrator(gene, patientID string, resolver domain.CoordinateResolver, fetcher domain.VariantFetcher, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		gene:      gene,
		patientID: patientID,
		resolver:  resolver,
		fetcher:   fetcher,
		logger:    logger,
		state:     domain.StateIdle,
	}
}

// Run executes the pipeline: resolve coordinates, fetch variants, translate.
// Without a patient identifier the machine stays in Idle permanently — there
// is no patient context to query against, and that is not an error. A
// successful run replaces any previously translated rows wholesale.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.patientID == "" {
		o.logger.WithField("gene", o.gene).Warn("No patient identifier, pipeline stays idle")
		return nil
	}

	if o.State() == domain.StateUnresolved {
		return fmt.Errorf("pipeline for gene %s is unresolved and will not retry", o.gene)
	}

	coords, err := o.resolveCoordinates(ctx)
	if err != nil {
		return err
	}

	if coords.IsEmpty() {
		// Nothing to scope a variant lookup against; the machine parks in
		// CoordinatesReady and no rows are produced.
		o.logger.WithFields(logrus.Fields{
			"gene":    o.gene,
			"patient": o.patientID,
		}).Warn("Empty coordinate range, skipping variant lookup")
		return nil
	}

	return o.fetchVariants(ctx, coords)
}

func (o *Orchestrator) resolveCoordinates(ctx context.Context) (*domain.CoordinateRange, error) {
	o.mu.Lock()
	if o.coords != nil {
		coords := o.coords
		o.mu.Unlock()
		return coords, nil
	}
	o.state = domain.StateCoordinatesPending
	o.mu.Unlock()

	coords, err := o.resolver.Resolve(ctx, o.gene)
	if err != nil {
		o.fail("coordinate resolution failed", err)
		return nil, err
	}

	o.mu.Lock()
	o.coords = coords
	o.state = domain.StateCoordinatesReady
	o.mu.Unlock()
	return coords, nil
}

func (o *Orchestrator) fetchVariants(ctx context.Context, coords *domain.CoordinateRange) error {
	o.setState(domain.StateVariantsPending)

	report, err := o.fetcher.FindSubjectVariants(ctx, o.patientID, coords.BuildCoordinates)
	if err != nil {
		o.fail("variant lookup failed", err)
		return err
	}

	rows, err := Translate(report)
	if err != nil {
		o.fail("variant report translation failed", err)
		return err
	}

	o.mu.Lock()
	o.rows = rows
	o.state = domain.StateVariantsReady
	o.mu.Unlock()

	o.logger.WithFields(logrus.Fields{
		"gene":    o.gene,
		"patient": o.patientID,
		"rows":    len(rows),
	}).Info("Variant pipeline ready")
	return nil
}

// State returns the current orchestration state.
func (o *Orchestrator) State() domain.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Readiness exposes the three-level progress indicator for presentation.
func (o *Orchestrator) Readiness() domain.Readiness {
	return o.State().Readiness()
}

// Rows returns a copy of the translated rows.
func (o *Orchestrator) Rows() []domain.VariantRow {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.VariantRow(nil), o.rows...)
}

// Confirm hands the translated rows to the consumer. Rows are released only
// in VariantsReady and only through this explicit call — reaching readiness
// alone never pushes data unsolicited. It reports whether the consumer was
// invoked.
func (o *Orchestrator) Confirm(consumer domain.RowConsumer) bool {
	o.mu.Lock()
	ready := o.state == domain.StateVariantsReady
	rows := append([]domain.VariantRow(nil), o.rows...)
	o.mu.Unlock()

	if !ready || consumer == nil {
		return false
	}
	consumer(rows)
	return true
}

func (o *Orchestrator) setState(s domain.State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) fail(message string, err error) {
	o.setState(domain.StateUnresolved)
	o.logger.WithFields(logrus.Fields{
		"gene":    o.gene,
		"patient": o.patientID,
		"kind":    string(domain.KindOf(err)),
	}).WithError(err).Error(message)
}
