package service

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/subject-variants-server/internal/domain"
)

// Pipelines hands out the orchestrator instance for a (gene, patient)
// pairing, creating it on first use. Instances persist for the session so a
// failed pairing stays Unresolved until dropped, matching the no-retry
// policy.
type Pipelines struct {
	resolver domain.CoordinateResolver
	fetcher  domain.VariantFetcher
	logger   *logrus.Logger

	mu        sync.Mutex
	instances map[pipelineKey]*Orchestrator
}

type pipelineKey struct {
	gene      string
	patientID string
}

// NewPipelines creates the per-session orchestrator registry.
func NewPipelines(resolver domain.CoordinateResolver, fetcher domain.VariantFetcher, logger *logrus.Logger) *Pipelines {
	return &Pipelines{
		resolver:  resolver,
		fetcher:   fetcher,
		logger:    logger,
		instances: make(map[pipelineKey]*Orchestrator),
	}
}

// Get returns the orchestrator for the pairing, creating an idle one if none
// exists yet.
func (p *Pipelines) Get(gene, patientID string) *Orchestrator {
	key := pipelineKey{gene: domain.NormalizeGeneSymbol(gene), patientID: patientID}

	p.mu.Lock()
	defer p.mu.Unlock()
	if inst, ok := p.instances[key]; ok {
		return inst
	}
	inst := NewOrchestrator(key.gene, patientID, p.resolver, p.fetcher, p.logger)
	p.instances[key] = inst
	return inst
}

// Lookup returns the orchestrator for the pairing without creating one.
func (p *Pipelines) Lookup(gene, patientID string) (*Orchestrator, bool) {
	key := pipelineKey{gene: domain.NormalizeGeneSymbol(gene), patientID: patientID}

	p.mu.Lock()
	defer p.mu.Unlock()
	inst, ok := p.instances[key]
	return inst, ok
}

// Drop tears down the instance for a pairing; the next Get starts a fresh
// Idle machine.
func (p *Pipelines) Drop(gene, patientID string) {
	key := pipelineKey{gene: domain.NormalizeGeneSymbol(gene), patientID: patientID}

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.instances, key)
}
