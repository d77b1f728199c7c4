// Package service contains the pipeline logic: memoized coordinate
// resolution, variant report translation, and the per-instance orchestration
// state machine that sequences the two remote stages.
package service

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/subject-variants-server/internal/domain"
	"github.com/subject-variants-server/pkg/external"
)

// Resolver resolves gene symbols to coordinate ranges with session-scoped
// memoization: at most one outbound lookup per distinct gene for the
// resolver's lifetime. Entries never expire; the cache is torn down with the
// resolver. Failed lookups are never cached.
type Resolver struct {
	api    external.CoordinateLookupAPI
	cache  *lru.Cache
	group  singleflight.Group
	logger *logrus.Logger

	stats   ResolverStats
	statsMu sync.Mutex
}

// ResolverStats tracks cache effectiveness for observability.
type ResolverStats struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	ExternalCalls int64 `json:"external_calls"`
	Errors        int64 `json:"errors"`
}

// NewResolver creates a memoizing coordinate resolver. maxEntries bounds the
// cache; zero selects a default suitable for a gene-per-button session.
func NewResolver(api external.CoordinateLookupAPI, maxEntries int, logger *logrus.Logger) (*Resolver, error) {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	cache, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		api:    api,
		cache:  cache,
		logger: logger,
	}, nil
}

// Resolve returns the coordinate range for a gene symbol, issuing an
// outbound lookup only on the first request for that gene.
func (r *Resolver) Resolve(ctx context.Context, geneSymbol string) (*domain.CoordinateRange, error) {
	geneSymbol = domain.NormalizeGeneSymbol(geneSymbol)
	if geneSymbol == "" {
		r.bumpErrors()
		return nil, domain.NewResolutionError("gene symbol cannot be empty", nil)
	}

	if value, ok := r.cache.Get(geneSymbol); ok {
		r.bumpHits()
		coords := value.(domain.CoordinateRange)
		r.logger.WithFields(logrus.Fields{
			"gene_symbol": geneSymbol,
			"coordinates": coords.BuildCoordinates,
		}).Debug("Coordinate cache hit")
		return &coords, nil
	}

	// Concurrent first resolutions of the same gene share one in-flight
	// lookup; only the winner reaches upstream.
	value, err, _ := r.group.Do(geneSymbol, func() (interface{}, error) {
		if cached, ok := r.cache.Get(geneSymbol); ok {
			return cached, nil
		}
		r.bumpMisses()

		coords, err := r.api.LookupCoordinates(ctx, geneSymbol)
		if err != nil {
			return nil, err
		}

		// Cache by value; the resolved range is immutable for the session.
		r.cache.Add(geneSymbol, *coords)

		r.logger.WithFields(logrus.Fields{
			"gene_symbol": geneSymbol,
			"coordinates": coords.BuildCoordinates,
		}).Info("Resolved gene coordinates")

		return *coords, nil
	})
	if err != nil {
		r.bumpErrors()
		return nil, err
	}

	coords := value.(domain.CoordinateRange)
	return &coords, nil
}

// Stats returns a snapshot of cache statistics.
func (r *Resolver) Stats() ResolverStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

func (r *Resolver) bumpHits() {
	r.statsMu.Lock()
	r.stats.CacheHits++
	r.statsMu.Unlock()
}

func (r *Resolver) bumpMisses() {
	r.statsMu.Lock()
	r.stats.CacheMisses++
	r.stats.ExternalCalls++
	r.statsMu.Unlock()
}

func (r *Resolver) bumpErrors() {
	r.statsMu.Lock()
	r.stats.Errors++
	r.statsMu.Unlock()
}
