package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subject-variants-server/internal/domain"
)

// countingLookupAPI records outbound coordinate lookups.
type countingLookupAPI struct {
	calls  int
	result *domain.CoordinateRange
	err    error
}

func (c *countingLookupAPI) LookupCoordinates(ctx context.Context, geneSymbol string) (*domain.CoordinateRange, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	coords := *c.result
	return &coords, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestResolver_MemoizesPerGene(t *testing.T) {
	api := &countingLookupAPI{result: &domain.CoordinateRange{
		GeneSymbol:       "BRCA1",
		BuildCoordinates: "chr17:43044295-43125483",
		ResolvedAt:       time.Now(),
	}}
	resolver, err := NewResolver(api, 16, testLogger())
	require.NoError(t, err)

	first, err := resolver.Resolve(context.Background(), "BRCA1")
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), "brca1 ")
	require.NoError(t, err)

	assert.Equal(t, 1, api.calls, "repeated resolution must issue at most one outbound request")
	assert.Equal(t, first.BuildCoordinates, second.BuildCoordinates)

	stats := resolver.Stats()
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.ExternalCalls)
}

// gatedLookupAPI blocks every lookup until released, so the test can hold a
// resolution in flight while more callers arrive.
type gatedLookupAPI struct {
	calls   int32
	release chan struct{}
	result  *domain.CoordinateRange
}

func (g *gatedLookupAPI) LookupCoordinates(ctx context.Context, geneSymbol string) (*domain.CoordinateRange, error) {
	atomic.AddInt32(&g.calls, 1)
	<-g.release
	coords := *g.result
	return &coords, nil
}

func TestResolver_ConcurrentResolutionsShareOneLookup(t *testing.T) {
	api := &gatedLookupAPI{
		release: make(chan struct{}),
		result: &domain.CoordinateRange{
			GeneSymbol:       "BRCA1",
			BuildCoordinates: "chr17:43044295-43125483",
		},
	}
	resolver, err := NewResolver(api, 16, testLogger())
	require.NoError(t, err)

	const callers = 4
	results := make([]*domain.CoordinateRange, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = resolver.Resolve(context.Background(), "BRCA1")
		}(i)
	}

	// Give the callers time to pile up behind the in-flight lookup.
	time.Sleep(20 * time.Millisecond)
	close(api.release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&api.calls), "duplicate in-flight resolutions must share one outbound request")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "chr17:43044295-43125483", results[i].BuildCoordinates)
	}
}

func TestResolver_DistinctGenesEachLookup(t *testing.T) {
	api := &countingLookupAPI{result: &domain.CoordinateRange{BuildCoordinates: "chrX:1-2"}}
	resolver, err := NewResolver(api, 16, testLogger())
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "TP53")
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), "EGFR")
	require.NoError(t, err)

	assert.Equal(t, 2, api.calls)
}

func TestResolver_EmptySymbol(t *testing.T) {
	api := &countingLookupAPI{}
	resolver, err := NewResolver(api, 16, testLogger())
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "  ")

	require.Error(t, err)
	assert.Equal(t, domain.KindResolutionFailed, domain.KindOf(err))
	assert.Zero(t, api.calls)
}

func TestResolver_FailureNotCached(t *testing.T) {
	api := &countingLookupAPI{err: domain.NewResolutionError("coordinate field missing", nil)}
	resolver, err := NewResolver(api, 16, testLogger())
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "BRCA2")
	require.Error(t, err)

	// A later attempt goes back to the upstream; the failure was not cached.
	api.err = nil
	api.result = &domain.CoordinateRange{BuildCoordinates: "chr13:32315474-32400266"}
	coords, err := resolver.Resolve(context.Background(), "BRCA2")
	require.NoError(t, err)

	assert.Equal(t, 2, api.calls)
	assert.Equal(t, "chr13:32315474-32400266", coords.BuildCoordinates)
}
