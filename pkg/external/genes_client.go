package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/subject-variants-server/internal/domain"
)

// GenesClient handles interactions with the NLM Clinical Tables genes API,
// which maps gene symbols to reference-build coordinate ranges.
type GenesClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// GenesConfig represents configuration for the genes API client.
type GenesConfig struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per second
}

// NewGenesClient creates a new genes API client.
func NewGenesClient(config GenesConfig) *GenesClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://clinicaltables.nlm.nih.gov/api/genes/v4"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}

	return &GenesClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// genesExtraFields is the third element of the positional search response,
// holding the requested extra fields keyed by field name.
type genesExtraFields struct {
	Build38Coordinates []string `json:"build38Coordinates"`
}

// LookupCoordinates resolves a gene symbol to its GRCh38 coordinate range.
// The search response is a positional array; the coordinate field of the
// first matching entry is read. A response without that field is a
// resolution failure, not a crash.
func (g *GenesClient) LookupCoordinates(ctx context.Context, geneSymbol string) (*domain.CoordinateRange, error) {
	geneSymbol = domain.NormalizeGeneSymbol(geneSymbol)
	if geneSymbol == "" {
		return nil, domain.NewResolutionError("gene symbol cannot be empty", nil)
	}

	if err := g.rateLimit.Wait(ctx); err != nil {
		return nil, domain.NewResolutionError("rate limit wait failed", err)
	}

	query := url.Values{}
	query.Set("terms", geneSymbol)
	query.Set("df", "symbol")
	query.Set("ef", "build38Coordinates")
	query.Set("maxList", "1")
	searchURL := fmt.Sprintf("%s/search?%s", g.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, domain.NewResolutionError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewResolutionError(fmt.Sprintf("coordinate lookup for %s failed", geneSymbol), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewResolutionError(
			fmt.Sprintf("genes API returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewResolutionError("failed to read response body", err)
	}

	// Positional array: [total, codes, extraFields, display].
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, domain.NewResolutionError("failed to parse JSON response", err)
	}
	if len(elements) < 3 {
		return nil, domain.NewResolutionError(
			fmt.Sprintf("genes API response has %d elements, expected at least 3", len(elements)), nil)
	}

	var fields genesExtraFields
	if err := json.Unmarshal(elements[2], &fields); err != nil {
		return nil, domain.NewResolutionError("failed to parse extra fields", err)
	}
	if len(fields.Build38Coordinates) == 0 {
		return nil, domain.NewResolutionError(
			fmt.Sprintf("no build38 coordinates for gene %s", geneSymbol), nil)
	}

	return &domain.CoordinateRange{
		GeneSymbol:       geneSymbol,
		BuildCoordinates: fields.Build38Coordinates[0],
		ResolvedAt:       time.Now().UTC(),
	}, nil
}
