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

// FHIRClient handles interactions with a FHIR genomics-operations endpoint,
// specifically the $find-subject-variants operation.
type FHIRClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// FHIRConfig represents configuration for the FHIR operations client.
type FHIRConfig struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per second
}

// NewFHIRClient creates a new FHIR genomics-operations client.
func NewFHIRClient(config FHIRConfig) *FHIRClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://fhir-gen-ops.herokuapp.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}

	return &FHIRClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// FindSubjectVariants retrieves the variant report for a patient within a
// coordinate range, requesting inclusion of variant detail. An empty range
// is a guard no-op: no request is issued and both return values are nil.
func (f *FHIRClient) FindSubjectVariants(ctx context.Context, patientID, coordinateRange string) (*domain.VariantReport, error) {
	if coordinateRange == "" {
		return nil, nil
	}
	if patientID == "" {
		return nil, domain.NewFetchError("patient identifier cannot be empty", nil)
	}

	if err := f.rateLimit.Wait(ctx); err != nil {
		return nil, domain.NewFetchError("rate limit wait failed", err)
	}

	query := url.Values{}
	query.Set("subject", patientID)
	query.Set("ranges", coordinateRange)
	query.Set("includeVariants", "true")
	opURL := fmt.Sprintf("%s/$find-subject-variants?%s", f.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, domain.NewFetchError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(
			fmt.Sprintf("variant lookup for subject %s failed", patientID), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewFetchError(
			fmt.Sprintf("FHIR server returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError("failed to read response body", err)
	}

	var report domain.VariantReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, domain.NewFetchError("failed to parse JSON response", err)
	}

	if report.IsOperationOutcome() {
		return nil, domain.NewFetchError("FHIR server reported an operation outcome", nil)
	}
	if report.ResourceType != domain.ResourceTypeParameters {
		return nil, domain.NewFetchError(
			fmt.Sprintf("unexpected resource type %q, expected %s", report.ResourceType, domain.ResourceTypeParameters), nil)
	}

	return &report, nil
}
