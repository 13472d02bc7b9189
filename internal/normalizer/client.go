package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// serviceClient is a thin rate-limited HTTP client against one normalizer
// service's `normalize(query) -> response` RPC, grounded on the teacher's
// HGNCClient (pkg/external/hgnc_client.go): a per-service rate.Limiter plus
// plain net/http + encoding/json, no generated SDK.
type serviceClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newServiceClient(baseURL string, timeout time.Duration, rateLimit float64) *serviceClient {
	if rateLimit <= 0 {
		rateLimit = 10
	}
	return &serviceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
	}
}

// conceptWire is the wire shape returned by the gene/disease/therapy
// normalizer services.
type conceptWire struct {
	MatchType int `json:"match_type"`
	Concept   *struct {
		ID         string                   `json:"id"`
		Name       string                   `json:"name"`
		Mappings   []json.RawMessage        `json:"mappings"`
		Extensions []json.RawMessage        `json:"extensions"`
	} `json:"concept"`
}

// normalizeConcept issues the normalize(query) RPC and returns the raw
// wire response. Network/transport errors and non-2xx responses are
// returned as plain errors — the gateway classifies them into the
// NormalizationFailure / CredentialFailure taxonomy.
func (c *serviceClient) normalizeConcept(ctx context.Context, query string) (*conceptWire, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("normalizer rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/normalize?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building normalizer request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling normalizer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &CredentialError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("normalizer returned status %d", resp.StatusCode)
	}

	var wire conceptWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding normalizer response: %w", err)
	}
	return &wire, nil
}

// CredentialError marks a fatal auth failure against a normalizer service;
// the gateway maps this to transformerr.ClassCredential, which aborts the run.
type CredentialError struct {
	StatusCode int
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("normalizer credential failure: http %d", e.StatusCode)
}
