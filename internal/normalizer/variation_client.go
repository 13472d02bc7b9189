package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/metakb-transform/internal/domain"
)

// variationClient is the async variation normalizer's client. Unlike the
// three concept clients it returns a full VRS Variation (or nil), never a
// bare canonical-ID; spec.md §4.1 models this RPC as suspendable network I/O.
type variationClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newVariationClient(baseURL string, timeout time.Duration, rateLimit float64) *variationClient {
	if rateLimit <= 0 {
		rateLimit = 10
	}
	return &variationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
	}
}

func (c *variationClient) normalizeVariation(ctx context.Context, query string) (*domain.Variation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("variation normalizer rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/normalize?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building variation normalizer request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling variation normalizer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &CredentialError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("variation normalizer returned status %d", resp.StatusCode)
	}

	var v domain.Variation
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding variation normalizer response: %w", err)
	}
	return &v, nil
}
