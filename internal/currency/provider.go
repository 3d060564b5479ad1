package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultProviderURL serves INR-denominated rates.
const DefaultProviderURL = "https://open.er-api.com/v6/latest/INR"

// HTTPProvider reads a `{"rates": {"USD": 0.012, ...}}` table over HTTP.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider for url with a request timeout.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{url: url, client: &http.Client{Timeout: timeout}}
}

type rateResponse struct {
	Result    string                     `json:"result"`
	ErrorType string                     `json:"error-type"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// Rates fetches the current table.
func (p *HTTPProvider) Rates(ctx context.Context) (RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching rates: unexpected status %s", resp.Status)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding rates: %w", err)
	}
	if body.Result == "error" {
		return nil, fmt.Errorf("rate provider error: %s", body.ErrorType)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate provider returned no rates")
	}

	table := make(RateTable, len(body.Rates))
	for code, rate := range body.Rates {
		table[normalize(code)] = rate
	}
	return table, nil
}

// CachedProvider keeps the last successful table in memory for ttl.
type CachedProvider struct {
	next Provider
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	table     RateTable
	fetchedAt time.Time
}

// NewCachedProvider wraps next with an in-process cache.
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, ttl: ttl, now: time.Now}
}

// Rates returns the cached table, refreshing it once it is older than ttl.
func (p *CachedProvider) Rates(ctx context.Context) (RateTable, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.table != nil && p.now().Sub(p.fetchedAt) < p.ttl {
		return p.table, nil
	}

	table, err := p.next.Rates(ctx)
	if err != nil {
		return nil, err
	}
	p.table = table
	p.fetchedAt = p.now()
	return table, nil
}
