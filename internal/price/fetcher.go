package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPFetcher queries a JSON price API: GET {base}/prices?tokens=a,b,c
// returning {"prices": {"a": "1.23", ...}}. Tokens the API does not
// know are simply omitted from the response.
type HTTPFetcher struct {
	baseURL string
	http    *http.Client
}

// NewHTTPFetcher builds a fetcher for the given price API base URL.
func NewHTTPFetcher(baseURL string, timeout time.Duration) (*HTTPFetcher, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("price api url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// FetchPrices implements Fetcher.
func (f *HTTPFetcher) FetchPrices(ctx context.Context, tokens []string) (map[string]decimal.Decimal, error) {
	query := url.Values{}
	query.Set("tokens", strings.Join(tokens, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/prices?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price api status %d", resp.StatusCode)
	}

	var payload struct {
		Prices map[string]string `json:"prices"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(payload.Prices))
	for token, raw := range payload.Prices {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("price for %s: %w", token, err)
		}
		prices[token] = p
	}
	return prices, nil
}
