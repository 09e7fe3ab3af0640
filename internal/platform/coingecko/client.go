// Package coingecko is the typed REST client for the token price provider.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client is the REST client for the price provider API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new price provider client. baseURL may be empty, in
// which case DefaultBaseURL is used. apiKey may be empty for the free tier.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetTokenPrices returns USD unit prices for a batch of token contracts on one
// platform (a provider platform tag such as "ethereum"). The result is keyed
// by lowercase contract address; addresses the provider does not price are
// simply absent from the map.
func (c *Client) GetTokenPrices(ctx context.Context, platform string, contractAddresses []string) (map[string]float64, error) {
	if len(contractAddresses) == 0 {
		return map[string]float64{}, nil
	}

	params := url.Values{}
	params.Set("contract_addresses", strings.Join(contractAddresses, ","))
	params.Set("vs_currencies", "usd")

	path := fmt.Sprintf("/simple/token_price/%s?%s", url.PathEscape(platform), params.Encode())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("coingecko: get token prices on %s: %w", platform, err)
	}

	var raw map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("coingecko: decode token prices on %s: %w", platform, err)
	}

	prices := make(map[string]float64, len(raw))
	for addr, p := range raw {
		prices[strings.ToLower(addr)] = p.USD
	}
	return prices, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{
			Provider:   "coingecko",
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}

	return body, nil
}

// Compile-time interface check.
var _ domain.PriceProvider = (*Client)(nil)
