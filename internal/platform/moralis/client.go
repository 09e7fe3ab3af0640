// Package moralis is the typed REST client for the wallet balance provider.
// It returns raw holdings as reported upstream, spam flags included; filtering
// and valuation belong to the wallet service.
package moralis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://deep-index.moralis.io/api/v2.2"

// Client is the REST client for the balance provider API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new balance provider client. baseURL may be empty, in
// which case DefaultBaseURL is used.
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

// GetWalletTokenBalances returns every ERC-20 holding the provider knows for
// the address on the given chain (a provider chain tag such as "0x1").
// Spam and unverified holdings are included; callers decide what to drop.
func (c *Client) GetWalletTokenBalances(ctx context.Context, address, chain string) ([]domain.TokenBalance, error) {
	params := url.Values{}
	params.Set("chain", chain)

	path := fmt.Sprintf("/%s/erc20?%s", url.PathEscape(address), params.Encode())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("moralis: get token balances for %s: %w", address, err)
	}

	var rows []apiTokenBalance
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("moralis: decode token balances for %s: %w", address, err)
	}

	balances := make([]domain.TokenBalance, 0, len(rows))
	for i := range rows {
		balances = append(balances, rows[i].toDomain())
	}
	return balances, nil
}

// GetWalletBalance returns the native-asset balance and its USD value.
func (c *Client) GetWalletBalance(ctx context.Context, address, chain string) (domain.NativeBalance, error) {
	params := url.Values{}
	params.Set("chain", chain)

	path := fmt.Sprintf("/wallets/%s/balance?%s", url.PathEscape(address), params.Encode())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.NativeBalance{}, fmt.Errorf("moralis: get native balance for %s: %w", address, err)
	}

	var row apiNativeBalance
	if err := json.Unmarshal(body, &row); err != nil {
		return domain.NativeBalance{}, fmt.Errorf("moralis: decode native balance for %s: %w", address, err)
	}

	return domain.NativeBalance{Balance: row.Balance, ValueUSD: row.UsdValue}, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

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
			Provider:   "moralis",
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}

	return body, nil
}

// Compile-time interface check.
var _ domain.BalanceProvider = (*Client)(nil)
