// Package geckoterminal is the typed REST client for the GeckoTerminal public
// market-data API. It knows URL shapes and response envelopes and nothing
// else: no retries, no caching, no business logic.
package geckoterminal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.geckoterminal.com/api/v2"

// DefaultOHLCVLimit caps candle rows when the caller does not specify one.
const DefaultOHLCVLimit = 100

// poolInclude side-loads the entities every pool references.
const poolInclude = "base_token,quote_token,dex"

// Timeframe is the candlestick bucket size accepted by the OHLCV endpoint.
type Timeframe string

const (
	TimeframeMinute Timeframe = "minute"
	TimeframeHour   Timeframe = "hour"
	TimeframeDay    Timeframe = "day"
)

func (t Timeframe) valid() bool {
	switch t {
	case TimeframeMinute, TimeframeHour, TimeframeDay:
		return true
	}
	return false
}

// Client is the REST client for the GeckoTerminal API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new GeckoTerminal client. baseURL may be empty, in
// which case DefaultBaseURL is used. The underlying upstream has no retry
// policy of its own, so the client enforces a hard request timeout and treats
// expiry as a transport error.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetTrendingPools returns the global trending pools across all networks.
func (c *Client) GetTrendingPools(ctx context.Context) (domain.PoolPage, error) {
	params := url.Values{}
	params.Set("include", poolInclude)

	body, err := c.doGet(ctx, "/networks/trending_pools?"+params.Encode())
	if err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: get trending pools: %w", err)
	}

	var env apiPoolListEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: decode trending pools: %w", err)
	}

	return buildPage("", env.Data, env.Included), nil
}

// GetNetworkPools returns one page of pools for a network. page must be >= 1.
// sort is an optional provider sort key such as "h24_volume_usd_desc"; when
// empty the provider default order is used.
func (c *Client) GetNetworkPools(ctx context.Context, network string, page int, sort string) (domain.PoolPage, error) {
	slug, err := ResolveNetwork(network)
	if err != nil {
		return domain.PoolPage{}, err
	}
	if page < 1 {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: page must be >= 1, got %d: %w", page, domain.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("include", poolInclude)
	params.Set("page", strconv.Itoa(page))
	if sort != "" {
		params.Set("sort", sort)
	}

	path := fmt.Sprintf("/networks/%s/pools?%s", url.PathEscape(slug), params.Encode())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: get pools for %s: %w", slug, err)
	}

	var env apiPoolListEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: decode pools for %s: %w", slug, err)
	}

	return buildPage(slug, env.Data, env.Included), nil
}

// GetTopPoolsByMarketCap returns the first page of a network's pools sorted
// descending by market cap on the server side.
func (c *Client) GetTopPoolsByMarketCap(ctx context.Context, network string) (domain.PoolPage, error) {
	return c.GetNetworkPools(ctx, network, 1, "market_cap_usd_desc")
}

// GetPoolByAddress returns a single pool. It fails with an error matching
// domain.ErrNotFound when the provider does not know the address.
func (c *Client) GetPoolByAddress(ctx context.Context, network, address string) (domain.PoolPage, error) {
	slug, err := ResolveNetwork(network)
	if err != nil {
		return domain.PoolPage{}, err
	}

	params := url.Values{}
	params.Set("include", poolInclude)

	path := fmt.Sprintf("/networks/%s/pools/%s?%s", url.PathEscape(slug), url.PathEscape(address), params.Encode())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: get pool %s/%s: %w", slug, address, err)
	}

	var env apiPoolEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: decode pool %s/%s: %w", slug, address, err)
	}

	return buildPage(slug, []apiPool{env.Data}, env.Included), nil
}

// GetTokenInfo returns metadata for a single token contract.
func (c *Client) GetTokenInfo(ctx context.Context, network, address string) (domain.Token, error) {
	slug, err := ResolveNetwork(network)
	if err != nil {
		return domain.Token{}, err
	}

	path := fmt.Sprintf("/networks/%s/tokens/%s", url.PathEscape(slug), url.PathEscape(address))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.Token{}, fmt.Errorf("geckoterminal: get token %s/%s: %w", slug, address, err)
	}

	var env apiTokenEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Token{}, fmt.Errorf("geckoterminal: decode token %s/%s: %w", slug, address, err)
	}

	return env.Data.toDomainToken(), nil
}

// GetTokenPools returns the pools that reference the given token.
func (c *Client) GetTokenPools(ctx context.Context, network, address string) (domain.PoolPage, error) {
	slug, err := ResolveNetwork(network)
	if err != nil {
		return domain.PoolPage{}, err
	}

	params := url.Values{}
	params.Set("include", poolInclude)

	path := fmt.Sprintf("/networks/%s/tokens/%s/pools?%s", url.PathEscape(slug), url.PathEscape(address), params.Encode())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: get token pools %s/%s: %w", slug, address, err)
	}

	var env apiPoolListEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: decode token pools %s/%s: %w", slug, address, err)
	}

	return buildPage(slug, env.Data, env.Included), nil
}

// SearchPools performs a free-text search across pools.
func (c *Client) SearchPools(ctx context.Context, query string) (domain.PoolPage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include", poolInclude)

	body, err := c.doGet(ctx, "/search/pools?"+params.Encode())
	if err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: search pools %q: %w", query, err)
	}

	var env apiPoolListEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: decode search results: %w", err)
	}

	return buildPage("", env.Data, env.Included), nil
}

// GetNewPools returns recently created pools for a network.
func (c *Client) GetNewPools(ctx context.Context, network string) (domain.PoolPage, error) {
	slug, err := ResolveNetwork(network)
	if err != nil {
		return domain.PoolPage{}, err
	}

	params := url.Values{}
	params.Set("include", poolInclude)

	path := fmt.Sprintf("/networks/%s/new_pools?%s", url.PathEscape(slug), params.Encode())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: get new pools for %s: %w", slug, err)
	}

	var env apiPoolListEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PoolPage{}, fmt.Errorf("geckoterminal: decode new pools for %s: %w", slug, err)
	}

	return buildPage(slug, env.Data, env.Included), nil
}

// GetPoolOHLCV returns a pool's candlestick series. aggregate is a positive
// multiplier of the timeframe bucket; limit caps the row count (default
// DefaultOHLCVLimit); beforeTimestamp, when > 0, is an exclusive upper bound
// used for pagination.
func (c *Client) GetPoolOHLCV(ctx context.Context, network, address string, timeframe Timeframe, aggregate int, beforeTimestamp int64, limit int) ([]domain.Candle, error) {
	slug, err := ResolveNetwork(network)
	if err != nil {
		return nil, err
	}
	if !timeframe.valid() {
		return nil, fmt.Errorf("geckoterminal: timeframe %q: %w", timeframe, domain.ErrInvalidInput)
	}
	if aggregate < 1 {
		return nil, fmt.Errorf("geckoterminal: aggregate must be >= 1, got %d: %w", aggregate, domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultOHLCVLimit
	}

	params := url.Values{}
	params.Set("aggregate", strconv.Itoa(aggregate))
	params.Set("limit", strconv.Itoa(limit))
	if beforeTimestamp > 0 {
		params.Set("before_timestamp", strconv.FormatInt(beforeTimestamp, 10))
	}

	path := fmt.Sprintf("/networks/%s/pools/%s/ohlcv/%s?%s",
		url.PathEscape(slug), url.PathEscape(address), url.PathEscape(string(timeframe)), params.Encode())
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("geckoterminal: get ohlcv %s/%s: %w", slug, address, err)
	}

	var env apiOHLCVEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("geckoterminal: decode ohlcv %s/%s: %w", slug, address, err)
	}

	candles := make([]domain.Candle, 0, len(env.Data.Attributes.OHLCVList))
	for _, row := range env.Data.Attributes.OHLCVList {
		candles = append(candles, row.toCandle())
	}
	return candles, nil
}

// GetNetworks returns the networks the provider tracks.
func (c *Client) GetNetworks(ctx context.Context) ([]domain.Network, error) {
	body, err := c.doGet(ctx, "/networks")
	if err != nil {
		return nil, fmt.Errorf("geckoterminal: get networks: %w", err)
	}

	var env apiNetworkList
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("geckoterminal: decode networks: %w", err)
	}

	networks := make([]domain.Network, 0, len(env.Data))
	for _, n := range env.Data {
		networks = append(networks, domain.Network{ID: n.ID, Name: n.Attributes.Name})
	}
	return networks, nil
}

// GetNetworkDexes returns the exchanges the provider tracks on one network.
func (c *Client) GetNetworkDexes(ctx context.Context, network string) ([]domain.Dex, error) {
	slug, err := ResolveNetwork(network)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/networks/%s/dexes", url.PathEscape(slug))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("geckoterminal: get dexes for %s: %w", slug, err)
	}

	var env apiDexList
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("geckoterminal: decode dexes for %s: %w", slug, err)
	}

	dexes := make([]domain.Dex, 0, len(env.Data))
	for _, d := range env.Data {
		dexes = append(dexes, domain.Dex{ID: d.ID, Name: d.Attributes.Name})
	}
	return dexes, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends a GET request and returns the raw body. Non-2xx responses are
// surfaced as *domain.UpstreamError; transport failures propagate as plain
// wrapped errors.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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
			Provider:   "geckoterminal",
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}

	return body, nil
}
