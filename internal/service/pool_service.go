// Package service holds the use-case layer between the HTTP surface, the
// dashboard controller, and the upstream platform clients.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtarnawa/dexpulse/internal/domain"
	"github.com/mtarnawa/dexpulse/internal/platform/geckoterminal"
)

// allowedSorts is the server-side sort whitelist for network pool listings.
var allowedSorts = map[string]bool{
	"":                    true,
	"h24_volume_usd_desc": true,
	"h24_tx_count_desc":   true,
	"market_cap_usd_desc": true,
}

// PoolProvider is the slice of the market-data client the pool service needs.
type PoolProvider interface {
	GetTrendingPools(ctx context.Context) (domain.PoolPage, error)
	GetNetworkPools(ctx context.Context, network string, page int, sort string) (domain.PoolPage, error)
	GetTopPoolsByMarketCap(ctx context.Context, network string) (domain.PoolPage, error)
	GetPoolByAddress(ctx context.Context, network, address string) (domain.PoolPage, error)
	GetTokenInfo(ctx context.Context, network, address string) (domain.Token, error)
	GetTokenPools(ctx context.Context, network, address string) (domain.PoolPage, error)
	SearchPools(ctx context.Context, query string) (domain.PoolPage, error)
	GetNewPools(ctx context.Context, network string) (domain.PoolPage, error)
	GetPoolOHLCV(ctx context.Context, network, address string, timeframe geckoterminal.Timeframe, aggregate int, beforeTimestamp int64, limit int) ([]domain.Candle, error)
	GetNetworks(ctx context.Context) ([]domain.Network, error)
	GetNetworkDexes(ctx context.Context, network string) ([]domain.Dex, error)
}

// Compile-time interface check.
var _ PoolProvider = (*geckoterminal.Client)(nil)

// PoolService serves pool reads, fronting the upstream client with a
// short-TTL cache for the page-shaped listings the dashboard polls.
type PoolService struct {
	provider PoolProvider
	cache    domain.PoolPageCache
	logger   *slog.Logger
}

// NewPoolService creates a PoolService. cache may be nil, in which case every
// read goes upstream.
func NewPoolService(provider PoolProvider, cache domain.PoolPageCache, logger *slog.Logger) *PoolService {
	return &PoolService{
		provider: provider,
		cache:    cache,
		logger:   logger.With(slog.String("component", "pool_service")),
	}
}

// TrendingPools returns the global trending pools, cache first.
func (s *PoolService) TrendingPools(ctx context.Context) (domain.PoolPage, error) {
	return s.cachedPage(ctx, "trending", func() (domain.PoolPage, error) {
		return s.provider.GetTrendingPools(ctx)
	})
}

// NetworkPools returns one page of a network's pools. sort must be empty or
// one of the whitelisted provider sort keys.
func (s *PoolService) NetworkPools(ctx context.Context, network string, page int, sort string) (domain.PoolPage, error) {
	if !allowedSorts[sort] {
		return domain.PoolPage{}, fmt.Errorf("pool_service: sort %q: %w", sort, domain.ErrInvalidInput)
	}
	key := fmt.Sprintf("%s:%d:%s", network, page, sort)
	return s.cachedPage(ctx, key, func() (domain.PoolPage, error) {
		return s.provider.GetNetworkPools(ctx, network, page, sort)
	})
}

// TopPoolsByMarketCap returns the first page of a network's pools ordered by
// market cap.
func (s *PoolService) TopPoolsByMarketCap(ctx context.Context, network string) (domain.PoolPage, error) {
	return s.cachedPage(ctx, network+":mcap", func() (domain.PoolPage, error) {
		return s.provider.GetTopPoolsByMarketCap(ctx, network)
	})
}

// NewPools returns recently created pools for a network.
func (s *PoolService) NewPools(ctx context.Context, network string) (domain.PoolPage, error) {
	return s.cachedPage(ctx, network+":new", func() (domain.PoolPage, error) {
		return s.provider.GetNewPools(ctx, network)
	})
}

// PoolByAddress returns a single pool with its side-loaded tokens and dex.
func (s *PoolService) PoolByAddress(ctx context.Context, network, address string) (domain.PoolPage, error) {
	return s.provider.GetPoolByAddress(ctx, network, address)
}

// TokenInfo returns metadata for a token contract.
func (s *PoolService) TokenInfo(ctx context.Context, network, address string) (domain.Token, error) {
	return s.provider.GetTokenInfo(ctx, network, address)
}

// TokenPools returns the pools referencing a token.
func (s *PoolService) TokenPools(ctx context.Context, network, address string) (domain.PoolPage, error) {
	return s.provider.GetTokenPools(ctx, network, address)
}

// SearchPools performs a free-text pool search.
func (s *PoolService) SearchPools(ctx context.Context, query string) (domain.PoolPage, error) {
	if query == "" {
		return domain.PoolPage{}, fmt.Errorf("pool_service: empty query: %w", domain.ErrInvalidInput)
	}
	return s.provider.SearchPools(ctx, query)
}

// PoolOHLCV returns a pool's candlestick series.
func (s *PoolService) PoolOHLCV(ctx context.Context, network, address string, timeframe geckoterminal.Timeframe, aggregate int, beforeTimestamp int64, limit int) ([]domain.Candle, error) {
	return s.provider.GetPoolOHLCV(ctx, network, address, timeframe, aggregate, beforeTimestamp, limit)
}

// Networks returns the networks the upstream tracks.
func (s *PoolService) Networks(ctx context.Context) ([]domain.Network, error) {
	return s.provider.GetNetworks(ctx)
}

// NetworkDexes returns the exchanges tracked on one network.
func (s *PoolService) NetworkDexes(ctx context.Context, network string) ([]domain.Dex, error) {
	return s.provider.GetNetworkDexes(ctx, network)
}

// cachedPage serves a page from the cache when present, otherwise fetches and
// back-fills. Cache failures are logged and never fail the read.
func (s *PoolService) cachedPage(ctx context.Context, key string, fetch func() (domain.PoolPage, error)) (domain.PoolPage, error) {
	if s.cache != nil {
		page, err := s.cache.Get(ctx, key)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	page, err := fetch()
	if err != nil {
		return domain.PoolPage{}, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, key, page); cacheErr != nil {
			s.logger.WarnContext(ctx, "cache write failed",
				slog.String("key", key),
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	return page, nil
}
