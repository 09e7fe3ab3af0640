package domain

import (
	"context"
	"time"
)

// PoolPageCache is a short-TTL read-through cache for upstream pool pages,
// keyed by the selection that produced them (e.g. "trending" or
// "eth:h24_volume_usd_desc:1"). A miss returns ErrNotFound.
type PoolPageCache interface {
	Set(ctx context.Context, key string, page PoolPage) error
	Get(ctx context.Context, key string) (PoolPage, error)
}

// TokenPriceCache stores last-known USD unit prices per contract address.
type TokenPriceCache interface {
	SetPrices(ctx context.Context, prices map[string]float64, ts time.Time) error
	GetPrices(ctx context.Context, addresses []string) (map[string]float64, error)
}

// RateLimiter provides distributed rate limiting for the HTTP surface.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
