package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

const tokenPriceTTL = 2 * time.Minute

// TokenPriceCache implements domain.TokenPriceCache using Redis hashes.
// Each token's price is stored as a hash at key "tokenprice:{address}" with
// fields "usd" and "ts" (Unix nanosecond timestamp).
type TokenPriceCache struct {
	rdb *redis.Client
}

// NewTokenPriceCache creates a TokenPriceCache backed by the given Client.
func NewTokenPriceCache(c *Client) *TokenPriceCache {
	return &TokenPriceCache{rdb: c.Underlying()}
}

func tokenPriceKey(address string) string {
	return "tokenprice:" + address
}

// SetPrices stores USD unit prices for a batch of contract addresses using a
// pipeline, each with the same timestamp.
func (tc *TokenPriceCache) SetPrices(ctx context.Context, prices map[string]float64, ts time.Time) error {
	if len(prices) == 0 {
		return nil
	}

	tsStr := strconv.FormatInt(ts.UnixNano(), 10)

	pipe := tc.rdb.TxPipeline()
	for addr, usd := range prices {
		key := tokenPriceKey(addr)
		pipe.HSet(ctx, key, map[string]interface{}{
			"usd": strconv.FormatFloat(usd, 'f', -1, 64),
			"ts":  tsStr,
		})
		pipe.Expire(ctx, key, tokenPriceTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set token prices: %w", err)
	}
	return nil
}

// GetPrices retrieves USD unit prices for multiple addresses using a pipeline.
// Addresses whose keys do not exist are silently omitted from the result map.
func (tc *TokenPriceCache) GetPrices(ctx context.Context, addresses []string) (map[string]float64, error) {
	if len(addresses) == 0 {
		return map[string]float64{}, nil
	}

	pipe := tc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(addresses))
	for _, addr := range addresses {
		cmds[addr] = pipe.HGetAll(ctx, tokenPriceKey(addr))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get token prices pipeline: %w", err)
	}

	result := make(map[string]float64, len(addresses))
	for addr, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		usdStr, ok := vals["usd"]
		if !ok {
			continue
		}
		usd, err := strconv.ParseFloat(usdStr, 64)
		if err != nil {
			continue
		}
		result[addr] = usd
	}
	return result, nil
}

// Compile-time interface check.
var _ domain.TokenPriceCache = (*TokenPriceCache)(nil)
