package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

const poolPageTTL = 25 * time.Second

// PoolPageCache implements domain.PoolPageCache using Redis hashes with
// JSON-serialized PoolPage data. The TTL sits just under the dashboard poll
// interval so a fresh poll never reads its own previous answer.
//
// Key schema:
//
//	pools:{selection} - hash with field "data" containing JSON
type PoolPageCache struct {
	rdb *redis.Client
}

// NewPoolPageCache creates a PoolPageCache backed by the given Client.
func NewPoolPageCache(c *Client) *PoolPageCache {
	return &PoolPageCache{rdb: c.Underlying()}
}

func poolPageKey(selection string) string { return "pools:" + selection }

// Set stores a PoolPage under its selection key.
func (pc *PoolPageCache) Set(ctx context.Context, key string, page domain.PoolPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("redis: marshal pool page %s: %w", key, err)
	}

	k := poolPageKey(key)

	pipe := pc.rdb.TxPipeline()
	pipe.HSet(ctx, k, "data", data)
	pipe.Expire(ctx, k, poolPageTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set pool page %s: %w", key, err)
	}
	return nil
}

// Get retrieves a PoolPage by its selection key.
// It returns domain.ErrNotFound when the key does not exist.
func (pc *PoolPageCache) Get(ctx context.Context, key string) (domain.PoolPage, error) {
	data, err := pc.rdb.HGet(ctx, poolPageKey(key), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PoolPage{}, domain.ErrNotFound
		}
		return domain.PoolPage{}, fmt.Errorf("redis: get pool page %s: %w", key, err)
	}

	var page domain.PoolPage
	if err := json.Unmarshal(data, &page); err != nil {
		return domain.PoolPage{}, fmt.Errorf("redis: unmarshal pool page %s: %w", key, err)
	}
	return page, nil
}

// Compile-time interface check.
var _ domain.PoolPageCache = (*PoolPageCache)(nil)
