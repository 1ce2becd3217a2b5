package cache

import (
	"context"
	"encoding/json"
	"time"

	corecache "chatcal-api/core/cache"
	"chatcal-api/core/logger"
	"chatcal-api/modules/colorslot/entity"
)

// RowCache memoizes the parsed color table for a bounded duration. The
// cache is a disposable projection of the backing table: a read error is a
// miss, and a failed put or invalidate only extends staleness, which the
// resolver already tolerates up to the TTL.
type RowCache interface {
	Get(ctx context.Context) ([]entity.ColorSlot, bool)
	Put(ctx context.Context, rows []entity.ColorSlot, ttl time.Duration)
	Invalidate(ctx context.Context)
}

type redisRowCache struct {
	backend corecache.Cache
	key     string
}

// NewRedisRowCache stores the snapshot under one fixed key. JSON
// serialization gives copy semantics: mutating a returned slice never
// touches the cached value.
func NewRedisRowCache(backend corecache.Cache, key string) RowCache {
	return &redisRowCache{backend: backend, key: key}
}

func (c *redisRowCache) Get(ctx context.Context) ([]entity.ColorSlot, bool) {
	raw, ok, err := c.backend.Get(ctx, c.key)
	if err != nil {
		logger.Warn("RowCache:Get:Error", "error", err, "key", c.key)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rows []entity.ColorSlot
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		logger.Warn("RowCache:Get:Corrupt", "error", err, "key", c.key)
		return nil, false
	}
	return rows, true
}

func (c *redisRowCache) Put(ctx context.Context, rows []entity.ColorSlot, ttl time.Duration) {
	raw, err := json.Marshal(rows)
	if err != nil {
		logger.Warn("RowCache:Put:MarshalError", "error", err, "key", c.key)
		return
	}
	if err := c.backend.Set(ctx, c.key, string(raw), ttl); err != nil {
		logger.Warn("RowCache:Put:Error", "error", err, "key", c.key)
	}
}

func (c *redisRowCache) Invalidate(ctx context.Context) {
	if err := c.backend.Del(ctx, c.key); err != nil {
		logger.Warn("RowCache:Invalidate:Error", "error", err, "key", c.key)
	}
}
