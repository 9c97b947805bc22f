// Package cache holds rendered read models, currently course trees, in memory
// or in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursedelivery/config"
	"coursedelivery/logger"

	"golang.org/x/sync/singleflight"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// CourseTreeKey is where the presentation tree of a course is stored.
func CourseTreeKey(courseID uint) string {
	return fmt.Sprintf("course:%d:tree", courseID)
}

// New builds the configured cache. A redis driver that cannot be reached
// falls back to memory.
func New(cfg *config.Config, log *logger.Logger) Cache {
	if cfg.CacheDriver == "redis" {
		rc, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err == nil {
			return rc
		}
		log.Warn("Redis cache unavailable, using memory cache", "addr", cfg.RedisAddr, "error", err)
	}
	return NewMemoryCache()
}

var group singleflight.Group

// Fetch reads key as JSON, or calls load once for all concurrent callers and
// stores the result. Cache errors are ignored and fall through to load. The
// shared load runs detached from the first caller's cancellation, since its
// result is handed to every waiter.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if raw, ok, err := c.Get(ctx, key); err == nil && ok {
		var v T
		if json.Unmarshal(raw, &v) == nil {
			return v, nil
		}
	}

	res, err, _ := group.Do(key, func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)
		v, err := load(shared)
		if err != nil {
			return v, err
		}
		if raw, err := json.Marshal(v); err == nil {
			_ = c.Set(shared, key, raw, ttl)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
