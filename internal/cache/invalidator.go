package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Invalidator removes cache entries matching wildcard patterns. Invalidation
// is best-effort write-through: the document store stays the source of truth,
// so a missed invalidation yields at most one stale read cycle.
type Invalidator interface {
	Invalidate(ctx context.Context, patterns ...string)
}

// RedisInvalidator sweeps a redis keyspace with SCAN + DEL per pattern.
type RedisInvalidator struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisInvalidator creates an Invalidator backed by the given client.
func NewRedisInvalidator(rdb *redis.Client, logger *zap.Logger) *RedisInvalidator {
	return &RedisInvalidator{rdb: rdb, logger: logger}
}

// Invalidate deletes every key matching any of the patterns. Errors are
// logged, never returned: callers invalidate after their write committed and
// must not fail the mutation over a cache miss.
func (c *RedisInvalidator) Invalidate(ctx context.Context, patterns ...string) {
	for _, pattern := range patterns {
		if err := c.deleteByPattern(ctx, pattern); err != nil {
			c.logger.Warn("Cache invalidation failed",
				zap.String("pattern", pattern),
				zap.Error(err),
			)
		}
	}
}

func (c *RedisInvalidator) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("del %d keys for %q: %w", len(keys), pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// NewClient builds a redis client from address/password/db.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
