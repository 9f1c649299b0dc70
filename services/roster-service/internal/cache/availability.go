// Package cache memoizes the month-availability aggregate in Redis.
//
// Keys carry a generation counter instead of being deleted individually: a
// vacation write can shift availability in any month its range touches, so
// invalidation bumps the generation and every cached month goes stale at
// once. Stale generations expire via TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

const genKey = "availability:gen"

// GetMonth returns the cached serialized response for a month, or ok=false
// on miss or any Redis error (the caller recomputes either way).
func (c *AvailabilityCache) GetMonth(ctx context.Context, month string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	key, err := c.monthKey(ctx, month)
	if err != nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

// SetMonth stores the serialized response. Callers must not invoke it with
// a cancelled context: a request abandoned mid-computation would otherwise
// commit results for a selection the user already left.
func (c *AvailabilityCache) SetMonth(ctx context.Context, month string, payload []byte) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := c.monthKey(ctx, month)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate bumps the generation, orphaning every cached month.
func (c *AvailabilityCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Incr(ctx, genKey).Err()
}

func (c *AvailabilityCache) monthKey(ctx context.Context, month string) (string, error) {
	gen, err := c.rdb.Get(ctx, genKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("availability:%d:%s", gen, month), nil
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
