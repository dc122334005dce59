package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stacks-wrapped/internal/wrapped"
)

// WrappedResultCache memoizes computed results in Redis for a short TTL,
// keyed by address and year. A cache miss or any Redis failure is reported
// to the caller, which treats both as "recompute".
type WrappedResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWrappedResultCache creates a result cache on top of an established
// Redis connection.
func NewWrappedResultCache(cache *RedisCache, ttl time.Duration) *WrappedResultCache {
	return &WrappedResultCache{client: cache.Client(), ttl: ttl}
}

func cacheKey(address string, year int) string {
	return fmt.Sprintf("wrapped:%s:%d", address, year)
}

// Get returns the cached result for the address and year, reporting a miss
// without error when the key is absent.
func (c *WrappedResultCache) Get(ctx context.Context, address string, year int) (*wrapped.WrappedResult, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(address, year)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var result wrapped.WrappedResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Corrupt entry; treat as a miss so it gets overwritten.
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &result, true, nil
}

// Set stores the result under its address/year key with the configured TTL.
func (c *WrappedResultCache) Set(ctx context.Context, result *wrapped.WrappedResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(result.Address, result.Year), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
