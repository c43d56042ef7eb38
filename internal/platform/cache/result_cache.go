// Package cache provides a Redis-backed cache for identification results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"plantid_backend/internal/feature/identification/domain/entity"
	"plantid_backend/internal/feature/identification/usecase"
	"plantid_backend/internal/platform/metrics"
)

var _ usecase.ResultCache = (*ResultCache)(nil)

// ResultCache stores normalized PlantDetails keyed by image digest.
// A nil Redis client turns every lookup into a miss and every store into a no-op.
type ResultCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewResultCache returns a ResultCache. If ttl is 0, it defaults to 1 hour.
// If namespace is empty, it uses "plantid".
func NewResultCache(rdb *redis.Client, ttl time.Duration, namespace string) *ResultCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if namespace == "" {
		namespace = "plantid"
	}
	return &ResultCache{rdb: rdb, ttl: ttl, namespace: namespace}
}

// Get returns the cached details for key, or nil on a miss.
func (c *ResultCache) Get(ctx context.Context, key string) (*entity.PlantDetails, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return nil, nil
	}

	k := c.cacheKey(key)
	b, err := c.rdb.Get(ctx, k).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, nil
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("cache get %s: %w", k, err)
	}

	var out entity.PlantDetails
	if err := json.Unmarshal(b, &out); err != nil || !out.Complete() {
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, k).Err()
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return &out, nil
}

// Set stores details under key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, details entity.PlantDetails) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, c.cacheKey(key), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// cacheKey generates the Redis key for an image digest.
func (c *ResultCache) cacheKey(key string) string {
	return fmt.Sprintf("%s:result:%s", c.namespace, safe(key))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
