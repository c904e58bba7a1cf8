package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when a key is absent or caching is disabled
var ErrCacheMiss = errors.New("cache miss")

// ReportCache caches finished reports keyed by transcript hash. A nil client
// means Redis is not configured; every operation then degrades to a miss.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewReportCache connects to Redis. An empty URL or an unreachable server
// yields a disabled cache rather than an error; caching is best-effort.
func NewReportCache(ctx context.Context, url string, ttl time.Duration) *ReportCache {
	if url == "" {
		log.Println("Warning: REDIS_URL not set, running without report cache")
		return &ReportCache{ttl: ttl}
	}

	rdb := redis.NewClient(&redis.Options{Addr: url})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: Redis unreachable, running without report cache: %v", err)
		return &ReportCache{ttl: ttl}
	}

	log.Println("Redis report cache connected")
	return &ReportCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached JSON payload for a key
func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.rdb == nil {
		return nil, ErrCacheMiss
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

// Set stores a JSON payload under a key with the configured TTL
func (c *ReportCache) Set(ctx context.Context, key string, value []byte) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, key, value, c.ttl).Err()
}

// Close releases the underlying connection
func (c *ReportCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
