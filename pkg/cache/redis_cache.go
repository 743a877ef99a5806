// Package cache provides a small Redis-backed TTL cache, used by the
// collector to remember which article links have already had a detail
// fetch attempted (§4.2).
package cache

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a minimal get/set/exists TTL cache.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Exists reports whether key is present, for "have I seen this URL
// fingerprint before" checks.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// SetSeen marks key as seen for ttl.
func (c *RedisCache) SetSeen(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Set(ctx, key, "1", ttl).Err()
}

// GetJSON reads a JSON-encoded value; ok is false on cache miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value JSON-encoded with the given ttl.
func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Close releases the underlying connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
