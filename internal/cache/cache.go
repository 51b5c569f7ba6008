// Package cache is the memoizing layer callers wrap around the pure
// analytics functions. Results are stored as JSON in Redis, keyed by user,
// period and a truncated "now" bucket so repeated lookups within the bucket
// reuse the computed value.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultBucket bounds how stale a memoized result can be.
const DefaultBucket = 5 * time.Minute

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(redisAddr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Key builds the memoization key for one analytics kind. `now` is truncated
// to DefaultBucket so all calls within a bucket share the entry.
func Key(kind, userID string, days int, now time.Time) string {
	bucket := now.UTC().Truncate(DefaultBucket)
	return fmt.Sprintf("analytics:%s:%s:%d:%d", kind, userID, days, bucket.Unix())
}

// Get unmarshals the cached entry into v. The first return is false on a
// miss.
func (c *Cache) Get(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
