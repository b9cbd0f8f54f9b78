package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Task lookups change as the worker advances them, so they get a short TTL.
// Results and stats are append-only and can live longer.
const (
	TaskCacheTTL   = 5 * time.Second
	ResultCacheTTL = 30 * time.Second
)

type ResultCache struct {
	client *redis.Client
}

func NewResultCache(client *redis.Client) *ResultCache {
	return &ResultCache{client: client}
}

func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

func (c *ResultCache) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, ttl).Err()
}

// Build cache key for a single task
func TaskKey(taskID int) string {
	return fmt.Sprintf("task:%d", taskID)
}

// Build cache key for the recent results listing
func ResultsKey(limit int) string {
	return fmt.Sprintf("results:recent:%d", limit)
}

// Build cache key for the genre stats
func StatsKey() string {
	return "results:stats"
}
