package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"brokerdesk/pkg/platform/sentinel"
)

var cacheReadDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "brokerdesk_lookup_cache_read_duration_ms",
	Help:    "Latency of lookup cache reads in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
}, []string{"result"})

const lookupKeyPrefix = "lookup:"

// RedisCache stores encoded lookup results with a TTL.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	raw, err := c.client.Get(ctx, lookupKeyPrefix+key).Bytes()
	result := "hit"
	defer func() {
		cacheReadDurationMs.WithLabelValues(result).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()
	if errors.Is(err, redis.Nil) {
		result = "miss"
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		result = "error"
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, lookupKeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
