package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
	SetAnalysisStatus(ctx context.Context, analysisID, status string, ttl time.Duration) error
	GetAnalysisStatus(ctx context.Context, analysisID string) (string, bool, error)
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// SetAnalysisStatus mirrors an analysis status with a TTL so an edge layer
// can answer cheap polls without touching the engine.
func (c *RedisCache) SetAnalysisStatus(ctx context.Context, analysisID, status string, ttl time.Duration) error {
	return c.client.Set(ctx, AnalysisStatusKey(analysisID), status, ttl).Err()
}

func (c *RedisCache) GetAnalysisStatus(ctx context.Context, analysisID string) (string, bool, error) {
	val, err := c.client.Get(ctx, AnalysisStatusKey(analysisID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
