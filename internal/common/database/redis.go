// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"study-assistant-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the connection used by the artifact cache.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     20,
	})

	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// ArtifactCache returns the cache configured by cfg, or nil when caching
// is disabled.
func (c *RedisClient) ArtifactCache(cfg config.CacheConfig) *ArtifactCache {
	if !cfg.Enabled {
		return nil
	}
	return NewArtifactCache(c.Client,
		time.Duration(cfg.TTL)*time.Second,
		time.Duration(cfg.LocalTTL)*time.Second,
		cfg.KeyPrefix,
	)
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
