// internal/common/database/artifact_cache.go
package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"study-assistant-workers/internal/models"
)

// CacheResult labels where a lookup was answered.
type CacheResult string

const (
	CacheLocalHit CacheResult = "local_hit"
	CacheHit      CacheResult = "hit"
	CacheMiss     CacheResult = "miss"
)

// ArtifactCache stores normalized artifacts keyed by action and a hash of
// the raw backend payload. An in-process cache sits in front of Redis so
// repeated jobs for the same payload skip the round trip.
type ArtifactCache struct {
	redis  redis.Cmdable
	local  *gocache.Cache
	ttl    time.Duration
	prefix string
}

func NewArtifactCache(rdb redis.Cmdable, ttl, localTTL time.Duration, prefix string) *ArtifactCache {
	c := &ArtifactCache{redis: rdb, ttl: ttl, prefix: prefix}
	if localTTL > 0 {
		c.local = gocache.New(localTTL, 2*localTTL)
	}
	return c
}

// Key is <prefix>:<action>:<sha256 of the raw payload's JSON>.
func (c *ArtifactCache) Key(action string, raw interface{}) (string, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("hash payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s:%s", c.prefix, action, hex.EncodeToString(sum[:])), nil
}

// Get returns the cached artifact. A Redis error is returned with CacheMiss
// so callers can log it and normalize anyway.
func (c *ArtifactCache) Get(ctx context.Context, key string) (*models.Artifact, CacheResult, error) {
	if c.local != nil {
		if v, ok := c.local.Get(key); ok {
			a := v.(models.Artifact)
			return &a, CacheLocalHit, nil
		}
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, CacheMiss, nil
	}
	if err != nil {
		return nil, CacheMiss, fmt.Errorf("redis get: %w", err)
	}

	var a models.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, CacheMiss, fmt.Errorf("decode cached artifact: %w", err)
	}
	if c.local != nil {
		c.local.Set(key, a, gocache.DefaultExpiration)
	}
	return &a, CacheHit, nil
}

func (c *ArtifactCache) Set(ctx context.Context, key string, a models.Artifact) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if c.local != nil {
		c.local.Set(key, a, gocache.DefaultExpiration)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
