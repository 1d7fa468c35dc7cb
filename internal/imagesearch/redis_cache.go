package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sromero1905/scrapping-link/internal/domain"
)

const redisKeyPrefix = "images:"

// RedisCache shares provider responses between processes.
// Redis failures degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Get decodes a cached entry.
func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.ImageCandidate, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("redis get failed", "key", key, "error", err)
		}
		return nil, false
	}

	var candidates []domain.ImageCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		c.warn("redis entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	return candidates, true
}

// Set stores candidates with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, candidates []domain.ImageCandidate, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	raw, err := json.Marshal(candidates)
	if err != nil {
		c.warn("encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		c.warn("redis set failed", "key", key, "error", err)
	}
}

func (c *RedisCache) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
