package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
)

// RedisOptions configures the redis connection
type RedisOptions struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// redisRecord is the value stored under each fingerprint key
type redisRecord struct {
	Verdict  core.Verdict `json:"verdict"`
	CachedAt time.Time    `json:"cached_at"`
}

// RedisCache is a redis implementation of the VerdictCache interface.
// Expiry is delegated to redis key TTLs.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisCache connects to redis and verifies the connection
func NewRedisCache(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisCacheFromClient(client, opts.KeyPrefix, logger), nil
}

// NewRedisCacheFromClient wraps an existing redis client
func NewRedisCacheFromClient(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (c *RedisCache) key(fingerprint string) string {
	return c.keyPrefix + fingerprint
}

// Get retrieves a cached verdict for a message fingerprint
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	key := c.key(fingerprint)
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	var record redisRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode verdict: %w", err)
	}

	entry := &core.CacheEntry{
		Fingerprint: fingerprint,
		Verdict:     record.Verdict,
		CachedAt:    record.CachedAt,
	}
	if ttl, err := c.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	return entry, nil
}

// Set stores a cache entry with a TTL derived from its expiry
func (c *RedisCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(redisRecord{Verdict: entry.Verdict, CachedAt: entry.CachedAt})
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}
	if err := c.client.Set(ctx, c.key(entry.Fingerprint), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *RedisCache) Delete(ctx context.Context, fingerprint string) error {
	if err := c.client.Del(ctx, c.key(fingerprint)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup is a no-op: redis evicts expired keys itself
func (c *RedisCache) Cleanup(context.Context) error {
	return nil
}

// Stop closes the redis connection
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close redis connection", zap.Error(err))
	}
}
