package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
)

// RedisMappingCache implements MappingCache using Redis. Suitable for
// multi-instance deployments where invalidations must reach every instance.
// Cache failures are logged and treated as misses; the mapping repository
// remains the source of truth.
type RedisMappingCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisMappingCache creates a Redis-backed mapping cache and verifies the
// connection
func NewRedisMappingCache(cfg RedisConfig, logger *zap.Logger) (*RedisMappingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisMappingCache{client: client, logger: logger}, nil
}

// NewRedisMappingCacheWithClient creates a cache with an existing Redis client
func NewRedisMappingCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisMappingCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisMappingCache{client: client, logger: logger}
}

// Get returns the cached result for a key, ok=false on miss
func (c *RedisMappingCache) Get(ctx context.Context, key string) (*integration.MappingResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("mapping cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var result integration.MappingResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("mapping cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, key)
		return nil, false
	}

	return &result, true
}

// Set stores a result under a key with a TTL
func (c *RedisMappingCache) Set(ctx context.Context, key string, result *integration.MappingResult, ttl time.Duration) {
	if result == nil || ttl <= 0 {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("mapping cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("mapping cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes specific keys
func (c *RedisMappingCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("mapping cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// InvalidateTenant removes every key belonging to a tenant. Uses SCAN rather
// than KEYS to avoid blocking Redis on large keyspaces.
func (c *RedisMappingCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	pattern := integration.MappingTenantKeyPrefix(tenantID) + "*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	batch := make([]string, 0, 100)
	removed := 0
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			removed += c.deleteBatch(ctx, batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		removed += c.deleteBatch(ctx, batch)
	}

	if err := iter.Err(); err != nil {
		c.logger.Warn("mapping cache tenant scan failed",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return
	}

	c.logger.Debug("invalidated tenant mapping cache",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("removed", removed))
}

func (c *RedisMappingCache) deleteBatch(ctx context.Context, keys []string) int {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("mapping cache batch delete failed", zap.Error(err))
		return 0
	}
	return len(keys)
}

// Close closes the Redis client
func (c *RedisMappingCache) Close() error {
	return c.client.Close()
}

// Ensure RedisMappingCache implements MappingCache
var _ integration.MappingCache = (*RedisMappingCache)(nil)
