package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/config"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MappingCacheFactory creates mapping caches based on configuration
type MappingCacheFactory struct {
	cacheConfig config.CacheConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// NewMappingCacheFactory creates a new factory
func NewMappingCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, logger *zap.Logger) *MappingCacheFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MappingCacheFactory{
		cacheConfig: cacheCfg,
		redisConfig: redisCfg,
		logger:      logger,
	}
}

// CreateCache creates a mapping cache for the configured backend. The
// "memory" backend never fails; the "redis" backend requires a reachable
// server
func (f *MappingCacheFactory) CreateCache() (integration.MappingCache, error) {
	switch f.cacheConfig.Backend {
	case "redis":
		cache, err := NewRedisMappingCache(RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis mapping cache: %w", err)
		}
		f.logger.Info("using Redis mapping cache")
		return cache, nil
	case "memory", "":
		f.logger.Info("using in-memory mapping cache")
		return NewInMemoryMappingCache(f.logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}
}
