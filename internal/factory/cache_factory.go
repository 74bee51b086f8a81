package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/adapters/cache"
	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
)

const redisConnectTimeout = 5 * time.Second

// CacheFactory creates verdict caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVerdictCache creates a verdict cache based on the configuration.
// A disabled cache yields nil, which the service treats as no cache.
func (f *CacheFactory) CreateVerdictCache() (core.VerdictCache, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, err
	}
	if !cacheCfg.Enabled {
		return nil, nil
	}

	switch cacheCfg.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger, cacheCfg.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cacheCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(cacheCfg.SQLitePath, f.logger, cacheCfg.CleanupFrequency)
	case "mysql":
		return cache.NewMySQLCache(cacheCfg.MySQLDSN, f.logger, cacheCfg.CleanupFrequency)
	case "postgres":
		return cache.NewPostgresCache(cacheCfg.PostgresDSN, f.logger, cacheCfg.CleanupFrequency)
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
		defer cancel()
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Address:   cacheCfg.Redis.Address,
			Password:  cacheCfg.Redis.Password,
			DB:        cacheCfg.Redis.DB,
			KeyPrefix: cacheCfg.Redis.KeyPrefix,
		}, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}

// GetCacheTTL returns the configured cache TTL
func (f *CacheFactory) GetCacheTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.ttl")
}

// IsCacheEnabled returns whether caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}
