package bootstrap

import (
	"context"
	"fmt"
	"time"

	"hydra/config"
	"hydra/core"
	"hydra/storage"

	"go.uber.org/zap"
)

// redisPingTimeout bounds the startup connectivity check
const redisPingTimeout = 5 * time.Second

// InitSQLite opens the report store. It returns nil when storage is disabled.
func InitSQLite(cfg *config.Config, sugar *zap.SugaredLogger) (*storage.SQLite, error) {
	if !cfg.Storage.Enabled {
		sugar.Debug("Report storage disabled")
		return nil, nil
	}

	sqlite, err := storage.NewSQLite(cfg.Storage.SQLitePath, sugar)
	if err != nil {
		sugar.Error(ClassifySQLiteError(err, cfg.Storage.SQLitePath))
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}
	sugar.Infow("Report storage ready", "path", cfg.Storage.SQLitePath)
	return sqlite, nil
}

// CacheComponents holds the report cache and the Redis client behind it, if any.
type CacheComponents struct {
	Cache storage.ReportCache
	Redis *core.RedisCache
}

// Close releases the Redis connection pool.
func (c *CacheComponents) Close() error {
	if c == nil || c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}

// InitReportCache builds the in-process LRU and, when configured, a Redis tier
// behind it. Redis must answer a ping at startup.
func InitReportCache(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (*CacheComponents, error) {
	if cfg.Cache.Size == 0 && !cfg.Cache.Redis.Enabled {
		sugar.Debug("Report cache disabled")
		return &CacheComponents{}, nil
	}

	var tiers storage.TieredReportCache
	if cfg.Cache.Size > 0 {
		tiers = append(tiers, storage.NewLRUReportCache(cfg.Cache.Size, cfg.Cache.TTL))
	}

	components := &CacheComponents{}
	if cfg.Cache.Redis.Enabled {
		redis := core.NewRedisCache(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password,
			cfg.Cache.Redis.DB, cfg.Cache.Redis.PoolSize, sugar)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := redis.Ping(pingCtx); err != nil {
			_ = redis.Close()
			sugar.Error(ClassifyConnectionError(err, "Redis", cfg.Cache.Redis.Addr))
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Cache.Redis.Addr, err)
		}
		components.Redis = redis
		tiers = append(tiers, storage.NewRedisReportCache(redis, cfg.Cache.TTL, sugar))
		sugar.Infow("Connected to Redis", "addr", cfg.Cache.Redis.Addr)
	}

	components.Cache = tiers
	return components, nil
}
