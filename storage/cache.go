package storage

import (
	"context"
	"errors"
	"time"

	"hydra/core"
	"hydra/metrics"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// ReportCache caches reports by key. Lookups never fail: a backend error is
// logged and treated as a miss.
type ReportCache interface {
	Get(ctx context.Context, key string) (*core.Report, bool)
	Set(ctx context.Context, key string, report *core.Report)
}

// LRUReportCache is an in-process cache with a bounded size and per-entry TTL
type LRUReportCache struct {
	cache *expirable.LRU[string, *core.Report]
}

// NewLRUReportCache creates an LRU cache. A non-positive ttl disables expiry.
func NewLRUReportCache(size int, ttl time.Duration) *LRUReportCache {
	if size <= 0 {
		size = 128
	}
	if ttl < 0 {
		ttl = 0
	}
	return &LRUReportCache{cache: expirable.NewLRU[string, *core.Report](size, nil, ttl)}
}

// Get returns the cached report for key
func (c *LRUReportCache) Get(_ context.Context, key string) (*core.Report, bool) {
	report, ok := c.cache.Get(key)
	if ok {
		metrics.CacheHits.WithLabelValues("lru").Inc()
	} else {
		metrics.CacheMisses.WithLabelValues("lru").Inc()
	}
	return report, ok
}

// Set stores a report under key
func (c *LRUReportCache) Set(_ context.Context, key string, report *core.Report) {
	c.cache.Add(key, report)
}

// Len returns the number of cached reports
func (c *LRUReportCache) Len() int {
	return c.cache.Len()
}

// RedisReportCache stores reports as JSON in Redis. After repeated backend
// errors a breaker skips Redis for a cool-down period.
type RedisReportCache struct {
	redis   *core.RedisCache
	ttl     time.Duration
	breaker *core.Breaker
	logger  *zap.SugaredLogger
}

// NewRedisReportCache wraps a Redis cache
func NewRedisReportCache(redis *core.RedisCache, ttl time.Duration, logger *zap.SugaredLogger) *RedisReportCache {
	if redis == nil {
		panic("redis cache is required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	breaker, err := core.NewBreaker(core.DefaultBreakerConfig())
	if err != nil {
		panic(err)
	}
	return &RedisReportCache{redis: redis, ttl: ttl, breaker: breaker, logger: logger}
}

// call runs op unless the breaker is open
func (c *RedisReportCache) call(op, key string, fn func() error) error {
	if err := c.breaker.Allow(); err != nil {
		metrics.CacheErrors.WithLabelValues("redis", "breaker_open").Inc()
		return err
	}
	err := fn()
	if errors.Is(err, core.ErrValueTooLarge) || errors.Is(err, core.ErrValueEncoding) {
		// the value was bad, not the backend
		c.breaker.Release()
	} else if from, to := c.breaker.Done(err); from != to {
		c.logger.Warnw("Redis cache breaker changed state", "from", from, "to", to, "op", op)
	}
	if err != nil {
		c.logger.Warnw("Redis report "+op+" failed", "key", key, "error", err)
	}
	return err
}

// Get returns the cached report for key
func (c *RedisReportCache) Get(ctx context.Context, key string) (*core.Report, bool) {
	var report core.Report
	var found bool
	err := c.call("lookup", key, func() (err error) {
		found, err = c.redis.Get(ctx, key, &report)
		return err
	})
	if err != nil {
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &report, true
}

// Set stores a report under key
func (c *RedisReportCache) Set(ctx context.Context, key string, report *core.Report) {
	_ = c.call("store", key, func() error {
		return c.redis.Set(ctx, key, report, c.ttl)
	})
}

// BreakerState reports whether Redis is currently being skipped
func (c *RedisReportCache) BreakerState() core.BreakerState {
	return c.breaker.State()
}

// TieredReportCache checks each cache in order and back-fills the faster
// tiers on a hit
type TieredReportCache []ReportCache

// Get returns the first hit
func (t TieredReportCache) Get(ctx context.Context, key string) (*core.Report, bool) {
	for i, c := range t {
		if report, ok := c.Get(ctx, key); ok {
			for _, faster := range t[:i] {
				faster.Set(ctx, key, report)
			}
			return report, true
		}
	}
	return nil, false
}

// Set stores the report in every tier
func (t TieredReportCache) Set(ctx context.Context, key string, report *core.Report) {
	for _, c := range t {
		c.Set(ctx, key, report)
	}
}
