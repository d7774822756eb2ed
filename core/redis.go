package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hydra/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// maxCacheValueSize caps a single cached value (10MB)
const maxCacheValueSize = 10 * 1024 * 1024

var (
	// ErrValueTooLarge is returned when an encoded value exceeds the size cap
	ErrValueTooLarge = errors.New("cache value too large")
	// ErrValueEncoding is returned when a value cannot be encoded or a stored
	// value cannot be decoded
	ErrValueEncoding = errors.New("cache value encoding failed")
)

// RedisCache provides a Redis-based cache for discovery reports
type RedisCache struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(addr, password string, db, poolSize int, logger *zap.SugaredLogger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	return &RedisCache{
		client: client,
		logger: logger,
	}
}

// Ping tests the Redis connection
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Set stores a JSON-encoded value with expiration
func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		rc.logger.Errorf("Failed to marshal cache value for key %s: %v", key, err)
		metrics.CacheErrors.WithLabelValues("redis", "marshal").Inc()
		return fmt.Errorf("%w: %v", ErrValueEncoding, err)
	}

	if len(data) > maxCacheValueSize {
		rc.logger.Warnf("Cache value for key %s exceeds size limit (%d bytes > %d bytes), rejecting", key, len(data), maxCacheValueSize)
		metrics.CacheErrors.WithLabelValues("redis", "size_limit").Inc()
		return fmt.Errorf("%w: %d bytes exceeds maximum allowed size %d bytes", ErrValueTooLarge, len(data), maxCacheValueSize)
	}

	if err := rc.client.Set(ctx, key, data, expiration).Err(); err != nil {
		metrics.CacheErrors.WithLabelValues("redis", "set").Inc()
		return err
	}
	return nil
}

// Get decodes the value stored under key into dest. The boolean is false
// when the key does not exist.
func (rc *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := rc.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheMisses.WithLabelValues("redis").Inc()
			return false, nil
		}
		rc.logger.Errorf("Failed to get cache value for key %s: %v", key, err)
		metrics.CacheErrors.WithLabelValues("redis", "get").Inc()
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		rc.logger.Errorf("Failed to unmarshal cache value for key %s: %v", key, err)
		metrics.CacheErrors.WithLabelValues("redis", "unmarshal").Inc()
		return false, fmt.Errorf("%w: %v", ErrValueEncoding, err)
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true, nil
}

// CacheKeyReportPrefix prefixes report cache keys
const CacheKeyReportPrefix = "hydra:report:"

// GetReportCacheKey generates a cache key for the report of a log. Every
// setting that changes the report is part of the key.
func GetReportCacheKey(fingerprint string, minEdgeFrequency int, continueOnError bool) string {
	key := fmt.Sprintf("%s%s:e%d", CacheKeyReportPrefix, fingerprint, minEdgeFrequency)
	if continueOnError {
		key += ":continue"
	}
	return key
}
