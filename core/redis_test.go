package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	cache := NewRedisCache(mr.Addr(), "", 0, 10, zaptest.NewLogger(t).Sugar())
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	report := NewReport()
	report.TotalCount = 3
	report.Results = append(report.Results, TypeResult{ObjectType: "order", RelationCount: 2})

	require.NoError(t, cache.Set(ctx, "k", report, time.Minute))

	var got Report
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, report.RunID, got.RunID)
	assert.Equal(t, 3, got.TotalCount)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "order", got.Results[0].ObjectType)
}

func TestRedisCache_Get_NotFound(t *testing.T) {
	cache, _ := newTestRedisCache(t)

	var got Report
	found, err := cache.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Expiration(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1, time.Second))
	mr.FastForward(2 * time.Second)

	var got int
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_ValueErrors(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	err := cache.Set(ctx, "big", strings.Repeat("x", maxCacheValueSize), time.Minute)
	assert.ErrorIs(t, err, ErrValueTooLarge)
	assert.False(t, mr.Exists("big"))

	err = cache.Set(ctx, "chan", make(chan int), time.Minute)
	assert.ErrorIs(t, err, ErrValueEncoding)

	require.NoError(t, mr.Set("garbage", "not json"))
	var got Report
	found, err := cache.Get(ctx, "garbage", &got)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrValueEncoding)
}

func TestGetReportCacheKey(t *testing.T) {
	assert.Equal(t, "hydra:report:abc:e1", GetReportCacheKey("abc", 1, false))
	assert.Equal(t, "hydra:report:abc:e1:continue", GetReportCacheKey("abc", 1, true))
	assert.NotEqual(t, GetReportCacheKey("abc", 1, false), GetReportCacheKey("abc", 2, false),
		"reports built with another edge threshold are different entries")
}
