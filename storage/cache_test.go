package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"hydra/core"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLRUReportCache(t *testing.T) {
	ctx := context.Background()
	c := NewLRUReportCache(2, 0)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	ra, rb, rc := core.NewReport(), core.NewReport(), core.NewReport()
	c.Set(ctx, "a", ra)
	c.Set(ctx, "b", rb)

	got, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Same(t, ra, got)

	// "b" is least recently used
	c.Set(ctx, "c", rc)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestLRUReportCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewLRUReportCache(4, 20*time.Millisecond)

	c.Set(ctx, "a", core.NewReport())
	_, ok := c.Get(ctx, "a")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func newTestRedisReportCache(t *testing.T) (*RedisReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	logger := zaptest.NewLogger(t).Sugar()
	redis := core.NewRedisCache(mr.Addr(), "", 0, 5, logger)
	t.Cleanup(func() { _ = redis.Close() })
	return NewRedisReportCache(redis, time.Minute, logger), mr
}

func TestRedisReportCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisReportCache(t)

	report := core.NewReport()
	report.TotalCount = 7
	report.Results = []core.TypeResult{{ObjectType: "order", RelationCount: 7, Model: map[string]interface{}{"k": "v"}}}
	c.Set(ctx, "hydra:report:abc", report)

	got, ok := c.Get(ctx, "hydra:report:abc")
	require.True(t, ok)
	assert.Equal(t, report.RunID, got.RunID)
	assert.Equal(t, map[string]int{"order": 7}, got.Counts())
	assert.Equal(t, map[string]interface{}{"k": "v"}, got.Results[0].Model)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "hydra:report:abc")
	assert.False(t, ok)
}

func TestRedisReportCache_BackendDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisReportCache(t)
	mr.Close()

	c.Set(ctx, "k", core.NewReport())
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok, "backend errors read as misses")
}

func TestRedisReportCache_BreakerOpens(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisReportCache(t)
	mr.Close()

	for i := 0; i < int(core.DefaultBreakerConfig().MaxFailures); i++ {
		_, ok := c.Get(ctx, "k")
		require.False(t, ok)
	}
	assert.Equal(t, core.BreakerOpen, c.BreakerState())

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok, "open breaker reads as a miss")
}

func TestRedisReportCache_OversizeReportsKeepBreakerClosed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisReportCache(t)

	big := core.NewReport()
	big.Results = []core.TypeResult{{ObjectType: "order", Model: strings.Repeat("x", 11*1024*1024)}}
	for i := 0; i <= int(core.DefaultBreakerConfig().MaxFailures); i++ {
		c.Set(ctx, "big", big)
	}
	assert.Equal(t, core.BreakerClosed, c.BreakerState())

	small := core.NewReport()
	c.Set(ctx, "small", small)
	got, ok := c.Get(ctx, "small")
	require.True(t, ok, "a healthy Redis keeps serving")
	assert.Equal(t, small.RunID, got.RunID)
}

func TestNewRedisReportCache_NilPanics(t *testing.T) {
	assert.PanicsWithValue(t, "redis cache is required", func() {
		NewRedisReportCache(nil, time.Minute, nil)
	})
}

func TestTieredReportCache_BackFills(t *testing.T) {
	ctx := context.Background()
	fast := NewLRUReportCache(4, 0)
	slow := NewLRUReportCache(4, 0)
	tiers := TieredReportCache{fast, slow}

	report := core.NewReport()
	slow.Set(ctx, "k", report)

	got, ok := tiers.Get(ctx, "k")
	require.True(t, ok)
	assert.Same(t, report, got)

	got, ok = fast.Get(ctx, "k")
	require.True(t, ok, "hit in a slower tier is copied to faster tiers")
	assert.Same(t, report, got)

	tiers.Set(ctx, "n", core.NewReport())
	assert.Equal(t, 2, fast.Len())
	assert.Equal(t, 2, slow.Len())

	_, ok = tiers.Get(ctx, "missing")
	assert.False(t, ok)
}
