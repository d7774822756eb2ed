package goroutine

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecover_LogsPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core).Sugar()

	func() {
		defer Recover("worker", logger)
		panic("boom")
	}()

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Goroutine panic recovered", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "worker", fields["goroutine"])
	assert.Equal(t, "boom", fields["panic"])
	assert.Contains(t, fields["stack"], "goroutine")
}

func TestRecover_NoPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	func() {
		defer Recover("worker", zap.New(core).Sugar())
	}()
	assert.Zero(t, logs.Len())
}

func TestRecover_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		defer Recover("worker", nil)
		panic("no logger")
	})
}

func TestGo(t *testing.T) {
	AssertNoLeaks(t, time.Second)
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core).Sugar()

	var wg sync.WaitGroup
	ran := make(chan struct{}, 1)
	Go(&wg, "ok", logger, func() { ran <- struct{}{} })
	Go(&wg, "panics", logger, func() { panic("boom") })
	wg.Wait()

	assert.Len(t, ran, 1)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panics", logs.All()[0].ContextMap()["goroutine"])
}

func TestWaitForGoroutineCount(t *testing.T) {
	stop := make(chan struct{})
	before := runtime.NumGoroutine()
	go func() { <-stop }()

	assert.False(t, WaitForGoroutineCount(before, 20*time.Millisecond, 5*time.Millisecond))
	close(stop)
	assert.True(t, WaitForGoroutineCount(before, time.Second, 5*time.Millisecond))
}
