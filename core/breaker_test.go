package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(t *testing.T, clock *time.Time) *Breaker {
	t.Helper()
	b, err := NewBreaker(BreakerConfig{MaxFailures: 2, CoolDown: time.Minute, MaxProbes: 1})
	require.NoError(t, err)
	b.now = func() time.Time { return *clock }
	return b
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	clock := time.Unix(0, 0)
	b := newTestBreaker(t, &clock)
	boom := errors.New("boom")

	require.NoError(t, b.Allow())
	b.Done(boom)
	require.NoError(t, b.Allow())
	b.Done(nil)
	assert.Equal(t, BreakerClosed, b.State(), "a success resets the failure count")

	b.Done(boom)
	from, to := b.Done(boom)
	assert.Equal(t, BreakerClosed, from)
	assert.Equal(t, BreakerOpen, to)
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	clock := time.Unix(0, 0)
	b := newTestBreaker(t, &clock)
	boom := errors.New("boom")
	b.Done(boom)
	b.Done(boom)

	clock = clock.Add(2 * time.Minute)
	require.NoError(t, b.Allow())
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen, "only one probe while half-open")

	_, to := b.Done(boom)
	assert.Equal(t, BreakerOpen, to, "a failed probe reopens")

	clock = clock.Add(2 * time.Minute)
	require.NoError(t, b.Allow())
	_, to = b.Done(nil)
	assert.Equal(t, BreakerClosed, to)
	assert.NoError(t, b.Allow())
}

func TestBreaker_ReleaseFreesProbe(t *testing.T) {
	clock := time.Unix(0, 0)
	b := newTestBreaker(t, &clock)
	b.Done(errors.New("a"))
	b.Done(errors.New("b"))
	clock = clock.Add(2 * time.Minute)

	require.NoError(t, b.Allow())
	b.Release()
	assert.Equal(t, BreakerHalfOpen, b.State(), "release keeps the state")
	require.NoError(t, b.Allow(), "the released probe slot is free again")
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}

func TestBreaker_ReleaseWhileClosed(t *testing.T) {
	clock := time.Unix(0, 0)
	b := newTestBreaker(t, &clock)

	b.Done(errors.New("a"))
	require.NoError(t, b.Allow())
	b.Release()
	_, to := b.Done(errors.New("b"))
	assert.Equal(t, BreakerOpen, to, "release neither resets nor adds failures")
}

func TestNewBreaker_InvalidConfig(t *testing.T) {
	tests := []BreakerConfig{
		{MaxFailures: 0, CoolDown: time.Second, MaxProbes: 1},
		{MaxFailures: 1, CoolDown: 0, MaxProbes: 1},
		{MaxFailures: 1, CoolDown: time.Second, MaxProbes: 0},
	}
	for _, cfg := range tests {
		_, err := NewBreaker(cfg)
		assert.ErrorIs(t, err, ErrInvalidBreakerConfig)
	}
	assert.NoError(t, DefaultBreakerConfig().Validate())
}
