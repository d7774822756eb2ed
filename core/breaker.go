package core

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// BreakerState is the state of a Breaker
type BreakerState string

const (
	// BreakerClosed lets calls through
	BreakerClosed BreakerState = "closed"
	// BreakerOpen rejects calls until the cool-down elapses
	BreakerOpen BreakerState = "open"
	// BreakerHalfOpen lets a limited number of probe calls through
	BreakerHalfOpen BreakerState = "half_open"
)

var (
	// ErrBreakerOpen is returned while the breaker rejects calls
	ErrBreakerOpen = errors.New("breaker is open")
	// ErrInvalidBreakerConfig is returned for an unusable BreakerConfig
	ErrInvalidBreakerConfig = errors.New("invalid breaker configuration")
)

// BreakerConfig configures a Breaker
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures uint32
	// CoolDown is how long the breaker stays open before probing
	CoolDown time.Duration
	// MaxProbes bounds concurrent calls while half-open
	MaxProbes uint32
}

// Validate checks the configuration
func (c BreakerConfig) Validate() error {
	switch {
	case c.MaxFailures == 0:
		return fmt.Errorf("%w: MaxFailures must be greater than 0", ErrInvalidBreakerConfig)
	case c.CoolDown <= 0:
		return fmt.Errorf("%w: CoolDown must be greater than 0", ErrInvalidBreakerConfig)
	case c.MaxProbes == 0:
		return fmt.Errorf("%w: MaxProbes must be greater than 0", ErrInvalidBreakerConfig)
	}
	return nil
}

// DefaultBreakerConfig is used for optional backends such as the Redis
// report cache
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: 5,
		CoolDown:    30 * time.Second,
		MaxProbes:   1,
	}
}

// Breaker stops calling a backend after repeated failures. Callers ask Allow
// before each call and report the outcome with Done.
type Breaker struct {
	config   BreakerConfig
	mu       sync.Mutex
	state    BreakerState
	failures uint32
	openedAt time.Time
	probes   uint32
	now      func() time.Time
}

// NewBreaker creates a closed breaker
func NewBreaker(config BreakerConfig) (*Breaker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Breaker{config: config, state: BreakerClosed, now: time.Now}, nil
}

// Allow returns ErrBreakerOpen when the call must be skipped
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.config.CoolDown {
			return ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
		b.probes = 1
		return nil
	case BreakerHalfOpen:
		if b.probes >= b.config.MaxProbes {
			return ErrBreakerOpen
		}
		b.probes++
	}
	return nil
}

// Done records the outcome of an allowed call and returns the state before
// and after it.
func (b *Breaker) Done(err error) (from, to BreakerState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from = b.state
	if err == nil {
		b.state = BreakerClosed
		b.failures = 0
		b.probes = 0
		return from, b.state
	}

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.config.MaxFailures {
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.probes = 0
	}
	return from, b.state
}

// State returns the current state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Release gives back an allowed call whose outcome says nothing about the
// backend's health. The state is left unchanged.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerHalfOpen && b.probes > 0 {
		b.probes--
	}
}
