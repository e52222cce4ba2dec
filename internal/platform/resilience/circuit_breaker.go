package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig controls the store breaker. HalfOpenTrials is both the
// number of concurrent trial requests allowed after OpenTimeout and the number of
// successes needed to close again.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenTrials   int
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 15 * time.Second
	}
	if c.HalfOpenTrials < 1 {
		c.HalfOpenTrials = 2
	}
	return c
}

// CircuitBreaker fails store calls fast while the database is unreachable.
// A disabled breaker always allows.
type CircuitBreaker struct {
	cfg   CircuitBreakerConfig
	clock clockwork.Clock

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	inFlight int
	passed   int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig, clock clockwork.Clock) *CircuitBreaker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CircuitBreaker{cfg: cfg.withDefaults(), clock: clock, state: CircuitStateClosed}
}

// Execute runs fn behind the breaker. Only errors isFailure accepts count
// against it; a nil isFailure counts every error.
func (b *CircuitBreaker) Execute(ctx context.Context, isFailure func(error) bool, fn func(context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn(ctx)
	if err != nil && (isFailure == nil || isFailure(err)) {
		b.RecordFailure()
	} else {
		b.RecordSuccess()
	}
	return err
}

func (b *CircuitBreaker) Allow() error {
	if !b.cfg.Enabled {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cooling() {
		return ErrCircuitOpen
	}
	if b.state == CircuitStateOpen {
		b.reset(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.inFlight >= b.cfg.HalfOpenTrials {
			return ErrCircuitOpen
		}
		b.inFlight++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	if !b.cfg.Enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != CircuitStateHalfOpen {
		b.failures = 0
		return
	}
	b.inFlight = max(b.inFlight-1, 0)
	b.passed++
	if b.passed >= b.cfg.HalfOpenTrials && b.inFlight == 0 {
		b.reset(CircuitStateClosed)
	}
}

func (b *CircuitBreaker) RecordFailure() {
	if !b.cfg.Enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateClosed {
		b.failures++
		if b.failures < b.cfg.FailureThreshold {
			return
		}
	}
	b.reset(CircuitStateOpen)
	b.openedAt = b.clock.Now()
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && !b.cooling() {
		return CircuitStateHalfOpen
	}
	return b.state
}

// cooling reports an open breaker still inside its timeout. Callers hold mu.
func (b *CircuitBreaker) cooling() bool {
	return b.state == CircuitStateOpen && b.clock.Since(b.openedAt) < b.cfg.OpenTimeout
}

func (b *CircuitBreaker) reset(to CircuitState) {
	b.state = to
	b.failures = 0
	b.inFlight = 0
	b.passed = 0
}
