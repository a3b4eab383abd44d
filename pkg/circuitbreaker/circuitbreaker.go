package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState is the current circuit breaker state.
type CircuitState int

const (
	Closed CircuitState = iota
	Open
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls and opens the circuit after repeated failures.
type CircuitBreaker interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	State() CircuitState
	Metrics() Metrics
	Reset()
}

type Config struct {
	Name             string
	FailureThreshold int           // consecutive failures before opening
	RecoveryTimeout  time.Duration // wait before probing in HalfOpen
	SuccessThreshold int           // HalfOpen successes needed to close
	// IsFailure decides which errors count against the circuit. Context
	// cancellation by the caller never does.
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to CircuitState)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	}
}

// Metrics is a point-in-time view of the breaker.
type Metrics struct {
	State        CircuitState
	FailureCount int
	SuccessCount int
	LastFailure  time.Time
	NextAttempt  time.Time
}

type circuitBreaker struct {
	config      *Config
	now         func() time.Time
	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time
	nextAttempt time.Time
	mutex       sync.RWMutex
}

// NewCircuitBreaker applies defaults when config is nil.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	return newCircuitBreaker(config, time.Now)
}

func newCircuitBreaker(config *Config, now func() time.Time) *circuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &circuitBreaker{
		config: config,
		now:    now,
		state:  Closed,
	}
}

func (cb *circuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	cb.mutex.Lock()
	allowed := cb.allowLocked()
	cb.mutex.Unlock()

	if !allowed {
		return ErrCircuitOpen
	}

	// User code runs without the lock held.
	err := fn(ctx)

	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	switch {
	case err == nil:
		cb.recordSuccessLocked()
	case cb.countsAsFailure(ctx, err):
		cb.recordFailureLocked()
	}
	return err
}

func (cb *circuitBreaker) countsAsFailure(ctx context.Context, err error) bool {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return false
	}
	if cb.config.IsFailure != nil {
		return cb.config.IsFailure(err)
	}
	return true
}

func (cb *circuitBreaker) allowLocked() bool {
	if cb.state == Open && !cb.now().Before(cb.nextAttempt) {
		cb.transitionLocked(HalfOpen)
		cb.successes = 0
	}
	return cb.state != Open
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mutex.RLock()
	defer cb.mutex.RUnlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.transitionLocked(Closed)
	cb.failures = 0
	cb.successes = 0
}

func (cb *circuitBreaker) Metrics() Metrics {
	cb.mutex.RLock()
	defer cb.mutex.RUnlock()

	return Metrics{
		State:        cb.state,
		FailureCount: cb.failures,
		SuccessCount: cb.successes,
		LastFailure:  cb.lastFailure,
		NextAttempt:  cb.nextAttempt,
	}
}

func (cb *circuitBreaker) recordFailureLocked() {
	cb.failures++
	cb.lastFailure = cb.now()

	switch cb.state {
	case Closed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.openLocked()
		}
	case HalfOpen:
		cb.openLocked()
	}
}

func (cb *circuitBreaker) recordSuccessLocked() {
	cb.failures = 0

	if cb.state == HalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionLocked(Closed)
			cb.successes = 0
		}
	}
}

func (cb *circuitBreaker) openLocked() {
	cb.transitionLocked(Open)
	cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
}

func (cb *circuitBreaker) transitionLocked(to CircuitState) {
	from := cb.state
	cb.state = to
	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
