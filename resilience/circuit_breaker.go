// Package resilience guards package source calls with a circuit breaker so a
// failing feed is skipped quickly instead of being retried for every
// dependency lookup of a resolution.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/willibrandon/nugetplan/observability"
)

// CircuitState is the current state of a circuit breaker.
type CircuitState int

const (
	StateClosed   CircuitState = iota // calls flow
	StateOpen                         // calls rejected
	StateHalfOpen                     // probing for recovery
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint

	// Timeout is how long the circuit stays open before allowing a probe.
	Timeout time.Duration

	// MaxHalfOpenRequests caps concurrent probes while half-open.
	MaxHalfOpenRequests uint
}

// DefaultCircuitBreakerConfig returns default configuration.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:         5,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// CircuitBreaker is a three-state breaker for one named package source.
// State changes are exported through the nugetplan_circuit_breaker_* metrics.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	mu              sync.Mutex
	state           CircuitState
	failures        uint
	lastFailureTime time.Time
	halfOpenActive  uint
}

// NewCircuitBreaker creates a closed breaker for the source called name.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
	cb.publish()
	return cb
}

// Name returns the source name the breaker guards.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// CanExecute reports whether a call may proceed, moving an expired open
// circuit to half-open.
func (cb *CircuitBreaker) CanExecute() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.config.Timeout {
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.halfOpenActive = 0
		fallthrough

	case StateHalfOpen:
		if cb.halfOpenActive >= cb.config.MaxHalfOpenRequests {
			return ErrCircuitOpen
		}
		cb.halfOpenActive++
		return nil

	default:
		return ErrCircuitOpen
	}
}

// RecordSuccess records a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.halfOpenActive > 0 {
		cb.halfOpenActive--
	}
	cb.failures = 0
	cb.setState(StateClosed)
}

// RecordFailure records a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()
	observability.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		if cb.halfOpenActive > 0 {
			cb.halfOpenActive--
		}
		cb.setState(StateOpen)
	}
}

// Execute runs fn when the breaker allows it and records the outcome.
// Context cancellation is not counted as a source failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.CanExecute(); err != nil {
		return err
	}

	err := fn(ctx)
	switch {
	case err == nil:
		cb.RecordSuccess()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		cb.release()
	default:
		cb.RecordFailure()
	}
	return err
}

// Stats returns a snapshot of breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStats{
		State:           cb.state,
		Failures:        cb.failures,
		LastFailureTime: cb.lastFailureTime,
		HalfOpenActive:  cb.halfOpenActive,
	}
}

func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen && cb.halfOpenActive > 0 {
		cb.halfOpenActive--
	}
}

// must hold lock
func (cb *CircuitBreaker) setState(s CircuitState) {
	cb.state = s
	cb.publish()
}

func (cb *CircuitBreaker) publish() {
	observability.CircuitBreakerState.WithLabelValues(cb.name).Set(float64(cb.state))
}

// CircuitBreakerStats holds circuit breaker statistics.
type CircuitBreakerStats struct {
	State           CircuitState
	Failures        uint
	LastFailureTime time.Time
	HalfOpenActive  uint
}
