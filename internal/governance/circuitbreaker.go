package governance

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is in the open state.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the state of a circuit breaker.
type CircuitBreakerState string

const (
	// StateClosed indicates the circuit is closed and requests are allowed.
	StateClosed CircuitBreakerState = "closed"
	// StateOpen indicates the circuit is open and requests are rejected.
	StateOpen CircuitBreakerState = "open"
	// StateHalfOpen indicates a single probe request is allowed through.
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig defines thresholds for circuit breaking.
type CircuitBreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens the circuit. 0 disables the breaker.
	MaxFailures int
	// OpenTimeout is how long the circuit stays open before a probe is allowed.
	OpenTimeout time.Duration
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}
}

// CircuitBreaker trips after consecutive failures of the guarded endpoint.
type CircuitBreaker struct {
	mu                  sync.Mutex
	config              CircuitBreakerConfig
	state               CircuitBreakerState
	consecutiveFailures int
	openUntil           time.Time
	probing             bool
	now                 func() time.Time
}

// NewCircuitBreaker creates a circuit breaker with the provided configuration.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures < 0 {
		config.MaxFailures = 0
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// State returns the current state, promoting open to half-open once the timeout passed.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.promoteLocked()
	return cb.state
}

// Allow reports whether a call may proceed. A nil breaker always allows.
func (cb *CircuitBreaker) Allow() error {
	if cb == nil || cb.config.MaxFailures == 0 {
		return nil
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.promoteLocked()
	switch cb.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
	}
	return nil
}

// Record feeds the outcome of an allowed call back into the breaker.
func (cb *CircuitBreaker) Record(err error) {
	if cb == nil || cb.config.MaxFailures == 0 {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.consecutiveFailures = 0
		cb.probing = false
		cb.state = StateClosed
		return
	}

	cb.consecutiveFailures++
	if cb.state == StateHalfOpen || cb.consecutiveFailures >= cb.config.MaxFailures {
		cb.state = StateOpen
		cb.openUntil = cb.now().Add(cb.config.OpenTimeout)
		cb.probing = false
	}
}

func (cb *CircuitBreaker) promoteLocked() {
	if cb.state == StateOpen && !cb.now().Before(cb.openUntil) {
		cb.state = StateHalfOpen
		cb.probing = false
	}
}
