package resilience

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker state machine position.
type BreakerState int

const (
	// StateClosed lets calls through and counts consecutive failures.
	StateClosed BreakerState = iota
	// StateOpen short-circuits all calls until the cool-down elapses.
	StateOpen
	// StateHalfOpen permits a single trial call after the cool-down.
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures one dependency's breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker.
	FailureThreshold int `json:"failure_threshold"`
	// CooldownMS is the time in milliseconds the breaker stays open before a
	// trial call is permitted.
	CooldownMS int `json:"cooldown_ms"`
}

// SetDefaults fills zero values.
func (c *BreakerConfig) SetDefaults() {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.CooldownMS == 0 {
		c.CooldownMS = 30_000
	}
}

// Cooldown returns the configured cool-down duration.
func (c BreakerConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMS) * time.Millisecond
}

// BreakerStatus is a point-in-time snapshot of one breaker.
type BreakerStatus struct {
	Dependency          string        `json:"dependency"`
	State               string        `json:"state"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastFailure         time.Time     `json:"last_failure,omitempty"`
	FailureThreshold    int           `json:"failure_threshold"`
	Cooldown            time.Duration `json:"cooldown"`
}

// CircuitBreaker isolates one named dependency. Transitions are the only
// cross-request shared mutation in the engine and are guarded by a single
// lock per dependency.
type CircuitBreaker struct {
	name string
	cfg  BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	openedAt    time.Time
	clock       func() time.Time
}

// NewCircuitBreaker creates a closed breaker for the named dependency.
func NewCircuitBreaker(name string, cfg BreakerConfig) *CircuitBreaker {
	cfg.SetDefaults()
	return &CircuitBreaker{name: name, cfg: cfg, clock: time.Now}
}

// Allow reports whether a call may proceed. When the cool-down of an open
// breaker has elapsed, the breaker moves to half-open and the call is
// admitted as the trial.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.clock().Sub(b.openedAt) >= b.cfg.Cooldown() {
			b.state = StateHalfOpen
			return true
		}
		return false
	}
	return false
}

// Success records a successful call, closing the breaker.
func (b *CircuitBreaker) Success() {
	b.mu.Lock()
	b.failures = 0
	b.state = StateClosed
	b.mu.Unlock()
}

// Failure records a failed call. Reaching the threshold, or failing the
// half-open trial, opens the breaker.
func (b *CircuitBreaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.clock()
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.state = StateOpen
		b.openedAt = b.clock()
	}
}

// State returns the current breaker state without side effects.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to closed, clearing the failure count.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	b.state = StateClosed
	b.failures = 0
	b.mu.Unlock()
}

// Status returns a snapshot for status surfaces.
func (b *CircuitBreaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStatus{
		Dependency:          b.name,
		State:               b.state.String(),
		ConsecutiveFailures: b.failures,
		LastFailure:         b.lastFailure,
		FailureThreshold:    b.cfg.FailureThreshold,
		Cooldown:            b.cfg.Cooldown(),
	}
}
