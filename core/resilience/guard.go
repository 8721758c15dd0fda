package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldops/dispatch/core/logger"
)

// Dependency names recognized by the guard. Callers may register additional
// names; breakers are created lazily on first use.
const (
	DepTicketData      = "ticket-data"
	DepExecutorRoster  = "executor-roster"
	DepPermissionCheck = "permission-check"
	DepNotification    = "notification"
)

// ErrDependencyUnavailable marks a failed or short-circuited external call.
// It never reaches callers of the assignment facade; decisions produced from
// fallback data carry fallback_used instead.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

// GuardConfig configures timeouts and breaker behaviour for external calls.
type GuardConfig struct {
	// TimeoutMS bounds every guarded call in milliseconds.
	TimeoutMS int `json:"timeout_ms"`
	// Breaker is the default breaker configuration.
	Breaker BreakerConfig `json:"breaker"`
	// Dependencies overrides the breaker configuration per dependency name.
	Dependencies map[string]BreakerConfig `json:"dependencies"`
}

// SetDefaults fills zero values.
func (c *GuardConfig) SetDefaults() {
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 2_000
	}
	c.Breaker.SetDefaults()
}

// Validate fails fast on nonsensical settings.
func (c GuardConfig) Validate() error {
	if c.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must not be negative")
	}
	if c.Breaker.FailureThreshold < 0 || c.Breaker.CooldownMS < 0 {
		return fmt.Errorf("breaker threshold and cooldown must not be negative")
	}
	return nil
}

// Timeout returns the per-call timeout.
func (c GuardConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Guard wraps every external call with a timeout and a per-dependency circuit
// breaker, and derives the process-wide service mode from the aggregate
// breaker state. It is an explicit injectable object so tests can construct
// isolated instances.
type Guard struct {
	cfg GuardConfig
	log logger.Logger

	mu           sync.Mutex
	breakers     map[string]*CircuitBreaker
	forced       *ServiceMode
	forcedReason string
}

// NewGuard creates a Guard with the given configuration.
func NewGuard(cfg GuardConfig, log logger.Logger) *Guard {
	cfg.SetDefaults()
	return &Guard{cfg: cfg, log: log, breakers: make(map[string]*CircuitBreaker)}
}

// Breaker returns the breaker for the named dependency, creating it on first
// use with the per-dependency or default configuration.
func (g *Guard) Breaker(dep string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.breakers[dep]; ok {
		return b
	}
	cfg := g.cfg.Breaker
	if override, ok := g.cfg.Dependencies[dep]; ok {
		cfg = override
	}
	b := NewCircuitBreaker(dep, cfg)
	g.breakers[dep] = b
	return b
}

// Do runs fn under the dependency's breaker with the configured timeout.
// An open breaker short-circuits immediately. Timeouts and explicit failures
// count toward the breaker and are reported as ErrDependencyUnavailable.
func (g *Guard) Do(ctx context.Context, dep string, fn func(context.Context) error) error {
	b := g.Breaker(dep)
	if !b.Allow() {
		return fmt.Errorf("%s: circuit open: %w", dep, ErrDependencyUnavailable)
	}
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout())
	defer cancel()
	if err := fn(callCtx); err != nil {
		b.Failure()
		if g.log != nil {
			g.log.Warnf("dependency %s failed: %v", dep, err)
		}
		return fmt.Errorf("%s: %v: %w", dep, err, ErrDependencyUnavailable)
	}
	b.Success()
	return nil
}

// Call runs a guarded call that returns a value.
func Call[T any](g *Guard, ctx context.Context, dep string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, dep, func(c context.Context) error {
		v, err := fn(c)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Mode returns the current service mode. An operator override takes
// precedence; otherwise the mode is derived from the data-dependency
// breakers: one of ticket-data/executor-roster open degrades the service,
// both open restricts it to minimal, and losing the permission check as well
// forces emergency. The notification breaker never affects the mode.
func (g *Guard) Mode() ServiceMode {
	g.mu.Lock()
	if g.forced != nil {
		m := *g.forced
		g.mu.Unlock()
		return m
	}
	g.mu.Unlock()

	ticketOpen := g.Breaker(DepTicketData).State() == StateOpen
	rosterOpen := g.Breaker(DepExecutorRoster).State() == StateOpen
	permOpen := g.Breaker(DepPermissionCheck).State() == StateOpen
	switch {
	case ticketOpen && rosterOpen && permOpen:
		return ModeEmergency
	case ticketOpen && rosterOpen:
		return ModeMinimal
	case ticketOpen || rosterOpen:
		return ModeDegraded
	default:
		return ModeFull
	}
}

// ForceMode pins the service mode, overriding derivation until ClearMode.
func (g *Guard) ForceMode(mode ServiceMode, reason string) {
	g.mu.Lock()
	g.forced = &mode
	g.forcedReason = reason
	g.mu.Unlock()
	if g.log != nil {
		g.log.Warnf("service mode forced to %s: %s", mode, reason)
	}
}

// ClearMode removes an operator override.
func (g *Guard) ClearMode() {
	g.mu.Lock()
	g.forced = nil
	g.forcedReason = ""
	g.mu.Unlock()
}

// ForcedReason returns the operator reason when a mode override is active.
func (g *Guard) ForcedReason() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.forced == nil {
		return "", false
	}
	return g.forcedReason, true
}

// Status snapshots every known breaker, keyed by dependency name.
func (g *Guard) Status() map[string]BreakerStatus {
	g.mu.Lock()
	names := make([]string, 0, len(g.breakers))
	for name := range g.breakers {
		names = append(names, name)
	}
	g.mu.Unlock()

	out := make(map[string]BreakerStatus, len(names))
	for _, name := range names {
		out[name] = g.Breaker(name).Status()
	}
	return out
}

// Reset closes the named dependency's breaker.
func (g *Guard) Reset(dep string) {
	g.Breaker(dep).Reset()
	if g.log != nil {
		g.log.Infof("circuit breaker %s reset", dep)
	}
}
