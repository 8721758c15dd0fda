package resilience

import (
	"testing"
	"time"
)

// fakeClock lets tests drive the breaker cool-down without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(threshold, cooldownMS int) (*CircuitBreaker, *fakeClock) {
	b := NewCircuitBreaker("test-dep", BreakerConfig{FailureThreshold: threshold, CooldownMS: cooldownMS})
	clk := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	b.clock = clk.Now
	return b, clk
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, 30_000)
	for i := 0; i < 2; i++ {
		b.Failure()
		if b.State() != StateClosed {
			t.Fatalf("breaker opened after %d failures, threshold is 3", i+1)
		}
	}
	b.Failure()
	if b.State() != StateOpen {
		t.Fatal("breaker must open at the threshold")
	}
	if b.Allow() {
		t.Fatal("open breaker must short-circuit")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, 30_000)
	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()
	if b.State() != StateClosed {
		t.Fatal("non-consecutive failures must not open the breaker")
	}
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b, clk := newTestBreaker(1, 30_000)
	b.Failure()
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}
	if b.Allow() {
		t.Fatal("cool-down not elapsed, call must be rejected")
	}
	clk.Advance(31 * time.Second)
	if !b.Allow() {
		t.Fatal("elapsed cool-down must admit a trial call")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half_open", b.State())
	}
}

func TestBreaker_HalfOpenTrialOutcomes(t *testing.T) {
	t.Run("success closes", func(t *testing.T) {
		b, clk := newTestBreaker(1, 30_000)
		b.Failure()
		clk.Advance(31 * time.Second)
		b.Allow()
		b.Success()
		if b.State() != StateClosed {
			t.Fatalf("state = %s, want closed", b.State())
		}
	})
	t.Run("failure reopens", func(t *testing.T) {
		b, clk := newTestBreaker(5, 30_000)
		for i := 0; i < 5; i++ {
			b.Failure()
		}
		clk.Advance(31 * time.Second)
		b.Allow()
		b.Failure()
		if b.State() != StateOpen {
			t.Fatalf("state = %s, want open", b.State())
		}
		if b.Allow() {
			t.Fatal("reopened breaker must short-circuit until the next cool-down")
		}
	})
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(1, 30_000)
	b.Failure()
	b.Reset()
	if b.State() != StateClosed {
		t.Fatal("reset must close the breaker")
	}
	if st := b.Status(); st.ConsecutiveFailures != 0 {
		t.Fatalf("reset must clear failures, got %d", st.ConsecutiveFailures)
	}
}

func TestBreaker_Status(t *testing.T) {
	b, _ := newTestBreaker(2, 15_000)
	b.Failure()
	st := b.Status()
	if st.Dependency != "test-dep" || st.State != "closed" {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.ConsecutiveFailures != 1 || st.FailureThreshold != 2 {
		t.Fatalf("unexpected counters %+v", st)
	}
	if st.Cooldown != 15*time.Second {
		t.Fatalf("cooldown = %v, want 15s", st.Cooldown)
	}
	if st.LastFailure.IsZero() {
		t.Fatal("last failure timestamp missing")
	}
}
