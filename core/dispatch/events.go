package dispatch

import (
	"github.com/fieldops/dispatch/core/model"
	"github.com/fieldops/dispatch/core/resilience"
)

// DecisionEvent is published on the event bus for every decision produced.
type DecisionEvent struct {
	Decision model.AssignmentDecision
}

// ModeEvent is published when the service mode is forced or cleared by an
// operator.
type ModeEvent struct {
	Mode   resilience.ServiceMode
	Reason string
}

// BreakerEvent is published when an operator resets a circuit breaker.
type BreakerEvent struct {
	Dependency string
	State      string
}
