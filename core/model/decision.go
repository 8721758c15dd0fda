package model

import "time"

// Factor names used in score breakdowns. Breakdown values are the raw factor
// scores in [0,1]; multiplying each by its configured weight and summing
// reproduces the final score.
const (
	FactorSkillMatch   = "skill_match"
	FactorEfficiency   = "efficiency"
	FactorWorkload     = "workload_balance"
	FactorAvailability = "availability"
	FactorGeoProximity = "geo_proximity"
)

// Unassigned is the executor id reported when no executor could take a ticket.
const Unassigned = "unassigned"

// Reasons reported on unassigned decisions.
const (
	ReasonNoCapacity       = "no_capacity"
	ReasonPermissionDenied = "permission_denied"
)

// CandidateScore is the compatibility score of one ticket/executor pair.
// It is ephemeral: computed per request and never persisted by this engine.
type CandidateScore struct {
	TicketID   string             `json:"ticket_id"`
	ExecutorID string             `json:"executor_id"`
	Score      float64            `json:"score"`
	Factors    map[string]float64 `json:"factors"`
}

// AssignmentDecision is the engine output for a single ticket. It is fully
// self-describing; persisting it is the caller's responsibility.
type AssignmentDecision struct {
	ID             string             `json:"id"`
	TicketID       string             `json:"ticket_id"`
	ExecutorID     string             `json:"executor_id"` // Unassigned when no executor fits
	Reason         string             `json:"reason,omitempty"`
	Algorithm      string             `json:"algorithm"`
	Score          float64            `json:"score"`
	Factors        map[string]float64 `json:"factors,omitempty"`
	Duration       time.Duration      `json:"duration"`
	FallbackUsed   bool               `json:"fallback_used"`
	BudgetExceeded bool               `json:"budget_exceeded,omitempty"`
	DecidedAt      time.Time          `json:"decided_at"`
}

// Assigned reports whether the decision names a concrete executor.
func (d AssignmentDecision) Assigned() bool {
	return d.ExecutorID != "" && d.ExecutorID != Unassigned
}
