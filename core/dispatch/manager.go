package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatch/core/logger"
	coremetrics "github.com/fieldops/dispatch/core/metrics"
	"github.com/fieldops/dispatch/core/model"
	"github.com/fieldops/dispatch/core/resilience"
	"github.com/fieldops/dispatch/internal/eventbus"
)

// PermissionChecker validates that a user may assign a ticket.
type PermissionChecker interface {
	CanAssign(ctx context.Context, userID, ticketID string) (bool, error)
}

// TicketSource fetches canonical ticket records from the ticketing service.
type TicketSource interface {
	GetTicket(ctx context.Context, id string) (model.Ticket, error)
}

// RosterSource lists live executor snapshots, optionally filtered by skill.
type RosterSource interface {
	ListAvailableExecutors(ctx context.Context, skill string) ([]model.Executor, error)
}

// Committer persists an assignment in the external system of record. The
// roster/capacity store remains the final arbiter of committed load; engine
// output is advisory until confirmed there.
type Committer interface {
	UpdateTicketAssignment(ctx context.Context, ticketID, executorID string, meta map[string]string) error
}

// Notifier delivers fire-and-forget notifications. Failures are logged but
// never block an assignment result.
type Notifier interface {
	Notify(ctx context.Context, userID, message string, priority int) error
}

// Collaborators groups the external services the manager calls. Every call is
// mediated by the resilience guard; nil entries are tolerated and behave as
// permanently unavailable dependencies.
type Collaborators struct {
	Permissions PermissionChecker
	Tickets     TicketSource
	Roster      RosterSource
	Committer   Committer
	Notifier    Notifier
}

// AlgorithmRoundRobin labels decisions produced in emergency mode.
const AlgorithmRoundRobin = "round_robin"

// historyLimit bounds the in-memory decision history kept for status
// surfaces.
const historyLimit = 512

// Manager is the assignment facade. It orchestrates the resilience layer,
// the batch optimizer or basic dispatcher, and the persistence/notification
// side effects.
type Manager struct {
	dispatcher *BasicDispatcher
	optimizer  *BatchOptimizer
	guard      *resilience.Guard
	collab     Collaborators
	sink       coremetrics.DecisionSink
	bus        *eventbus.Bus
	log        logger.Logger

	mu      sync.Mutex
	history []model.AssignmentDecision
	rr      int // emergency round-robin cursor
}

// NewManager creates the facade. Dispatcher, optimizer and guard are
// required; a nil sink records nothing.
func NewManager(d *BasicDispatcher, o *BatchOptimizer, g *resilience.Guard, collab Collaborators, sink coremetrics.DecisionSink, bus *eventbus.Bus, log logger.Logger) (*Manager, error) {
	if d == nil || o == nil || g == nil {
		return nil, fmt.Errorf("dispatch: nil dispatcher, optimizer or guard provided to NewManager")
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Manager{dispatcher: d, optimizer: o, guard: g, collab: collab, sink: sink, bus: bus, log: log}, nil
}

// dispatcherForMode returns the dispatcher whose scoring matches the service
// mode. Degrading the mode never adds scoring factors: minimal mode keeps
// only skill and availability.
func (m *Manager) dispatcherForMode(mode resilience.ServiceMode) *BasicDispatcher {
	switch mode {
	case resilience.ModeMinimal:
		return NewBasicDispatcher(m.dispatcher.Scorer().WithFactors(model.FactorSkillMatch, model.FactorAvailability))
	case resilience.ModeEmergency:
		return NewBasicDispatcher(m.dispatcher.Scorer().WithFactors(model.FactorAvailability))
	default:
		return m.dispatcher
	}
}

// fetchTicket loads the canonical ticket through the guard. When the
// dependency is unavailable a minimal placeholder with default urgency is
// used and the fallback flag is reported.
func (m *Manager) fetchTicket(ctx context.Context, id string) (model.Ticket, bool) {
	if m.collab.Tickets != nil {
		t, err := resilience.Call(m.guard, ctx, resilience.DepTicketData, func(c context.Context) (model.Ticket, error) {
			return m.collab.Tickets.GetTicket(c, id)
		})
		if err == nil {
			return t, false
		}
		if m.log != nil {
			m.log.Warnf("ticket fetch degraded for %s: %v", id, err)
		}
	}
	return model.Ticket{ID: id, Urgency: 3, CreatedAt: time.Now()}, true
}

// fetchRoster loads live executor snapshots through the guard, falling back
// to the static roster when the dependency is unavailable.
func (m *Manager) fetchRoster(ctx context.Context, skill string) ([]model.Executor, bool) {
	if m.collab.Roster != nil {
		execs, err := resilience.Call(m.guard, ctx, resilience.DepExecutorRoster, func(c context.Context) ([]model.Executor, error) {
			return m.collab.Roster.ListAvailableExecutors(c, skill)
		})
		if err == nil {
			return execs, false
		}
		if m.log != nil {
			m.log.Warnf("roster fetch degraded: %v", err)
		}
	}
	return resilience.FallbackExecutors(), true
}

// canAssign checks permission through the guard. An unavailable permission
// service fails open: assignment proceeds on fallback, flagged as such.
func (m *Manager) canAssign(ctx context.Context, userID, ticketID string) (allowed, fallback bool) {
	if m.collab.Permissions == nil {
		return true, false
	}
	ok, err := resilience.Call(m.guard, ctx, resilience.DepPermissionCheck, func(c context.Context) (bool, error) {
		return m.collab.Permissions.CanAssign(c, userID, ticketID)
	})
	if err != nil {
		if m.log != nil {
			m.log.Warnf("permission check degraded for user %s: %v", userID, err)
		}
		return true, true
	}
	return ok, false
}

// AssignOne assigns a single ticket synchronously. The caller always receives
// a decision it can act on or log; per-ticket problems (no capacity, denied
// permission, unavailable dependencies) degrade to an unassigned or
// fallback-flagged decision, never an error.
func (m *Manager) AssignOne(ctx context.Context, ticketID, userID string) (model.AssignmentDecision, error) {
	start := time.Now()

	allowed, permFallback := m.canAssign(ctx, userID, ticketID)
	if !allowed {
		dec := model.AssignmentDecision{
			ID:         uuid.New().String(),
			TicketID:   ticketID,
			ExecutorID: model.Unassigned,
			Reason:     model.ReasonPermissionDenied,
			Algorithm:  AlgorithmBasic,
			Duration:   time.Since(start),
			DecidedAt:  start,
		}
		m.finalize(ctx, []model.AssignmentDecision{dec})
		return dec, nil
	}

	ticket, ticketFallback := m.fetchTicket(ctx, ticketID)
	var roster []model.Executor
	var rosterFallback bool
	if ticketFallback {
		// The canonical category is unknown, so skill matching against the
		// live roster would exclude every specialist. The static roster is
		// generalist-staffed and keeps the ticket assignable.
		roster = resilience.FallbackExecutors()
	} else {
		roster, rosterFallback = m.fetchRoster(ctx, ticket.Category)
	}
	mode := m.guard.Mode()

	var dec model.AssignmentDecision
	if mode == resilience.ModeEmergency {
		dec = m.emergencyAssign([]model.Ticket{ticket}, roster)[0]
	} else {
		dec = m.dispatcherForMode(mode).Assign(ticket, roster)
	}
	dec.FallbackUsed = dec.FallbackUsed || permFallback || ticketFallback || rosterFallback
	dec.Duration = time.Since(start)

	m.commit(ctx, dec)
	m.notify(userID, dec)
	m.finalize(ctx, []model.AssignmentDecision{dec})
	return dec, nil
}

// AssignBatch optimizes a batch of tickets. The algorithm override must be
// one of greedy, population, annealing or hybrid; empty selects
// automatically. Degraded modes restrict the algorithm regardless of the
// override.
func (m *Manager) AssignBatch(ctx context.Context, tickets []model.Ticket, algorithm string) ([]model.AssignmentDecision, error) {
	alg, err := ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	roster, rosterFallback := m.fetchRoster(ctx, "")
	mode := m.guard.Mode()

	var decs []model.AssignmentDecision
	switch mode {
	case resilience.ModeFull:
		decs, err = m.optimizer.Optimize(tickets, roster, alg)
	case resilience.ModeDegraded:
		if alg != AlgorithmGreedy && m.log != nil {
			m.log.Infof("service degraded, forcing greedy over %q", algorithm)
		}
		decs, err = m.optimizer.Optimize(tickets, roster, AlgorithmGreedy)
	case resilience.ModeMinimal:
		minimal := m.optimizer.WithScorer(m.dispatcher.Scorer().WithFactors(model.FactorSkillMatch, model.FactorAvailability))
		decs, err = minimal.Optimize(tickets, roster, AlgorithmGreedy)
	case resilience.ModeEmergency:
		decs = m.emergencyAssign(tickets, roster)
	}
	if err != nil {
		return nil, err
	}
	if rosterFallback || mode == resilience.ModeEmergency {
		for i := range decs {
			decs[i].FallbackUsed = decs[i].FallbackUsed || rosterFallback
		}
	}
	for _, dec := range decs {
		m.commit(ctx, dec)
	}
	m.finalize(ctx, decs)
	return decs, nil
}

// Recommend returns the top n candidate scores for a ticket without
// committing an assignment. Identical snapshots yield identical rankings.
func (m *Manager) Recommend(ctx context.Context, ticket model.Ticket, n int) ([]model.CandidateScore, error) {
	roster, _ := m.fetchRoster(ctx, ticket.Category)
	return m.dispatcherForMode(m.guard.Mode()).Rank(ticket, roster, n), nil
}

// emergencyAssign distributes tickets round-robin over available executors
// with spare capacity, ignoring skill match. Used only when no scoring inputs
// are trustworthy.
func (m *Manager) emergencyAssign(tickets []model.Ticket, executors []model.Executor) []model.AssignmentDecision {
	start := time.Now()
	used := make([]int, len(executors))
	decs := make([]model.AssignmentDecision, len(tickets))

	m.mu.Lock()
	cursor := m.rr
	m.mu.Unlock()

	for i, t := range tickets {
		dec := model.AssignmentDecision{
			ID:           uuid.New().String(),
			TicketID:     t.ID,
			Algorithm:    AlgorithmRoundRobin,
			Factors:      map[string]float64{},
			FallbackUsed: true,
			DecidedAt:    start,
		}
		idx := -1
		for probe := 0; probe < len(executors); probe++ {
			j := (cursor + probe) % len(executors)
			e := executors[j]
			if e.Available && e.Load+used[j] < e.Capacity {
				idx = j
				cursor = j + 1
				break
			}
		}
		if idx >= 0 {
			dec.ExecutorID = executors[idx].ID
			used[idx]++
		} else {
			dec.ExecutorID = model.Unassigned
			dec.Reason = model.ReasonNoCapacity
		}
		dec.Duration = time.Since(start)
		decs[i] = dec
	}

	m.mu.Lock()
	m.rr = cursor
	m.mu.Unlock()
	return decs
}

// commit persists an assignment through the guard. Commit failures count
// toward the ticket-data breaker and are logged; the decision stands as
// advisory output either way.
func (m *Manager) commit(ctx context.Context, dec model.AssignmentDecision) {
	if m.collab.Committer == nil || !dec.Assigned() {
		return
	}
	meta := map[string]string{
		"algorithm":     dec.Algorithm,
		"score":         fmt.Sprintf("%.6f", dec.Score),
		"fallback_used": fmt.Sprintf("%t", dec.FallbackUsed),
	}
	err := m.guard.Do(ctx, resilience.DepTicketData, func(c context.Context) error {
		return m.collab.Committer.UpdateTicketAssignment(c, dec.TicketID, dec.ExecutorID, meta)
	})
	if err != nil && m.log != nil {
		m.log.Warnf("assignment commit failed for ticket %s: %v", dec.TicketID, err)
	}
}

// notify sends the result to the requesting user without blocking the
// assignment path.
func (m *Manager) notify(userID string, dec model.AssignmentDecision) {
	if m.collab.Notifier == nil || userID == "" {
		return
	}
	msg := fmt.Sprintf("ticket %s assigned to %s", dec.TicketID, dec.ExecutorID)
	if !dec.Assigned() {
		msg = fmt.Sprintf("ticket %s could not be assigned: %s", dec.TicketID, dec.Reason)
	}
	priority := 3
	go func() {
		err := m.guard.Do(context.Background(), resilience.DepNotification, func(c context.Context) error {
			return m.collab.Notifier.Notify(c, userID, msg, priority)
		})
		if err != nil && m.log != nil {
			m.log.Warnf("notification failed for user %s: %v", userID, err)
		}
	}()
}

// finalize records metrics and events and appends to the in-memory history.
func (m *Manager) finalize(_ context.Context, decs []model.AssignmentDecision) {
	mode := m.guard.Mode()
	serviceMode.Set(float64(mode))
	for dep, st := range m.guard.Status() {
		breakerState.WithLabelValues(dep).Set(breakerStateValue(st.State))
	}

	recs := make([]coremetrics.DecisionRecord, 0, len(decs))
	for _, dec := range decs {
		outcome := "assigned"
		if !dec.Assigned() {
			outcome = "unassigned"
		}
		decisionsTotal.WithLabelValues(dec.Algorithm, outcome).Inc()
		assignDuration.WithLabelValues(dec.Algorithm).Observe(dec.Duration.Seconds())
		if dec.FallbackUsed {
			fallbackTotal.Inc()
		}
		if m.bus != nil {
			m.bus.Publish(DecisionEvent{Decision: dec})
		}
		recs = append(recs, coremetrics.DecisionRecord{
			DecisionID:     dec.ID,
			TicketID:       dec.TicketID,
			ExecutorID:     dec.ExecutorID,
			Algorithm:      dec.Algorithm,
			Score:          dec.Score,
			FallbackUsed:   dec.FallbackUsed,
			BudgetExceeded: dec.BudgetExceeded,
			Duration:       dec.Duration,
			DecidedAt:      dec.DecidedAt,
		})
	}
	if err := m.sink.RecordDecisions(recs); err != nil && m.log != nil {
		m.log.Errorf("decision sink error: %v", err)
	}

	m.mu.Lock()
	m.history = append(m.history, decs...)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
	m.mu.Unlock()
}

func breakerStateValue(state string) float64 {
	switch state {
	case "open":
		return 1
	case "half_open":
		return 2
	default:
		return 0
	}
}

// Mode returns the current service mode.
func (m *Manager) Mode() resilience.ServiceMode {
	return m.guard.Mode()
}

// SetMode forces the service mode by operator action.
func (m *Manager) SetMode(mode resilience.ServiceMode, reason string) {
	m.guard.ForceMode(mode, reason)
	serviceMode.Set(float64(mode))
	if m.bus != nil {
		m.bus.Publish(ModeEvent{Mode: mode, Reason: reason})
	}
}

// ClearMode removes an operator mode override.
func (m *Manager) ClearMode() {
	m.guard.ClearMode()
	if m.bus != nil {
		m.bus.Publish(ModeEvent{Mode: m.guard.Mode(), Reason: "override cleared"})
	}
}

// BreakerStatus reports every dependency breaker, including ones not yet
// exercised.
func (m *Manager) BreakerStatus() map[string]resilience.BreakerStatus {
	for _, dep := range []string{
		resilience.DepTicketData,
		resilience.DepExecutorRoster,
		resilience.DepPermissionCheck,
		resilience.DepNotification,
	} {
		m.guard.Breaker(dep)
	}
	return m.guard.Status()
}

// ResetBreaker closes the named dependency's breaker by operator action.
func (m *Manager) ResetBreaker(dep string) {
	m.guard.Reset(dep)
	if m.bus != nil {
		m.bus.Publish(BreakerEvent{Dependency: dep, State: resilience.StateClosed.String()})
	}
}

// History returns a copy of the recent decisions.
func (m *Manager) History() []model.AssignmentDecision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AssignmentDecision(nil), m.history...)
}
