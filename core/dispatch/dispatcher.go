package dispatch

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatch/core/model"
	"github.com/fieldops/dispatch/core/score"
)

// AlgorithmBasic labels decisions produced by the single-ticket dispatcher.
const AlgorithmBasic = "basic"

// scoreEpsilon is the tolerance below which two scores count as tied.
const scoreEpsilon = 1e-9

// BasicDispatcher scores every candidate executor for a single ticket and
// picks the best one. It is the baseline used when batch optimization is
// unavailable or disabled.
type BasicDispatcher struct {
	scorer *score.Scorer
}

// NewBasicDispatcher creates a dispatcher using the given scorer.
func NewBasicDispatcher(s *score.Scorer) *BasicDispatcher {
	return &BasicDispatcher{scorer: s}
}

// Scorer returns the scorer backing this dispatcher.
func (d *BasicDispatcher) Scorer() *score.Scorer {
	return d.scorer
}

// Assign picks the best-scoring eligible executor for the ticket. When no
// executor has availability and spare capacity the decision reports
// unassigned with reason no_capacity. Ties are broken by lowest current load,
// then by lowest executor id, so results are reproducible.
func (d *BasicDispatcher) Assign(t model.Ticket, executors []model.Executor) model.AssignmentDecision {
	start := time.Now()
	best, cs := d.pick(t, executors)
	dec := model.AssignmentDecision{
		ID:        uuid.New().String(),
		TicketID:  t.ID,
		Algorithm: AlgorithmBasic,
		DecidedAt: start,
	}
	if best == nil {
		dec.ExecutorID = model.Unassigned
		dec.Reason = model.ReasonNoCapacity
		dec.Duration = time.Since(start)
		return dec
	}
	dec.ExecutorID = best.ID
	dec.Score = cs.Score
	dec.Factors = cs.Factors
	dec.Duration = time.Since(start)
	return dec
}

// pick returns the winning executor and its score, or nil when none is
// eligible.
func (d *BasicDispatcher) pick(t model.Ticket, executors []model.Executor) (*model.Executor, model.CandidateScore) {
	var best *model.Executor
	var bestScore model.CandidateScore
	for i := range executors {
		e := &executors[i]
		if !e.Eligible(t) {
			continue
		}
		cs := d.scorer.Score(t, *e)
		if best == nil || better(cs, *e, bestScore, *best) {
			best = e
			bestScore = cs
		}
	}
	if best == nil {
		return nil, model.CandidateScore{}
	}
	return best, bestScore
}

// better reports whether candidate a beats the current best b.
func better(as model.CandidateScore, a model.Executor, bs model.CandidateScore, b model.Executor) bool {
	if as.Score > bs.Score+scoreEpsilon {
		return true
	}
	if as.Score < bs.Score-scoreEpsilon {
		return false
	}
	if a.Load != b.Load {
		return a.Load < b.Load
	}
	return a.ID < b.ID
}

// Rank scores every eligible executor and returns the top n candidates in
// descending score order without committing an assignment. The ordering uses
// the same deterministic tie-breaks as Assign, so identical snapshots yield
// identical rankings.
func (d *BasicDispatcher) Rank(t model.Ticket, executors []model.Executor, n int) []model.CandidateScore {
	type ranked struct {
		cs model.CandidateScore
		e  model.Executor
	}
	var all []ranked
	for _, e := range executors {
		if !e.Eligible(t) {
			continue
		}
		all = append(all, ranked{cs: d.scorer.Score(t, e), e: e})
	}
	sort.Slice(all, func(i, j int) bool {
		return better(all[i].cs, all[i].e, all[j].cs, all[j].e)
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	out := make([]model.CandidateScore, len(all))
	for i, r := range all {
		out[i] = r.cs
	}
	return out
}
