package dispatch

import (
	"time"
)

// greedy processes tickets in descending urgency order, assigning each to the
// best-scoring executor with remaining working capacity. Executor loads are
// tracked in a request-scoped working copy between tickets. O(T*M).
func (o *BatchOptimizer) greedy(p *problem, deadline time.Time) ([]int, bool) {
	sol := make([]int, len(p.tickets))
	for i := range sol {
		sol[i] = -1
	}
	used := make([]int, len(p.executors))
	exceeded := false

	for _, ti := range p.order {
		if time.Now().After(deadline) {
			exceeded = true
			break
		}
		best := -1
		var bestScore float64
		for _, ei := range p.candidates[ti] {
			if used[ei] >= p.remaining[ei] {
				continue
			}
			s := p.scores[ti][ei].Score
			if best == -1 || greedyBetter(p, s, ei, used, bestScore, best) {
				best = ei
				bestScore = s
			}
		}
		if best >= 0 {
			sol[ti] = best
			used[best]++
		}
	}
	return sol, exceeded
}

// greedyBetter applies the dispatcher tie-breaks against the working loads:
// higher score, then lower effective load, then lower executor id.
func greedyBetter(p *problem, s float64, ei int, used []int, bestScore float64, best int) bool {
	if s > bestScore+scoreEpsilon {
		return true
	}
	if s < bestScore-scoreEpsilon {
		return false
	}
	candLoad := p.executors[ei].Load + used[ei]
	bestLoad := p.executors[best].Load + used[best]
	if candLoad != bestLoad {
		return candLoad < bestLoad
	}
	return p.executors[ei].ID < p.executors[best].ID
}
