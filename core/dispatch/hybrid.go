package dispatch

import (
	"math/rand"
	"time"
)

// hybrid runs greedy first and refines it with a bounded annealing pass. The
// fractional-relaxation bound is used to skip refinement when greedy is
// already within tolerance of the best achievable batch score, keeping
// latency low on easy instances.
func (o *BatchOptimizer) hybrid(p *problem, deadline time.Time, rng *rand.Rand) ([]int, bool) {
	sol, exceeded := o.greedy(p, deadline)
	if exceeded {
		return sol, true
	}

	if bound, ok := relaxationBound(p); ok {
		if fit := p.fitness(sol); fit >= bound*(1-o.cfg.RelaxTolerance) {
			if o.log != nil {
				o.log.Debugf("hybrid: greedy fitness %.4f within tolerance of bound %.4f, skipping refinement", fit, bound)
			}
			return sol, false
		}
	}
	return o.anneal(p, sol, o.cfg.HybridRefineIterations, deadline, rng)
}
