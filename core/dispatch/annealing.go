package dispatch

import (
	"math"
	"math/rand"
	"time"
)

// anneal refines a starting solution with simulated annealing: a random
// single-ticket reassignment per iteration, improving moves always accepted,
// worsening moves accepted with probability exp(delta/temperature) as the
// temperature cools geometrically. The best solution seen is returned.
// Cheaper per iteration than the population search.
func (o *BatchOptimizer) anneal(p *problem, start []int, iterations int, deadline time.Time, rng *rand.Rand) ([]int, bool) {
	if len(p.tickets) == 0 {
		return cloneSolution(start), false
	}
	cur := cloneSolution(start)
	curFit := p.fitness(cur)
	best := cloneSolution(cur)
	bestFit := curFit

	temp := o.cfg.InitialTemp
	exceeded := false

	for i := 0; i < iterations; i++ {
		if i%deadlineCheckInterval == 0 && time.Now().After(deadline) {
			exceeded = true
			break
		}

		ti := rng.Intn(len(cur))
		prev := cur[ti]
		next := o.proposeMove(p, ti, prev, rng)
		if next == prev {
			temp *= o.cfg.CoolingRate
			continue
		}

		cur[ti] = next
		newFit := p.fitness(cur)
		delta := newFit - curFit
		if delta > 0 || rng.Float64() < math.Exp(delta/temp) {
			curFit = newFit
			if curFit > bestFit {
				bestFit = curFit
				copy(best, cur)
			}
		} else {
			cur[ti] = prev
		}
		temp *= o.cfg.CoolingRate
	}
	return best, exceeded
}

// proposeMove picks a different eligible executor for the ticket, or
// unassigns it.
func (o *BatchOptimizer) proposeMove(p *problem, ti, current int, rng *rand.Rand) int {
	cands := p.candidates[ti]
	if len(cands) == 0 {
		return -1
	}
	if rng.Float64() < unassignProb {
		return -1
	}
	next := cands[rng.Intn(len(cands))]
	if next == current && len(cands) > 1 {
		next = cands[rng.Intn(len(cands))]
	}
	return next
}
