package dispatch

import (
	"math/rand"
	"time"
)

// unassignProb is the chance a random gene leaves its ticket unassigned,
// which keeps the population from saturating scarce capacity early.
const unassignProb = 0.1

type individual struct {
	genes []int
	fit   float64
}

// population runs a genetic-style search: assignments are encoded as one
// executor choice per ticket, fitness is the shared batch objective, and a
// fixed-size population evolves through tournament selection, uniform
// crossover and single-gene mutation. The best individual ever seen is
// returned; every individual is repaired to feasibility before evaluation.
func (o *BatchOptimizer) population(p *problem, deadline time.Time, rng *rand.Rand) ([]int, bool) {
	popSize := o.cfg.PopulationSize
	pop := make([]individual, 0, popSize)

	seed, exceeded := o.greedy(p, deadline)
	pop = append(pop, o.newIndividual(p, seed))
	for len(pop) < popSize {
		pop = append(pop, o.newIndividual(p, o.randomGenes(p, rng)))
	}

	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.fit > best.fit {
			best = ind
		}
	}

	for gen := 0; gen < o.cfg.Generations; gen++ {
		if time.Now().After(deadline) {
			exceeded = true
			break
		}
		next := make([]individual, 0, popSize)
		// Elitism: the incumbent survives unchanged.
		next = append(next, best)
		for len(next) < popSize {
			a := o.tournament(pop, rng)
			b := o.tournament(pop, rng)
			child := o.crossover(a.genes, b.genes, rng)
			o.mutate(p, child, rng)
			ind := o.newIndividual(p, child)
			next = append(next, ind)
			if ind.fit > best.fit {
				best = ind
			}
		}
		pop = next
	}
	return cloneSolution(best.genes), exceeded
}

func (o *BatchOptimizer) newIndividual(p *problem, genes []int) individual {
	p.repair(genes)
	return individual{genes: genes, fit: p.fitness(genes)}
}

func (o *BatchOptimizer) randomGenes(p *problem, rng *rand.Rand) []int {
	genes := make([]int, len(p.tickets))
	for ti := range genes {
		cands := p.candidates[ti]
		if len(cands) == 0 || rng.Float64() < unassignProb {
			genes[ti] = -1
			continue
		}
		genes[ti] = cands[rng.Intn(len(cands))]
	}
	return genes
}

func (o *BatchOptimizer) tournament(pop []individual, rng *rand.Rand) individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < o.cfg.TournamentSize; i++ {
		c := pop[rng.Intn(len(pop))]
		if c.fit > best.fit {
			best = c
		}
	}
	return best
}

// crossover mixes two parents gene-by-gene. Below the crossover rate the
// first parent is cloned unchanged.
func (o *BatchOptimizer) crossover(a, b []int, rng *rand.Rand) []int {
	child := cloneSolution(a)
	if rng.Float64() >= o.cfg.CrossoverRate {
		return child
	}
	for i := range child {
		if rng.Float64() < 0.5 {
			child[i] = b[i]
		}
	}
	return child
}

// mutate reassigns a single random ticket to another eligible executor, or
// unassigns it.
func (o *BatchOptimizer) mutate(p *problem, genes []int, rng *rand.Rand) {
	if len(genes) == 0 || rng.Float64() >= o.cfg.MutationRate {
		return
	}
	ti := rng.Intn(len(genes))
	cands := p.candidates[ti]
	if len(cands) == 0 || rng.Float64() < unassignProb {
		genes[ti] = -1
		return
	}
	genes[ti] = cands[rng.Intn(len(cands))]
}
