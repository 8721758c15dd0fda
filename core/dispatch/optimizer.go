package dispatch

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatch/core/logger"
	"github.com/fieldops/dispatch/core/model"
	"github.com/fieldops/dispatch/core/score"
)

// Algorithm selects one of the interchangeable batch search strategies.
type Algorithm string

const (
	// AlgorithmAuto lets the optimizer choose based on problem size.
	AlgorithmAuto Algorithm = ""
	// AlgorithmGreedy processes tickets in descending urgency order with
	// sequential best-scoring picks.
	AlgorithmGreedy Algorithm = "greedy"
	// AlgorithmPopulation runs a genetic-style population search.
	AlgorithmPopulation Algorithm = "population"
	// AlgorithmAnnealing refines a greedy solution with simulated annealing.
	AlgorithmAnnealing Algorithm = "annealing"
	// AlgorithmHybrid runs greedy then a bounded annealing refinement.
	AlgorithmHybrid Algorithm = "hybrid"
)

// ErrUnknownAlgorithm is returned for algorithm names outside the supported
// set. It is a configuration error and is never silently defaulted.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ParseAlgorithm validates a caller-supplied algorithm override. The empty
// string selects automatic choice.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmAuto, AlgorithmGreedy, AlgorithmPopulation, AlgorithmAnnealing, AlgorithmHybrid:
		return Algorithm(s), nil
	default:
		return AlgorithmAuto, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// capacityPenalty is the fitness penalty per unit of executor overload. It
// dominates any achievable per-ticket score so infeasible solutions always
// rank below feasible ones.
const capacityPenalty = 10.0

// deadlineCheckInterval controls how often annealing polls the clock.
const deadlineCheckInterval = 64

// OptimizerConfig carries the per-algorithm budgets. All four algorithms
// share the fitness definition, so their outputs are directly comparable.
type OptimizerConfig struct {
	PopulationSize      int     `json:"population_size"`
	Generations         int     `json:"generations"`
	TournamentSize      int     `json:"tournament_size"`
	CrossoverRate       float64 `json:"crossover_rate"`
	MutationRate        float64 `json:"mutation_rate"`
	AnnealingIterations int     `json:"annealing_iterations"`
	InitialTemp         float64 `json:"initial_temp"`
	CoolingRate         float64 `json:"cooling_rate"`
	// HybridRefineIterations bounds the annealing pass of the hybrid variant.
	HybridRefineIterations int `json:"hybrid_refine_iterations"`
	// TimeBudgetMS is the overall per-request budget; algorithms return the
	// best solution found so far when it runs out.
	TimeBudgetMS int `json:"time_budget_ms"`
	// GreedyThreshold is the batch size at or below which automatic selection
	// uses plain greedy.
	GreedyThreshold int `json:"greedy_threshold"`
	// RelaxTolerance stops hybrid refinement early when greedy is already
	// within this fraction of the fractional-relaxation bound.
	RelaxTolerance float64 `json:"relax_tolerance"`
}

// SetDefaults fills zero values with the documented defaults.
func (c *OptimizerConfig) SetDefaults() {
	if c.PopulationSize == 0 {
		c.PopulationSize = 40
	}
	if c.Generations == 0 {
		c.Generations = 60
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = 3
	}
	if c.CrossoverRate == 0 {
		c.CrossoverRate = 0.9
	}
	if c.MutationRate == 0 {
		c.MutationRate = 0.1
	}
	if c.AnnealingIterations == 0 {
		c.AnnealingIterations = 2000
	}
	if c.InitialTemp == 0 {
		c.InitialTemp = 1.0
	}
	if c.CoolingRate == 0 {
		c.CoolingRate = 0.95
	}
	if c.HybridRefineIterations == 0 {
		c.HybridRefineIterations = 500
	}
	if c.TimeBudgetMS == 0 {
		c.TimeBudgetMS = 3_000
	}
	if c.GreedyThreshold == 0 {
		c.GreedyThreshold = 5
	}
	if c.RelaxTolerance == 0 {
		c.RelaxTolerance = 0.02
	}
}

// Validate fails fast on misconfiguration.
func (c OptimizerConfig) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("population_size must be at least 2")
	}
	if c.Generations < 1 || c.AnnealingIterations < 1 || c.HybridRefineIterations < 1 {
		return fmt.Errorf("iteration budgets must be positive")
	}
	if c.TournamentSize < 1 || c.TournamentSize > c.PopulationSize {
		return fmt.Errorf("tournament_size must be in [1,population_size]")
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 || c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("crossover_rate and mutation_rate must be in [0,1]")
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf("initial_temp must be positive")
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		return fmt.Errorf("cooling_rate must be in (0,1)")
	}
	if c.TimeBudgetMS < 0 {
		return fmt.Errorf("time_budget_ms must not be negative")
	}
	if c.RelaxTolerance < 0 || c.RelaxTolerance > 1 {
		return fmt.Errorf("relax_tolerance must be in [0,1]")
	}
	return nil
}

// TimeBudget returns the per-request time budget.
func (c OptimizerConfig) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetMS) * time.Millisecond
}

// BatchOptimizer searches for a globally better assignment than independent
// greedy picks. It holds no external state; every run works on a
// request-scoped copy of the problem, so concurrent Optimize calls are safe.
type BatchOptimizer struct {
	cfg OptimizerConfig
	sc  *score.Scorer
	log logger.Logger

	mu  sync.Mutex
	rng *rand.Rand // seeds per-run generators; injectable for determinism
}

// NewBatchOptimizer creates an optimizer. A nil rng selects a time-seeded
// source; tests inject a fixed seed to assert determinism.
func NewBatchOptimizer(cfg OptimizerConfig, sc *score.Scorer, log logger.Logger, rng *rand.Rand) (*BatchOptimizer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("optimizer requires a scorer")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &BatchOptimizer{cfg: cfg, sc: sc, log: log, rng: rng}, nil
}

// problem is the request-scoped working state for one batch run. The score
// matrix is computed once from the executor snapshots so that all algorithms
// evaluate the exact same fitness.
type problem struct {
	tickets    []model.Ticket
	executors  []model.Executor
	scores     [][]*model.CandidateScore // [ticket][executor], nil when ineligible
	candidates [][]int                   // eligible executor indices per ticket
	remaining  []int                     // spare capacity per executor
	order      []int                     // ticket indices, descending urgency
}

func buildProblem(tickets []model.Ticket, executors []model.Executor, sc *score.Scorer) *problem {
	p := &problem{
		tickets:    tickets,
		executors:  executors,
		scores:     make([][]*model.CandidateScore, len(tickets)),
		candidates: make([][]int, len(tickets)),
		remaining:  make([]int, len(executors)),
	}
	for ei, e := range executors {
		p.remaining[ei] = e.Capacity - e.Load
	}
	for ti, t := range tickets {
		p.scores[ti] = make([]*model.CandidateScore, len(executors))
		for ei, e := range executors {
			if !e.Eligible(t) {
				continue
			}
			cs := sc.Score(t, e)
			p.scores[ti][ei] = &cs
			p.candidates[ti] = append(p.candidates[ti], ei)
		}
	}
	p.order = make([]int, len(tickets))
	for i := range p.order {
		p.order[i] = i
	}
	sort.SliceStable(p.order, func(a, b int) bool {
		ta, tb := tickets[p.order[a]], tickets[p.order[b]]
		if ta.Urgency != tb.Urgency {
			return ta.Urgency > tb.Urgency
		}
		if !ta.CreatedAt.Equal(tb.CreatedAt) {
			return ta.CreatedAt.Before(tb.CreatedAt)
		}
		return ta.ID < tb.ID
	})
	return p
}

// fitness is the shared objective: sum of per-ticket scores, hard-penalized
// for capacity violations. Higher is better.
func (p *problem) fitness(sol []int) float64 {
	total := 0.0
	used := make([]int, len(p.executors))
	for ti, ei := range sol {
		if ei < 0 {
			continue
		}
		if cs := p.scores[ti][ei]; cs != nil {
			total += cs.Score
		}
		used[ei]++
	}
	for ei, u := range used {
		if over := u - p.remaining[ei]; over > 0 {
			total -= float64(over) * capacityPenalty
		}
	}
	return total
}

// feasible reports whether no executor exceeds capacity under the solution.
func (p *problem) feasible(sol []int) bool {
	used := make([]int, len(p.executors))
	for _, ei := range sol {
		if ei < 0 {
			continue
		}
		used[ei]++
		if used[ei] > p.remaining[ei] {
			return false
		}
	}
	return true
}

// repair resolves capacity violations by unassigning the lowest-urgency
// tickets of each overloaded executor.
func (p *problem) repair(sol []int) {
	assigned := make(map[int][]int, len(p.executors)) // executor -> ticket indices
	for ti, ei := range sol {
		if ei >= 0 {
			assigned[ei] = append(assigned[ei], ti)
		}
	}
	for ei, tis := range assigned {
		over := len(tis) - p.remaining[ei]
		if over <= 0 {
			continue
		}
		sort.Slice(tis, func(a, b int) bool {
			ta, tb := p.tickets[tis[a]], p.tickets[tis[b]]
			if ta.Urgency != tb.Urgency {
				return ta.Urgency < tb.Urgency
			}
			if !ta.CreatedAt.Equal(tb.CreatedAt) {
				return ta.CreatedAt.After(tb.CreatedAt)
			}
			return ta.ID > tb.ID
		})
		for i := 0; i < over; i++ {
			sol[tis[i]] = -1
		}
	}
}

func cloneSolution(sol []int) []int {
	cp := make([]int, len(sol))
	copy(cp, sol)
	return cp
}

// choose resolves automatic algorithm selection by batch size.
func (o *BatchOptimizer) choose(n int) Algorithm {
	if n <= o.cfg.GreedyThreshold {
		return AlgorithmGreedy
	}
	return AlgorithmHybrid
}

// WithScorer returns a copy of the optimizer that evaluates candidates with
// the given scorer. Used by the facade to run restricted-factor batches in
// degraded service modes.
func (o *BatchOptimizer) WithScorer(sc *score.Scorer) *BatchOptimizer {
	o.mu.Lock()
	seed := o.rng.Int63()
	o.mu.Unlock()
	return &BatchOptimizer{cfg: o.cfg, sc: sc, log: o.log, rng: rand.New(rand.NewSource(seed))}
}

// runRng hands out an independent generator per run so concurrent batches do
// not contend on shared random state.
func (o *BatchOptimizer) runRng() *rand.Rand {
	o.mu.Lock()
	seed := o.rng.Int63()
	o.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// Optimize produces one decision per ticket such that no executor's resulting
// load exceeds capacity across the whole batch. Infeasibility is resolved by
// leaving the lowest-urgency tickets unassigned. The algorithm may be pinned;
// AlgorithmAuto selects by problem size.
func (o *BatchOptimizer) Optimize(tickets []model.Ticket, executors []model.Executor, alg Algorithm) ([]model.AssignmentDecision, error) {
	if _, err := ParseAlgorithm(string(alg)); err != nil {
		return nil, err
	}
	start := time.Now()
	deadline := start.Add(o.cfg.TimeBudget())
	if alg == AlgorithmAuto {
		alg = o.choose(len(tickets))
	}

	p := buildProblem(tickets, executors, o.sc)
	rng := o.runRng()

	var sol []int
	var exceeded bool
	switch alg {
	case AlgorithmGreedy:
		sol, exceeded = o.greedy(p, deadline)
	case AlgorithmPopulation:
		sol, exceeded = o.population(p, deadline, rng)
	case AlgorithmAnnealing:
		var g []int
		g, exceeded = o.greedy(p, deadline)
		if !exceeded {
			sol, exceeded = o.anneal(p, g, o.cfg.AnnealingIterations, deadline, rng)
		} else {
			sol = g
		}
	case AlgorithmHybrid:
		sol, exceeded = o.hybrid(p, deadline, rng)
	}
	p.repair(sol)

	if o.log != nil {
		o.log.Debugw("batch optimized", map[string]any{
			"algorithm":       string(alg),
			"tickets":         len(tickets),
			"executors":       len(executors),
			"fitness":         p.fitness(sol),
			"budget_exceeded": exceeded,
			"elapsed":         time.Since(start).String(),
		})
	}
	return o.decisions(p, sol, alg, exceeded, start), nil
}

// decisions materializes the solution into self-describing decision records,
// one per ticket in input order.
func (o *BatchOptimizer) decisions(p *problem, sol []int, alg Algorithm, exceeded bool, start time.Time) []model.AssignmentDecision {
	elapsed := time.Since(start)
	out := make([]model.AssignmentDecision, len(p.tickets))
	for ti, t := range p.tickets {
		dec := model.AssignmentDecision{
			ID:             uuid.New().String(),
			TicketID:       t.ID,
			Algorithm:      string(alg),
			Duration:       elapsed,
			BudgetExceeded: exceeded,
			DecidedAt:      start,
		}
		if ei := sol[ti]; ei >= 0 && p.scores[ti][ei] != nil {
			cs := p.scores[ti][ei]
			dec.ExecutorID = p.executors[ei].ID
			dec.Score = cs.Score
			dec.Factors = copyFactors(cs.Factors)
		} else {
			dec.ExecutorID = model.Unassigned
			dec.Reason = model.ReasonNoCapacity
		}
		out[ti] = dec
	}
	return out
}

func copyFactors(src map[string]float64) map[string]float64 {
	cp := make(map[string]float64, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return cp
}
