package dispatch

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// maxRelaxPairs bounds the LP size; larger problems skip the bound rather
// than spend the request budget on the solver.
const maxRelaxPairs = 2500

// relaxationBound solves the fractional relaxation of the batch assignment
// problem with the simplex method and returns an upper bound on the fitness
// any feasible assignment can reach. The boolean is false when the problem is
// empty, too large, or the solver fails; callers then simply skip the bound.
//
// Standard form: minimize c*x subject to A*x = b, x >= 0. One variable per
// ticket/executor pair plus one slack per ticket (at most one executor each)
// and one slack per executor (remaining capacity).
func relaxationBound(p *problem) (float64, bool) {
	nT := len(p.tickets)
	nE := len(p.executors)
	pairs := nT * nE
	if pairs == 0 || pairs > maxRelaxPairs {
		return 0, false
	}

	nVars := pairs + nT + nE
	c := make([]float64, nVars)
	for ti := 0; ti < nT; ti++ {
		for ei := 0; ei < nE; ei++ {
			if cs := p.scores[ti][ei]; cs != nil {
				c[ti*nE+ei] = -cs.Score
			}
		}
	}

	a := mat.NewDense(nT+nE, nVars, nil)
	b := make([]float64, nT+nE)
	for ti := 0; ti < nT; ti++ {
		for ei := 0; ei < nE; ei++ {
			a.Set(ti, ti*nE+ei, 1)
		}
		a.Set(ti, pairs+ti, 1)
		b[ti] = 1
	}
	for ei := 0; ei < nE; ei++ {
		for ti := 0; ti < nT; ti++ {
			a.Set(nT+ei, ti*nE+ei, 1)
		}
		a.Set(nT+ei, pairs+nT+ei, 1)
		rem := p.remaining[ei]
		if rem < 0 {
			rem = 0
		}
		b[nT+ei] = float64(rem)
	}

	opt, _, err := lp.Simplex(c, a, b, 1e-7, nil)
	if err != nil {
		return 0, false
	}
	return -opt, true
}
