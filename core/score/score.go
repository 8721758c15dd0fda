// Package score computes weighted compatibility scores between tickets and
// executors. Scoring is deterministic and side-effect free: identical inputs
// always produce identical scores.
package score

import (
	"fmt"
	"math"

	"github.com/fieldops/dispatch/core/geo"
	"github.com/fieldops/dispatch/core/model"
)

// WeightTolerance is the allowed deviation of the weight sum from 1.0.
const WeightTolerance = 1e-6

// Weights holds the relative importance of each scoring factor. The sum of
// all five must be 1.0 within WeightTolerance.
type Weights struct {
	SkillMatch   float64 `json:"skill_match"`
	Efficiency   float64 `json:"efficiency"`
	Workload     float64 `json:"workload_balance"`
	Availability float64 `json:"availability"`
	GeoProximity float64 `json:"geo_proximity"`
}

// DefaultWeights returns the standard weight set without the geo term.
func DefaultWeights() Weights {
	return Weights{
		SkillMatch:   0.40,
		Efficiency:   0.30,
		Workload:     0.20,
		Availability: 0.10,
		GeoProximity: 0,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.SkillMatch + w.Efficiency + w.Workload + w.Availability + w.GeoProximity
}

// Validate rejects weight sets that are negative or do not sum to 1.0.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		model.FactorSkillMatch:   w.SkillMatch,
		model.FactorEfficiency:   w.Efficiency,
		model.FactorWorkload:     w.Workload,
		model.FactorAvailability: w.Availability,
		model.FactorGeoProximity: w.GeoProximity,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative: %f", name, v)
		}
	}
	if s := w.Sum(); math.Abs(s-1.0) > WeightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %f", s)
	}
	return nil
}

// Config carries the scoring configuration surface.
type Config struct {
	Weights Weights `json:"weights"`
	// PartialSkillCredit is the skill_match value granted to executors that
	// only carry the generalist tag.
	PartialSkillCredit float64 `json:"partial_skill_credit"`
	// GeoCeilingKm is the distance at and beyond which geo_proximity is zero.
	GeoCeilingKm float64 `json:"geo_ceiling_km"`
}

// SetDefaults fills zero values with documented defaults.
func (c *Config) SetDefaults() {
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	if c.PartialSkillCredit == 0 {
		c.PartialSkillCredit = 0.5
	}
	if c.GeoCeilingKm == 0 {
		c.GeoCeilingKm = 50
	}
}

// Validate fails fast on a misconfigured scorer.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.PartialSkillCredit < 0 || c.PartialSkillCredit > 1 {
		return fmt.Errorf("partial_skill_credit %f out of range [0,1]", c.PartialSkillCredit)
	}
	if c.GeoCeilingKm <= 0 {
		return fmt.Errorf("geo_ceiling_km must be positive")
	}
	return nil
}

// neutralProximity is used when either zone is unknown to the zone table.
const neutralProximity = 0.5

// Scorer computes candidate scores under a fixed weight configuration.
type Scorer struct {
	cfg   Config
	zones *geo.Map
	mask  map[string]bool // nil means all factors enabled
}

// NewScorer builds a Scorer. A zone map is required whenever the geo weight
// is non-zero.
func NewScorer(cfg Config, zones *geo.Map) (*Scorer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Weights.GeoProximity > 0 && zones == nil {
		return nil, fmt.Errorf("geo_proximity weight is %f but no zone map configured", cfg.Weights.GeoProximity)
	}
	return &Scorer{cfg: cfg, zones: zones}, nil
}

// Weights returns the configured weight set.
func (s *Scorer) Weights() Weights {
	return s.cfg.Weights
}

// WithFactors returns a copy of the scorer that only considers the named
// factors. Disabled factors report 0 in the breakdown and contribute nothing
// to the score; weights are not renormalized so scores from restricted
// scorers remain comparable to full ones.
func (s *Scorer) WithFactors(names ...string) *Scorer {
	mask := make(map[string]bool, len(names))
	for _, n := range names {
		mask[n] = true
	}
	cp := *s
	cp.mask = mask
	return &cp
}

func (s *Scorer) enabled(factor string) bool {
	return s.mask == nil || s.mask[factor]
}

// Score computes the weighted compatibility of one ticket/executor pair.
// The breakdown holds raw factor values; Score is their weighted sum.
func (s *Scorer) Score(t model.Ticket, e model.Executor) model.CandidateScore {
	f := map[string]float64{
		model.FactorSkillMatch:   0,
		model.FactorEfficiency:   0,
		model.FactorWorkload:     0,
		model.FactorAvailability: 0,
		model.FactorGeoProximity: 0,
	}

	if s.enabled(model.FactorSkillMatch) {
		if e.HasSkill(t.Category) {
			f[model.FactorSkillMatch] = 1.0
		} else {
			f[model.FactorSkillMatch] = s.cfg.PartialSkillCredit
		}
	}
	if s.enabled(model.FactorEfficiency) {
		f[model.FactorEfficiency] = clamp01(e.Efficiency / 100)
	}
	if s.enabled(model.FactorWorkload) && e.Capacity > 0 {
		f[model.FactorWorkload] = clamp01(1 - float64(e.Load)/float64(e.Capacity))
	}
	if s.enabled(model.FactorAvailability) && e.Available {
		f[model.FactorAvailability] = 1.0
	}
	if s.enabled(model.FactorGeoProximity) && s.cfg.Weights.GeoProximity > 0 {
		f[model.FactorGeoProximity] = s.proximity(e.Zone, t.Zone)
	}

	w := s.cfg.Weights
	total := f[model.FactorSkillMatch]*w.SkillMatch +
		f[model.FactorEfficiency]*w.Efficiency +
		f[model.FactorWorkload]*w.Workload +
		f[model.FactorAvailability]*w.Availability +
		f[model.FactorGeoProximity]*w.GeoProximity

	return model.CandidateScore{
		TicketID:   t.ID,
		ExecutorID: e.ID,
		Score:      total,
		Factors:    f,
	}
}

// proximity maps zone distance to [0,1]: same zone scores 1.0, distances at
// or beyond the ceiling score 0. Unknown zones score neutral.
func (s *Scorer) proximity(from, to string) float64 {
	d, ok := s.zones.Distance(from, to)
	if !ok {
		return neutralProximity
	}
	if d >= s.cfg.GeoCeilingKm {
		return 0
	}
	return 1 - d/s.cfg.GeoCeilingKm
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
