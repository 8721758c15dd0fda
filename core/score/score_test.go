package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldops/dispatch/core/geo"
	"github.com/fieldops/dispatch/core/model"
)

func testScorer(t *testing.T, cfg Config) *Scorer {
	t.Helper()
	s, err := NewScorer(cfg, geo.NewMap(geo.DefaultZones(), 35))
	require.NoError(t, err)
	return s
}

func TestWeights_Validate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights must validate: %v", err)
	}
	bad := Weights{SkillMatch: 0.5, Efficiency: 0.3, Workload: 0.3, Availability: 0.1}
	if err := bad.Validate(); err == nil {
		t.Fatal("weights summing to 1.2 must be rejected")
	}
	neg := Weights{SkillMatch: -0.1, Efficiency: 0.6, Workload: 0.3, Availability: 0.2}
	if err := neg.Validate(); err == nil {
		t.Fatal("negative weight must be rejected")
	}
}

func TestNewScorer_FailsFastOnBadWeights(t *testing.T) {
	cfg := Config{Weights: Weights{SkillMatch: 1, Efficiency: 1}}
	if _, err := NewScorer(cfg, nil); err == nil {
		t.Fatal("expected error for weights summing to 2.0")
	}
}

func TestNewScorer_GeoWeightRequiresZones(t *testing.T) {
	cfg := Config{Weights: Weights{SkillMatch: 0.3, Efficiency: 0.3, Workload: 0.2, Availability: 0.1, GeoProximity: 0.1}}
	if _, err := NewScorer(cfg, nil); err == nil {
		t.Fatal("geo weight without zone map must fail")
	}
	if _, err := NewScorer(cfg, geo.NewMap(geo.DefaultZones(), 35)); err != nil {
		t.Fatalf("geo weight with zone map must pass: %v", err)
	}
}

func TestScore_SpecialistBeatsGeneralist(t *testing.T) {
	s := testScorer(t, Config{})
	ticket := model.Ticket{ID: "t1", Category: "plumbing", Urgency: 4}
	specialist := model.Executor{
		ID: "e1", Skills: []string{"plumbing"}, Efficiency: 85,
		Capacity: 5, Load: 2, Available: true,
	}
	generalist := model.Executor{
		ID: "e2", Skills: []string{model.SkillGeneralist}, Efficiency: 92,
		Capacity: 5, Load: 0, Available: true,
	}

	cs := s.Score(ticket, specialist)
	require.InDelta(t, 0.875, cs.Score, 1e-9)
	require.InDelta(t, 1.0, cs.Factors[model.FactorSkillMatch], 1e-9)
	require.InDelta(t, 0.85, cs.Factors[model.FactorEfficiency], 1e-9)
	require.InDelta(t, 0.6, cs.Factors[model.FactorWorkload], 1e-9)
	require.InDelta(t, 1.0, cs.Factors[model.FactorAvailability], 1e-9)

	gs := s.Score(ticket, generalist)
	require.InDelta(t, 0.5, gs.Factors[model.FactorSkillMatch], 1e-9)
	require.Greater(t, cs.Score, gs.Score)
}

func TestScore_BreakdownReproducesTotal(t *testing.T) {
	cfg := Config{Weights: Weights{SkillMatch: 0.35, Efficiency: 0.25, Workload: 0.15, Availability: 0.10, GeoProximity: 0.15}}
	s := testScorer(t, cfg)
	ticket := model.Ticket{ID: "t1", Category: "hvac", Zone: "north", Urgency: 3}
	execs := []model.Executor{
		{ID: "e1", Skills: []string{"hvac"}, Zone: "north", Efficiency: 77, Capacity: 3, Load: 1, Available: true},
		{ID: "e2", Skills: []string{model.SkillGeneralist}, Zone: "airport", Efficiency: 50, Capacity: 6, Load: 5, Available: true},
		{ID: "e3", Skills: []string{"hvac"}, Zone: "unmapped", Efficiency: 100, Capacity: 2, Load: 0, Available: false},
	}
	w := s.Weights()
	for _, e := range execs {
		cs := s.Score(ticket, e)
		sum := cs.Factors[model.FactorSkillMatch]*w.SkillMatch +
			cs.Factors[model.FactorEfficiency]*w.Efficiency +
			cs.Factors[model.FactorWorkload]*w.Workload +
			cs.Factors[model.FactorAvailability]*w.Availability +
			cs.Factors[model.FactorGeoProximity]*w.GeoProximity
		if math.Abs(sum-cs.Score) > 1e-6 {
			t.Fatalf("executor %s: breakdown sum %f != score %f", e.ID, sum, cs.Score)
		}
		for name, v := range cs.Factors {
			if v < 0 || v > 1 {
				t.Fatalf("executor %s: factor %s out of [0,1]: %f", e.ID, name, v)
			}
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := testScorer(t, Config{})
	ticket := model.Ticket{ID: "t1", Category: "electrical", Urgency: 2}
	e := model.Executor{ID: "e1", Skills: []string{"electrical"}, Efficiency: 64, Capacity: 4, Load: 1, Available: true}
	first := s.Score(ticket, e)
	for i := 0; i < 100; i++ {
		if got := s.Score(ticket, e); got.Score != first.Score {
			t.Fatalf("score not deterministic: %f vs %f", got.Score, first.Score)
		}
	}
}

func TestScore_GeoProximity(t *testing.T) {
	cfg := Config{Weights: Weights{SkillMatch: 0.3, Efficiency: 0.2, Workload: 0.2, Availability: 0.1, GeoProximity: 0.2}}
	s := testScorer(t, cfg)
	ticket := model.Ticket{ID: "t1", Category: "hvac", Zone: "central", Urgency: 3}
	base := model.Executor{ID: "e1", Skills: []string{"hvac"}, Efficiency: 80, Capacity: 4, Load: 0, Available: true}

	same := base
	same.Zone = "central"
	far := base
	far.Zone = "airport"
	unknown := base
	unknown.Zone = "elsewhere"

	if got := s.Score(ticket, same).Factors[model.FactorGeoProximity]; got != 1.0 {
		t.Fatalf("same zone proximity = %f, want 1.0", got)
	}
	farProx := s.Score(ticket, far).Factors[model.FactorGeoProximity]
	if farProx <= 0 || farProx >= 1 {
		t.Fatalf("distant zone proximity = %f, want in (0,1)", farProx)
	}
	if got := s.Score(ticket, unknown).Factors[model.FactorGeoProximity]; got != neutralProximity {
		t.Fatalf("unknown zone proximity = %f, want %f", got, neutralProximity)
	}
}

func TestWithFactors_MasksWithoutRenormalizing(t *testing.T) {
	s := testScorer(t, Config{})
	restricted := s.WithFactors(model.FactorSkillMatch, model.FactorAvailability)

	ticket := model.Ticket{ID: "t1", Category: "plumbing", Urgency: 3}
	e := model.Executor{ID: "e1", Skills: []string{"plumbing"}, Efficiency: 90, Capacity: 4, Load: 0, Available: true}

	cs := restricted.Score(ticket, e)
	require.InDelta(t, 0.5, cs.Score, 1e-9) // 1.0*0.4 + 1.0*0.1
	require.Zero(t, cs.Factors[model.FactorEfficiency])
	require.Zero(t, cs.Factors[model.FactorWorkload])

	// The original scorer is unchanged.
	full := s.Score(ticket, e)
	require.Greater(t, full.Score, cs.Score)
}
