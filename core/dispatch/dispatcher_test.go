package dispatch

import (
	"testing"

	"github.com/fieldops/dispatch/core/geo"
	"github.com/fieldops/dispatch/core/model"
	"github.com/fieldops/dispatch/core/score"
)

func testScorer(t *testing.T) *score.Scorer {
	t.Helper()
	s, err := score.NewScorer(score.Config{}, geo.NewMap(geo.DefaultZones(), 35))
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}
	return s
}

func TestBasicDispatcher_PicksBestScore(t *testing.T) {
	d := NewBasicDispatcher(testScorer(t))
	ticket := model.Ticket{ID: "t1", Category: "plumbing", Urgency: 4}
	execs := []model.Executor{
		{ID: "e1", Skills: []string{"plumbing"}, Efficiency: 85, Capacity: 5, Load: 2, Available: true},
		{ID: "e2", Skills: []string{model.SkillGeneralist}, Efficiency: 92, Capacity: 5, Load: 0, Available: true},
		{ID: "e3", Skills: []string{"plumbing"}, Efficiency: 40, Capacity: 5, Load: 4, Available: true},
	}
	dec := d.Assign(ticket, execs)
	if dec.ExecutorID != "e1" {
		t.Fatalf("expected e1, got %s", dec.ExecutorID)
	}
	if dec.Algorithm != AlgorithmBasic {
		t.Fatalf("algorithm = %s, want %s", dec.Algorithm, AlgorithmBasic)
	}
	if dec.ID == "" {
		t.Fatal("decision must carry an id")
	}
	if dec.Score <= 0 || len(dec.Factors) == 0 {
		t.Fatalf("decision missing score breakdown: %+v", dec)
	}
}

func TestBasicDispatcher_NeverPicksIneligible(t *testing.T) {
	d := NewBasicDispatcher(testScorer(t))
	ticket := model.Ticket{ID: "t1", Category: "electrical", Urgency: 5}
	execs := []model.Executor{
		{ID: "full", Skills: []string{"electrical"}, Efficiency: 99, Capacity: 2, Load: 2, Available: true},
		{ID: "away", Skills: []string{"electrical"}, Efficiency: 99, Capacity: 2, Load: 0, Available: false},
		{ID: "wrong", Skills: []string{"plumbing"}, Efficiency: 99, Capacity: 2, Load: 0, Available: true},
		{ID: "ok", Skills: []string{"electrical"}, Efficiency: 10, Capacity: 2, Load: 1, Available: true},
	}
	dec := d.Assign(ticket, execs)
	if dec.ExecutorID != "ok" {
		t.Fatalf("only eligible executor is ok, got %s", dec.ExecutorID)
	}
}

func TestBasicDispatcher_NoCapacity(t *testing.T) {
	d := NewBasicDispatcher(testScorer(t))
	ticket := model.Ticket{ID: "t1", Category: "hvac", Urgency: 3}
	execs := []model.Executor{
		{ID: "e1", Skills: []string{"hvac"}, Efficiency: 90, Capacity: 1, Load: 1, Available: true},
		{ID: "e2", Skills: []string{"hvac"}, Efficiency: 90, Capacity: 3, Load: 0, Available: false},
	}
	dec := d.Assign(ticket, execs)
	if dec.Assigned() {
		t.Fatalf("expected unassigned decision, got %s", dec.ExecutorID)
	}
	if dec.ExecutorID != model.Unassigned || dec.Reason != model.ReasonNoCapacity {
		t.Fatalf("wrong unassigned decision: %+v", dec)
	}
}

func TestBasicDispatcher_TieBreaks(t *testing.T) {
	d := NewBasicDispatcher(testScorer(t))
	ticket := model.Ticket{ID: "t1", Category: "plumbing", Urgency: 3}

	// Identical load/capacity ratios produce identical scores; the tie breaks
	// on absolute load.
	execs := []model.Executor{
		{ID: "b", Skills: []string{"plumbing"}, Efficiency: 80, Capacity: 4, Load: 1, Available: true},
		{ID: "a", Skills: []string{"plumbing"}, Efficiency: 80, Capacity: 8, Load: 2, Available: true},
	}
	dec := d.Assign(ticket, execs)
	if dec.ExecutorID != "b" {
		t.Fatalf("tie should break on lower load, got %s", dec.ExecutorID)
	}

	// Fully identical snapshots: lowest id wins.
	execs = []model.Executor{
		{ID: "z", Skills: []string{"plumbing"}, Efficiency: 80, Capacity: 4, Load: 1, Available: true},
		{ID: "a", Skills: []string{"plumbing"}, Efficiency: 80, Capacity: 4, Load: 1, Available: true},
	}
	dec = d.Assign(ticket, execs)
	if dec.ExecutorID != "a" {
		t.Fatalf("tie should break on lowest id, got %s", dec.ExecutorID)
	}
}

func TestRank_TopN(t *testing.T) {
	d := NewBasicDispatcher(testScorer(t))
	ticket := model.Ticket{ID: "t1", Category: "plumbing", Urgency: 3}
	execs := []model.Executor{
		{ID: "e1", Skills: []string{"plumbing"}, Efficiency: 85, Capacity: 5, Load: 2, Available: true},
		{ID: "e2", Skills: []string{model.SkillGeneralist}, Efficiency: 92, Capacity: 5, Load: 0, Available: true},
		{ID: "e3", Skills: []string{"plumbing"}, Efficiency: 60, Capacity: 5, Load: 1, Available: true},
		{ID: "e4", Skills: []string{"hvac"}, Efficiency: 99, Capacity: 5, Load: 0, Available: true},
	}
	ranked := d.Rank(ticket, execs, 2)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(ranked))
	}
	if ranked[0].Score < ranked[1].Score {
		t.Fatal("ranking must be descending by score")
	}
	for _, cs := range ranked {
		if cs.ExecutorID == "e4" {
			t.Fatal("ineligible executor must not be ranked")
		}
	}

	again := d.Rank(ticket, execs, 2)
	for i := range ranked {
		if ranked[i].ExecutorID != again[i].ExecutorID {
			t.Fatal("ranking must be deterministic for identical snapshots")
		}
	}
}
