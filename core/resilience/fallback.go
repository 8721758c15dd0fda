package resilience

import "github.com/fieldops/dispatch/core/model"

// FallbackRosterVersion identifies the static roster snapshot below. The
// table is versioned rather than cached from live data so that degraded-mode
// behaviour stays fully deterministic and testable.
const FallbackRosterVersion = "2026-07-01"

// FallbackExecutors returns the static default executor list used when the
// roster dependency is unavailable. Every decision produced from this data
// must carry fallback_used=true.
func FallbackExecutors() []model.Executor {
	return []model.Executor{
		{ID: "fb-001", Name: "Standby Crew 1", Skills: []string{"plumbing", model.SkillGeneralist}, Zone: "central", Efficiency: 70, Capacity: 4, Available: true},
		{ID: "fb-002", Name: "Standby Crew 2", Skills: []string{"electrical", model.SkillGeneralist}, Zone: "north", Efficiency: 70, Capacity: 4, Available: true},
		{ID: "fb-003", Name: "Standby Crew 3", Skills: []string{"hvac", model.SkillGeneralist}, Zone: "south", Efficiency: 70, Capacity: 4, Available: true},
		{ID: "fb-004", Name: "Standby Crew 4", Skills: []string{model.SkillGeneralist}, Zone: "east", Efficiency: 65, Capacity: 6, Available: true},
	}
}
