package model

import "fmt"

// SkillGeneralist marks an executor that may take tickets of any category at
// partial skill credit.
const SkillGeneralist = "general"

// Executor represents a field worker eligible for assignment. The roster
// service owns the canonical record; instances handled here are snapshots.
type Executor struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Skills     []string `json:"skills"`
	Zone       string   `json:"zone"`       // home zone
	Efficiency float64  `json:"efficiency"` // historical rating, 0-100
	Capacity   int      `json:"capacity"`   // max concurrent tickets
	Load       int      `json:"load"`       // currently assigned tickets
	Available  bool     `json:"available"`
}

// HasSkill reports whether the executor carries the given skill tag.
func (e Executor) HasSkill(tag string) bool {
	for _, s := range e.Skills {
		if s == tag {
			return true
		}
	}
	return false
}

// HasCapacity reports whether the executor can take one more ticket.
func (e Executor) HasCapacity() bool {
	return e.Load < e.Capacity
}

// Eligible reports whether the executor may be considered for the ticket
// outside of emergency mode: available, spare capacity and at least the
// matching skill tag or the generalist tag.
func (e Executor) Eligible(t Ticket) bool {
	if !e.Available || !e.HasCapacity() {
		return false
	}
	return e.HasSkill(t.Category) || e.HasSkill(SkillGeneralist)
}

// Validate checks that the executor snapshot is sound.
func (e Executor) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("executor id must not be empty")
	}
	if e.Efficiency < 0 || e.Efficiency > 100 {
		return fmt.Errorf("executor %s: efficiency %.1f out of range [0,100]", e.ID, e.Efficiency)
	}
	if e.Capacity <= 0 {
		return fmt.Errorf("executor %s: capacity must be positive", e.ID)
	}
	if e.Load < 0 || e.Load > e.Capacity {
		return fmt.Errorf("executor %s: load %d out of range [0,%d]", e.ID, e.Load, e.Capacity)
	}
	return nil
}
