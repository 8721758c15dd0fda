package model

import (
	"fmt"
	"time"
)

// Ticket is a unit of work requiring a field executor. Tickets are owned by
// the external ticketing service; this engine only receives read-only copies.
type Ticket struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"` // skill tag required by the work
	Urgency     int       `json:"urgency"`  // ordinal 1 (lowest) to 5 (highest)
	Description string    `json:"description"`
	Zone        string    `json:"zone"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks that the ticket is well formed.
func (t Ticket) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("ticket id must not be empty")
	}
	if t.Urgency < 1 || t.Urgency > 5 {
		return fmt.Errorf("ticket %s: urgency %d out of range [1,5]", t.ID, t.Urgency)
	}
	return nil
}
