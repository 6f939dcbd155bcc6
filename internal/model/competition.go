package model

import "time"

// Competition represents a physical-exam style competition for which
// participants register, get admitted and have their answer sheets
// scored.  VariantsCount drives the deterministic variant assignment
// performed by the seating engine.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – human-readable competition name.
//  Status        – lifecycle state (DRAFT, OPEN, RUNNING, FINISHED).
//  VariantsCount – number of distinct problem variants (>= 1).
//  StartsAt      – scheduled start time (nullable until planned).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Competition struct {
	ID            uint64     // competitions.id
	Name          string     // competitions.name
	Status        string     // competitions.status
	VariantsCount int        // competitions.variants_count
	StartsAt      *time.Time // competitions.starts_at (nullable)
	CreatedAt     time.Time  // competitions.created_at
	UpdatedAt     time.Time  // competitions.updated_at
}
