package model

import "time"

// Institution is the school or organisation a participant belongs to.
// The seating engine uses it to spread participants of the same
// institution across rooms.  Institutions referenced by existing seat
// assignments must not be deleted; the repository refuses the delete
// instead of silently nulling the reference.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – full institution name, unique.
//  ShortName – optional abbreviation used on printed badges.
//  City      – optional city.
//  CreatedAt – creation timestamp.
type Institution struct {
	ID        uint64    // institutions.id
	Name      string    // institutions.name
	ShortName *string   // institutions.short_name (nullable)
	City      *string   // institutions.city (nullable)
	CreatedAt time.Time // institutions.created_at
}
