package model

import "time"

// SeatAssignment is the durable (room, seat, variant) triple bound to a
// registration.  Created exactly once; re-running the assignment for
// the same registration returns the existing row unchanged.  The
// (room_id, seat_number) pair is unique, which is what makes the
// lock-free assignment algorithm safe under concurrency.
//
// Fields:
//  ID             – primary key identifier.
//  RegistrationID – registration the seat belongs to (unique).
//  RoomID         – assigned room.
//  SeatNumber     – seat within the room, 1..capacity.
//  VariantNumber  – problem variant, (seat_number % variants_count) + 1.
//  CreatedAt      – creation timestamp.
type SeatAssignment struct {
	ID             uint64    // seat_assignments.id
	RegistrationID uint64    // seat_assignments.registration_id
	RoomID         uint64    // seat_assignments.room_id
	SeatNumber     int       // seat_assignments.seat_number
	VariantNumber  int       // seat_assignments.variant_number
	CreatedAt      time.Time // seat_assignments.created_at
}
