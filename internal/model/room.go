package model

import "time"

// Room is an exam room of a competition.  Rooms are created by an
// administrator before admission opens.  Once seat assignments
// reference a room it is immutable except for capacity increases.
//
// Fields:
//  ID            – primary key identifier.
//  CompetitionID – competition this room belongs to.
//  Name          – room name, unique per competition.
//  Capacity      – number of seats, numbered 1..Capacity.
//  CreatedAt     – creation timestamp.
type Room struct {
	ID            uint64    // rooms.id
	CompetitionID uint64    // rooms.competition_id
	Name          string    // rooms.name
	Capacity      int       // rooms.capacity
	CreatedAt     time.Time // rooms.created_at
}
