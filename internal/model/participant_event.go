package model

import "time"

// Participant event types recorded by invigilators during the exam.
const (
	EventStartWork = "start_work"
	EventSubmit    = "submit"
	EventExitRoom  = "exit_room"
	EventEnterRoom = "enter_room"
)

// ValidEventType reports whether t is one of the known event types.
func ValidEventType(t string) bool {
	switch t {
	case EventStartWork, EventSubmit, EventExitRoom, EventEnterRoom:
		return true
	}
	return false
}

// ParticipantEvent is one row of the append-only activity log used for
// timing audits.  Repeated identical events are legal (multiple room
// exits are expected); rows are never updated or deleted.
//
// Fields:
//  ID         – primary key identifier.
//  AttemptID  – attempt the event belongs to.
//  EventType  – one of the Event* constants above.
//  Timestamp  – when the event happened.
//  RecordedBy – staff user who recorded the event.
type ParticipantEvent struct {
	ID         uint64    // participant_events.id
	AttemptID  uint64    // participant_events.attempt_id
	EventType  string    // participant_events.event_type
	Timestamp  time.Time // participant_events.timestamp
	RecordedBy uint64    // participant_events.recorded_by
}
