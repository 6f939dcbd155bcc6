package model

import "time"

// Registration statuses.  A registration is APPROVED once the
// participant may show up, ADMITTED when the entry token has been
// redeemed at the door, and COMPLETED once the printed answer sheet
// has been handed over.
const (
	RegistrationApproved  = "APPROVED"
	RegistrationAdmitted  = "ADMITTED"
	RegistrationCompleted = "COMPLETED"
)

// Registration binds a participant to a competition.  Participant
// identity is carried on the registration row; the institution
// reference feeds the seating engine's spreading rule.
//
// Fields:
//  ID              – primary key identifier.
//  CompetitionID   – competition registered for.
//  ParticipantName – display name of the participant.
//  InstitutionID   – participant's institution (nullable for unaffiliated).
//  Status          – APPROVED, ADMITTED or COMPLETED.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Registration struct {
	ID              uint64    // registrations.id
	CompetitionID   uint64    // registrations.competition_id
	ParticipantName string    // registrations.participant_name
	InstitutionID   *uint64   // registrations.institution_id (nullable)
	Status          string    // registrations.status
	CreatedAt       time.Time // registrations.created_at
	UpdatedAt       time.Time // registrations.updated_at
}
