package model

import "time"

// Attempt statuses.  The happy path is linear:
// PRINTED -> SCANNED -> SCORED -> PUBLISHED.  INVALIDATED is an
// administrative side-exit reachable from any non-published state.
const (
	AttemptPrinted     = "PRINTED"
	AttemptScanned     = "SCANNED"
	AttemptScored      = "SCORED"
	AttemptPublished   = "PUBLISHED"
	AttemptInvalidated = "INVALIDATED"
)

// Attempt is the scored unit of work for one registration.  It owns
// exactly one primary answer sheet and any number of extra sheets; the
// final score derives only from the primary sheet.
//
// Fields:
//  ID             – primary key identifier.
//  RegistrationID – registration this attempt belongs to (unique).
//  Status         – one of the Attempt* constants above.
//  ScoreTotal     – total score (null until scored).
//  Confidence     – OCR confidence behind an auto-applied score (null
//                   when the score was entered or verified manually).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Attempt struct {
	ID             uint64     // attempts.id
	RegistrationID uint64     // attempts.registration_id
	Status         string     // attempts.status
	ScoreTotal     *int       // attempts.score_total (nullable)
	Confidence     *float64   // attempts.confidence (nullable)
	CreatedAt      time.Time  // attempts.created_at
	UpdatedAt      time.Time  // attempts.updated_at
}

// CanApplyScore reports whether a score may be written in the current
// status.  Re-scoring an already SCORED attempt is allowed so that a
// manual verification can overwrite an earlier OCR result.
func CanApplyScore(status string) bool {
	switch status {
	case AttemptPrinted, AttemptScanned, AttemptScored:
		return true
	}
	return false
}

// CanPublish reports whether the attempt may move to PUBLISHED.  Only
// scored attempts can be published.
func CanPublish(status string) bool { return status == AttemptScored }

// CanInvalidate reports whether the attempt may move to INVALIDATED.
// Published results are final and cannot be invalidated.
func CanInvalidate(status string) bool {
	return status != AttemptPublished && status != AttemptInvalidated
}
