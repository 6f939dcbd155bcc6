package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// ParticipantEventRepo provides append-only access to the
// participant_events table.  There are no update or delete methods on
// purpose: the event log is an audit trail.
type ParticipantEventRepo struct {
	db *sql.DB
}

// NewParticipantEventRepo returns a ParticipantEventRepo bound to the database.
func NewParticipantEventRepo(db *sql.DB) *ParticipantEventRepo {
	return &ParticipantEventRepo{db: db}
}

// Create appends an event.  Repeated identical events are legal and not
// deduplicated; a participant leaving the room twice produces two rows.
func (r *ParticipantEventRepo) Create(ctx context.Context, e *model.ParticipantEvent) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO participant_events (attempt_id, event_type, timestamp, recorded_by)
		 VALUES (?, ?, ?, ?)`,
		e.AttemptID, e.EventType, e.Timestamp.UTC(), e.RecordedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListByAttempt returns every event of an attempt in chronological
// order for the invigilator's timing audit.
func (r *ParticipantEventRepo) ListByAttempt(ctx context.Context, attemptID uint64) ([]model.ParticipantEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, attempt_id, event_type, timestamp, recorded_by
		 FROM participant_events WHERE attempt_id = ?
		 ORDER BY timestamp, id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ParticipantEvent, 0)
	for rows.Next() {
		var e model.ParticipantEvent
		if err := rows.Scan(&e.ID, &e.AttemptID, &e.EventType, &e.Timestamp, &e.RecordedBy); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
