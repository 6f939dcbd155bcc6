package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// SeatAssignmentRepo provides access to the seat_assignments table.
// Correctness of concurrent assignment rests on two unique keys:
// (room_id, seat_number) and registration_id.  The repository never
// updates rows; an assignment is immutable once created.
type SeatAssignmentRepo struct {
	db *sql.DB
}

// NewSeatAssignmentRepo returns a SeatAssignmentRepo bound to the database.
func NewSeatAssignmentRepo(db *sql.DB) *SeatAssignmentRepo { return &SeatAssignmentRepo{db: db} }

// GetByRegistrationTx returns the existing assignment for a
// registration, or ErrNotFound.  Used for the idempotence check before
// assigning.
func (r *SeatAssignmentRepo) GetByRegistrationTx(ctx context.Context, tx *sql.Tx, registrationID uint64) (*model.SeatAssignment, error) {
	var sa model.SeatAssignment
	err := tx.QueryRowContext(ctx,
		`SELECT id, registration_id, room_id, seat_number, variant_number, created_at
		 FROM seat_assignments WHERE registration_id = ?`,
		registrationID).Scan(&sa.ID, &sa.RegistrationID, &sa.RoomID, &sa.SeatNumber, &sa.VariantNumber, &sa.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

// GetByRegistration is the non-transactional variant.
func (r *SeatAssignmentRepo) GetByRegistration(ctx context.Context, registrationID uint64) (*model.SeatAssignment, error) {
	var sa model.SeatAssignment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, registration_id, room_id, seat_number, variant_number, created_at
		 FROM seat_assignments WHERE registration_id = ?`,
		registrationID).Scan(&sa.ID, &sa.RegistrationID, &sa.RoomID, &sa.SeatNumber, &sa.VariantNumber, &sa.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

// RoomStats summarises a room for the selection step: how many seats
// are taken in total and how many of the occupants share the candidate
// participant's institution.
type RoomStats struct {
	RoomID   uint64
	Name     string
	Capacity int
	Occupied int
	SameInst int
}

// RoomStatsTx lists every room of the competition with occupancy
// counts, same-institution counts computed against institutionID (nil
// for unaffiliated participants), ordered by room id for deterministic
// tie-breaking.
func (r *SeatAssignmentRepo) RoomStatsTx(ctx context.Context, tx *sql.Tx, competitionID uint64, institutionID *uint64) ([]RoomStats, error) {
	// COALESCE(SUM(...), 0) turns the NULL of an empty room into zero.
	// For unaffiliated participants every room counts zero same-inst
	// occupants, so the tie-break (most free seats) decides alone.
	const q = `SELECT r.id, r.name, r.capacity,
	                  COUNT(sa.id),
	                  COALESCE(SUM(reg.institution_id = ?), 0)
	           FROM rooms r
	           LEFT JOIN seat_assignments sa ON sa.room_id = r.id
	           LEFT JOIN registrations reg ON reg.id = sa.registration_id
	           WHERE r.competition_id = ?
	           GROUP BY r.id, r.name, r.capacity
	           ORDER BY r.id`
	var inst interface{}
	if institutionID != nil {
		inst = *institutionID
	}
	rows, err := tx.QueryContext(ctx, q, inst, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []RoomStats
	for rows.Next() {
		var s RoomStats
		if err := rows.Scan(&s.RoomID, &s.Name, &s.Capacity, &s.Occupied, &s.SameInst); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// TakenSeatsTx returns the occupied seat numbers of a room in
// ascending order.
func (r *SeatAssignmentRepo) TakenSeatsTx(ctx context.Context, tx *sql.Tx, roomID uint64) ([]int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_number FROM seat_assignments WHERE room_id = ? ORDER BY seat_number`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}

// CreateTx inserts the assignment.  A duplicate key error means a
// concurrent admission won the same seat (or the same registration was
// assigned twice); callers detect it with IsDuplicateKey and retry.
func (r *SeatAssignmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, sa *model.SeatAssignment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO seat_assignments (registration_id, room_id, seat_number, variant_number)
		 VALUES (?, ?, ?, ?)`,
		sa.RegistrationID, sa.RoomID, sa.SeatNumber, sa.VariantNumber)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sa.ID = uint64(id)
	return nil
}

// ListByRoom returns all assignments of a room joined with participant
// names, ordered by seat number.  Consumed by the invigilator's room
// roster.
func (r *SeatAssignmentRepo) ListByRoom(ctx context.Context, roomID uint64) ([]RoomSeat, error) {
	const q = `SELECT sa.id, sa.registration_id, sa.room_id, sa.seat_number, sa.variant_number,
	                  sa.created_at, reg.participant_name
	           FROM seat_assignments sa
	           JOIN registrations reg ON reg.id = sa.registration_id
	           WHERE sa.room_id = ?
	           ORDER BY sa.seat_number`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RoomSeat, 0)
	for rows.Next() {
		var rs RoomSeat
		if err := rows.Scan(&rs.Assignment.ID, &rs.Assignment.RegistrationID, &rs.Assignment.RoomID,
			&rs.Assignment.SeatNumber, &rs.Assignment.VariantNumber, &rs.Assignment.CreatedAt,
			&rs.ParticipantName); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// RoomSeat pairs an assignment with the seated participant's name.
type RoomSeat struct {
	Assignment      model.SeatAssignment
	ParticipantName string
}
