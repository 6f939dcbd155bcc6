package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// RoomRepo provides access to the rooms table.  Rooms are created by
// administrators before admission opens.  Once seat assignments
// reference a room, only capacity increases are permitted.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning multiple repositories.
func (r *RoomRepo) DB() *sql.DB { return r.db }

// Create inserts a new room.  The (competition_id, name) unique key
// rejects duplicate names within one competition; callers receive
// ErrConflict in that case.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (competition_id, name, capacity) VALUES (?, ?, ?)`,
		room.CompetitionID, room.Name, room.Capacity)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

// GetByID returns a single room or ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	err := r.db.QueryRowContext(ctx,
		`SELECT id, competition_id, name, capacity, created_at FROM rooms WHERE id = ?`,
		id).Scan(&room.ID, &room.CompetitionID, &room.Name, &room.Capacity, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// RoomOccupancy is a room row joined with its current occupant count.
// Returned by ListByCompetition for the rooms overview.
type RoomOccupancy struct {
	Room     model.Room
	Occupied int
}

// ListByCompetition returns all rooms of a competition with occupant
// counts, ordered by name for deterministic output.
func (r *RoomRepo) ListByCompetition(ctx context.Context, competitionID uint64) ([]RoomOccupancy, error) {
	const q = `SELECT r.id, r.competition_id, r.name, r.capacity, r.created_at,
	                  COUNT(sa.id)
	           FROM rooms r
	           LEFT JOIN seat_assignments sa ON sa.room_id = r.id
	           WHERE r.competition_id = ?
	           GROUP BY r.id, r.competition_id, r.name, r.capacity, r.created_at
	           ORDER BY r.name`
	rows, err := r.db.QueryContext(ctx, q, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RoomOccupancy, 0)
	for rows.Next() {
		var ro RoomOccupancy
		if err := rows.Scan(&ro.Room.ID, &ro.Room.CompetitionID, &ro.Room.Name,
			&ro.Room.Capacity, &ro.Room.CreatedAt, &ro.Occupied); err != nil {
			return nil, err
		}
		out = append(out, ro)
	}
	return out, rows.Err()
}

// UpdateCapacity changes a room's capacity.  Shrinking below the
// current occupant count is refused with ErrConflict: seats already
// handed out cannot be taken back.
func (r *RoomRepo) UpdateCapacity(ctx context.Context, roomID uint64, capacity int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var occupied int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seat_assignments WHERE room_id = ?`, roomID).Scan(&occupied)
	if err != nil {
		return err
	}
	if capacity < occupied {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `UPDATE rooms SET capacity = ? WHERE id = ?`, capacity, roomID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Capacity may equal the stored value; distinguish missing room.
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, roomID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
