// Package seating implements the deterministic room/seat/variant
// assignment.  Participants from the same institution are spread across
// rooms to reduce collusion opportunity.  The algorithm holds no locks:
// it reads occupancy, picks a seat, and lets the (room_id, seat_number)
// unique key abort the transaction when a concurrent admission raced
// for the same seat, retrying a bounded number of times.
package seating

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
)

// DefaultRetries bounds how often a lost seat race is retried before
// the conflict surfaces to the caller.
const DefaultRetries = 3

// SeatStore is the slice of the seat-assignment repository the engine
// reads and writes.
type SeatStore interface {
	GetByRegistrationTx(ctx context.Context, tx *sql.Tx, registrationID uint64) (*model.SeatAssignment, error)
	RoomStatsTx(ctx context.Context, tx *sql.Tx, competitionID uint64, institutionID *uint64) ([]repository.RoomStats, error)
	TakenSeatsTx(ctx context.Context, tx *sql.Tx, roomID uint64) ([]int, error)
	CreateTx(ctx context.Context, tx *sql.Tx, sa *model.SeatAssignment) error
}

// Engine assigns seats.  It is constructed once with its repositories
// and is safe for concurrent use.
type Engine struct {
	seats   SeatStore
	db      *sql.DB
	retries int
}

// NewEngine returns an Engine.  retries <= 0 selects DefaultRetries.
func NewEngine(db *sql.DB, seats SeatStore, retries int) *Engine {
	if retries <= 0 {
		retries = DefaultRetries
	}
	return &Engine{seats: seats, db: db, retries: retries}
}

// AssignSeatTx runs one assignment attempt inside the caller's
// transaction.  It returns the existing assignment when the
// registration is already seated (idempotence), otherwise it picks a
// room and seat and inserts the row.  A duplicate-key error from the
// insert propagates unchanged so the caller can roll back the whole
// transaction and retry; use repository.IsDuplicateKey to detect it.
func (e *Engine) AssignSeatTx(ctx context.Context, tx *sql.Tx, competitionID uint64, institutionID *uint64, registrationID uint64, variantsCount int) (*model.SeatAssignment, error) {
	existing, err := e.seats.GetByRegistrationTx(ctx, tx, registrationID)
	if err == nil {
		return existing, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	stats, err := e.seats.RoomStatsTx(ctx, tx, competitionID, institutionID)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, repository.ErrNoRoomsConfigured
	}

	room := pickRoom(stats)
	if room == nil {
		return nil, repository.ErrCapacityExhausted
	}

	taken, err := e.seats.TakenSeatsTx(ctx, tx, room.RoomID)
	if err != nil {
		return nil, err
	}
	seat := nextFreeSeat(taken, room.Capacity)
	if seat == 0 {
		// Occupancy moved between the stats read and the seat read;
		// treat as a lost race and let the caller retry.
		return nil, repository.ErrCapacityExhausted
	}

	sa := &model.SeatAssignment{
		RegistrationID: registrationID,
		RoomID:         room.RoomID,
		SeatNumber:     seat,
		VariantNumber:  variantFor(seat, variantsCount),
	}
	if err := e.seats.CreateTx(ctx, tx, sa); err != nil {
		return nil, err
	}
	return sa, nil
}

// AssignSeat is the standalone entry point used when seating is
// re-run outside admission (e.g. after adding rooms).  Each attempt is
// its own transaction; a seat conflict rolls back and retries up to the
// configured bound.
func (e *Engine) AssignSeat(ctx context.Context, competitionID uint64, institutionID *uint64, registrationID uint64, variantsCount int) (*model.SeatAssignment, error) {
	for attempt := 0; attempt < e.retries; attempt++ {
		sa, err := e.assignOnce(ctx, competitionID, institutionID, registrationID, variantsCount)
		if err == nil {
			return sa, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
	}
	// Retries exhausted under contention.
	return nil, repository.ErrCapacityExhausted
}

func (e *Engine) assignOnce(ctx context.Context, competitionID uint64, institutionID *uint64, registrationID uint64, variantsCount int) (*model.SeatAssignment, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	sa, err := e.AssignSeatTx(ctx, tx, competitionID, institutionID, registrationID, variantsCount)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return sa, nil
}

// pickRoom selects the room with the fewest same-institution occupants
// among rooms with free seats.  Ties prefer the room with the most free
// seats; remaining ties fall to the lowest room id because the input is
// ordered by id.  Returns nil when every room is full.
func pickRoom(stats []repository.RoomStats) *repository.RoomStats {
	var best *repository.RoomStats
	bestFree := -1
	for i := range stats {
		s := &stats[i]
		free := s.Capacity - s.Occupied
		if free <= 0 {
			continue
		}
		if best == nil || s.SameInst < best.SameInst ||
			(s.SameInst == best.SameInst && free > bestFree) {
			best = s
			bestFree = free
		}
	}
	return best
}

// nextFreeSeat returns the lowest unused seat number in 1..capacity,
// or 0 when the room is full.  taken must be sorted ascending.
func nextFreeSeat(taken []int, capacity int) int {
	seat := 1
	for _, t := range taken {
		if t > seat {
			break
		}
		if t == seat {
			seat++
		}
	}
	if seat > capacity {
		return 0
	}
	return seat
}

// variantFor computes the problem variant for a seat.  Neighbouring
// seats cycle through variants so adjacent participants never share
// one (for variantsCount > 1).
func variantFor(seatNumber, variantsCount int) int {
	if variantsCount < 1 {
		variantsCount = 1
	}
	return (seatNumber % variantsCount) + 1
}
