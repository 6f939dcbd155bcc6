package seating

import (
	"context"
	"database/sql"
	"testing"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
)

// fakeSeatStore keeps assignments in memory.  Transactions are ignored;
// the engine only threads them through.
type fakeSeatStore struct {
	stats    []repository.RoomStats
	taken    map[uint64][]int
	existing map[uint64]*model.SeatAssignment
	created  int
}

func (f *fakeSeatStore) GetByRegistrationTx(_ context.Context, _ *sql.Tx, registrationID uint64) (*model.SeatAssignment, error) {
	if sa, ok := f.existing[registrationID]; ok {
		return sa, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSeatStore) RoomStatsTx(_ context.Context, _ *sql.Tx, _ uint64, _ *uint64) ([]repository.RoomStats, error) {
	return f.stats, nil
}

func (f *fakeSeatStore) TakenSeatsTx(_ context.Context, _ *sql.Tx, roomID uint64) ([]int, error) {
	return f.taken[roomID], nil
}

func (f *fakeSeatStore) CreateTx(_ context.Context, _ *sql.Tx, sa *model.SeatAssignment) error {
	f.created++
	sa.ID = uint64(f.created)
	if f.existing == nil {
		f.existing = map[uint64]*model.SeatAssignment{}
	}
	f.existing[sa.RegistrationID] = sa
	return nil
}

func TestAssignSeatTxIdempotent(t *testing.T) {
	want := &model.SeatAssignment{ID: 9, RegistrationID: 42, RoomID: 3, SeatNumber: 7, VariantNumber: 2}
	store := &fakeSeatStore{
		stats:    []repository.RoomStats{{RoomID: 3, Capacity: 10, Occupied: 7}},
		existing: map[uint64]*model.SeatAssignment{42: want},
	}
	e := NewEngine(nil, store, 0)

	got, err := e.AssignSeatTx(context.Background(), nil, 1, nil, 42, 3)
	if err != nil {
		t.Fatalf("AssignSeatTx() error = %v", err)
	}
	if got != want {
		t.Errorf("AssignSeatTx() = %+v, want the existing assignment %+v", got, want)
	}
	if store.created != 0 {
		t.Errorf("AssignSeatTx() inserted %d row(s) for an already-seated registration, want 0", store.created)
	}
}

func TestAssignSeatTxSeatsAndStays(t *testing.T) {
	store := &fakeSeatStore{
		stats: []repository.RoomStats{{RoomID: 1, Capacity: 4}},
		taken: map[uint64][]int{1: {1, 2}},
	}
	e := NewEngine(nil, store, 0)

	first, err := e.AssignSeatTx(context.Background(), nil, 1, nil, 10, 3)
	if err != nil {
		t.Fatalf("AssignSeatTx() error = %v", err)
	}
	if first.RoomID != 1 || first.SeatNumber != 3 || first.VariantNumber != 1 {
		t.Errorf("AssignSeatTx() = room %d seat %d variant %d, want room 1 seat 3 variant 1",
			first.RoomID, first.SeatNumber, first.VariantNumber)
	}

	// A repeated call for the same registration returns the stored row
	// instead of seating twice.
	second, err := e.AssignSeatTx(context.Background(), nil, 1, nil, 10, 3)
	if err != nil {
		t.Fatalf("repeat AssignSeatTx() error = %v", err)
	}
	if second != first {
		t.Errorf("repeat AssignSeatTx() = %+v, want the first assignment back", second)
	}
	if store.created != 1 {
		t.Errorf("two calls inserted %d row(s), want 1", store.created)
	}
}

func TestAssignSeatTxNoRooms(t *testing.T) {
	e := NewEngine(nil, &fakeSeatStore{}, 0)
	if _, err := e.AssignSeatTx(context.Background(), nil, 1, nil, 5, 3); err != repository.ErrNoRoomsConfigured {
		t.Fatalf("AssignSeatTx() error = %v, want ErrNoRoomsConfigured", err)
	}
}

func TestAssignSeatTxCapacityExhausted(t *testing.T) {
	store := &fakeSeatStore{
		stats: []repository.RoomStats{{RoomID: 1, Capacity: 2, Occupied: 2}},
	}
	e := NewEngine(nil, store, 0)
	if _, err := e.AssignSeatTx(context.Background(), nil, 1, nil, 5, 3); err != repository.ErrCapacityExhausted {
		t.Fatalf("AssignSeatTx() error = %v, want ErrCapacityExhausted", err)
	}
}
