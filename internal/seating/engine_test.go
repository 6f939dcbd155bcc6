package seating

import (
	"testing"

	"github.com/iliyamo/olymp-admission/internal/repository"
)

func TestPickRoomPrefersFewestSameInstitution(t *testing.T) {
	stats := []repository.RoomStats{
		{RoomID: 1, Capacity: 10, Occupied: 3, SameInst: 2},
		{RoomID: 2, Capacity: 10, Occupied: 5, SameInst: 0},
		{RoomID: 3, Capacity: 10, Occupied: 1, SameInst: 1},
	}
	got := pickRoom(stats)
	if got == nil || got.RoomID != 2 {
		t.Fatalf("pickRoom() = %+v, want room 2 (zero same-institution occupants)", got)
	}
}

func TestPickRoomTieBreaksByFreeSeats(t *testing.T) {
	stats := []repository.RoomStats{
		{RoomID: 1, Capacity: 10, Occupied: 8, SameInst: 1},
		{RoomID: 2, Capacity: 10, Occupied: 2, SameInst: 1},
	}
	got := pickRoom(stats)
	if got == nil || got.RoomID != 2 {
		t.Fatalf("pickRoom() = %+v, want room 2 (more free seats)", got)
	}
}

func TestPickRoomTieBreakIsDeterministic(t *testing.T) {
	// Identical stats: the lowest room id wins because input is ordered.
	stats := []repository.RoomStats{
		{RoomID: 4, Capacity: 5, Occupied: 1, SameInst: 0},
		{RoomID: 7, Capacity: 5, Occupied: 1, SameInst: 0},
	}
	for i := 0; i < 10; i++ {
		if got := pickRoom(stats); got == nil || got.RoomID != 4 {
			t.Fatalf("pickRoom() = %+v, want room 4 on every run", got)
		}
	}
}

func TestPickRoomSkipsFullRooms(t *testing.T) {
	stats := []repository.RoomStats{
		{RoomID: 1, Capacity: 2, Occupied: 2, SameInst: 0},
		{RoomID: 2, Capacity: 2, Occupied: 1, SameInst: 5},
	}
	got := pickRoom(stats)
	if got == nil || got.RoomID != 2 {
		t.Fatalf("pickRoom() = %+v, want room 2 (room 1 is full)", got)
	}
}

func TestPickRoomAllFull(t *testing.T) {
	stats := []repository.RoomStats{
		{RoomID: 1, Capacity: 2, Occupied: 2},
		{RoomID: 2, Capacity: 3, Occupied: 3},
	}
	if got := pickRoom(stats); got != nil {
		t.Fatalf("pickRoom() = %+v, want nil when every room is full", got)
	}
}

func TestInstitutionSpreading(t *testing.T) {
	// Simulate seating 3 participants of one institution into 2 rooms
	// of capacity 2, updating stats by hand as the DB would.
	stats := []repository.RoomStats{
		{RoomID: 1, Capacity: 2},
		{RoomID: 2, Capacity: 2},
	}
	perRoom := map[uint64]int{}
	for i := 0; i < 3; i++ {
		room := pickRoom(stats)
		if room == nil {
			t.Fatalf("participant %d found no room", i)
		}
		perRoom[room.RoomID]++
		room.Occupied++
		room.SameInst++
	}
	// Expect 2/1, not 3/0.
	for id, n := range perRoom {
		if n > 2 {
			t.Errorf("room %d received %d same-institution participants, want <= 2", id, n)
		}
	}
	if len(perRoom) != 2 {
		t.Errorf("participants concentrated in %d room(s), want 2", len(perRoom))
	}
}

func TestNextFreeSeat(t *testing.T) {
	tests := []struct {
		name     string
		taken    []int
		capacity int
		want     int
	}{
		{"empty room", nil, 5, 1},
		{"gap at start", []int{2, 3}, 5, 1},
		{"gap in middle", []int{1, 2, 4}, 5, 3},
		{"contiguous", []int{1, 2, 3}, 5, 4},
		{"full", []int{1, 2, 3}, 3, 0},
		{"single seat free", []int{1}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextFreeSeat(tt.taken, tt.capacity); got != tt.want {
				t.Errorf("nextFreeSeat(%v, %d) = %d, want %d", tt.taken, tt.capacity, got, tt.want)
			}
		})
	}
}

func TestVariantFor(t *testing.T) {
	tests := []struct {
		seat, variants, want int
	}{
		{1, 3, 2},
		{2, 3, 3},
		{3, 3, 1},
		{4, 3, 2},
		{1, 1, 1},
		{7, 1, 1},
		{5, 0, 1}, // degenerate variants normalised to 1
	}
	for _, tt := range tests {
		if got := variantFor(tt.seat, tt.variants); got != tt.want {
			t.Errorf("variantFor(%d, %d) = %d, want %d", tt.seat, tt.variants, got, tt.want)
		}
	}
}
