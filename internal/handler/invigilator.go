package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/sheets"
)

// eventStore is the slice of the participant-event repository the
// handler needs.
type eventStore interface {
	Create(ctx context.Context, e *model.ParticipantEvent) error
	ListByAttempt(ctx context.Context, attemptID uint64) ([]model.ParticipantEvent, error)
}

// rosterStore lists the seat assignments of a room.
type rosterStore interface {
	ListByRoom(ctx context.Context, roomID uint64) ([]repository.RoomSeat, error)
}

// attemptGetter resolves attempts by id.
type attemptGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Attempt, error)
}

// InvigilatorHandler serves in-room operations: extra sheets, the
// participant activity log, and the room roster.
type InvigilatorHandler struct {
	Sheets   *sheets.Service
	Events   eventStore
	Seats    rosterStore
	Attempts attemptGetter
}

func NewInvigilatorHandler(sh *sheets.Service, ev eventStore,
	seats rosterStore, atts attemptGetter) *InvigilatorHandler {
	return &InvigilatorHandler{Sheets: sh, Events: ev, Seats: seats, Attempts: atts}
}

type extraSheetResp struct {
	SheetID   uint64 `json:"sheet_id"`
	AttemptID uint64 `json:"attempt_id"`
	Token     string `json:"token"`
}

// IssueExtraSheet hands continuation paper to an attempt.  The sheet
// credential in the response exists only here and on the printed sheet.
func (h *InvigilatorHandler) IssueExtraSheet(c echo.Context) error {
	attemptID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attempt id"})
	}
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Sheets.IssueExtra(ctx, attemptID, actorID, clientIP(c))
	if err != nil {
		return writeRepoError(c, err)
	}

	// Extra sheets carry only the QR credential; identity lives on the
	// primary sheet.
	go h.Sheets.Render(context.Background(), res.SheetID, res.AttemptID, sheets.Document{
		Kind:     model.SheetExtra,
		RawToken: res.RawToken,
	})

	return c.JSON(http.StatusCreated, extraSheetResp{
		SheetID:   res.SheetID,
		AttemptID: res.AttemptID,
		Token:     res.RawToken,
	})
}

type recordEventReq struct {
	EventType string     `json:"event_type"`
	Timestamp *time.Time `json:"timestamp"`
}

// RecordEvent appends a participant activity event to an attempt.
// Repeated identical events are legal; the log is append-only.
func (h *InvigilatorHandler) RecordEvent(c echo.Context) error {
	attemptID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attempt id"})
	}
	var req recordEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidEventType(req.EventType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown event type"})
	}
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The log is pure audit data with no coupling to attempt status:
	// an exit recorded after an invalidation is exactly what a later
	// disciplinary review wants to see.
	att, err := h.Attempts.GetByID(ctx, attemptID)
	if err != nil {
		return writeRepoError(c, err)
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}
	ev := &model.ParticipantEvent{
		AttemptID:  att.ID,
		EventType:  req.EventType,
		Timestamp:  ts,
		RecordedBy: actorID,
	}
	if err := h.Events.Create(ctx, ev); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// ListEvents returns the chronological activity log of an attempt.
func (h *InvigilatorHandler) ListEvents(c echo.Context) error {
	attemptID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attempt id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Attempts.GetByID(ctx, attemptID); err != nil {
		return writeRepoError(c, err)
	}
	events, err := h.Events.ListByAttempt(ctx, attemptID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

type rosterEntry struct {
	SeatNumber      int    `json:"seat_number"`
	VariantNumber   int    `json:"variant_number"`
	RegistrationID  uint64 `json:"registration_id"`
	ParticipantName string `json:"participant_name"`
}

// RoomRoster lists who sits where in a room, ordered by seat.
func (h *InvigilatorHandler) RoomRoster(c echo.Context) error {
	roomID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	seats, err := h.Seats.ListByRoom(ctx, roomID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]rosterEntry, 0, len(seats))
	for _, s := range seats {
		out = append(out, rosterEntry{
			SeatNumber:      s.Assignment.SeatNumber,
			VariantNumber:   s.Assignment.VariantNumber,
			RegistrationID:  s.Assignment.RegistrationID,
			ParticipantName: s.ParticipantName,
		})
	}
	return c.JSON(http.StatusOK, out)
}
