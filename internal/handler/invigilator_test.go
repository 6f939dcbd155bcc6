package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
)

type fakeEvents struct {
	created []model.ParticipantEvent
}

func (f *fakeEvents) Create(_ context.Context, e *model.ParticipantEvent) error {
	e.ID = uint64(len(f.created) + 1)
	f.created = append(f.created, *e)
	return nil
}

func (f *fakeEvents) ListByAttempt(_ context.Context, attemptID uint64) ([]model.ParticipantEvent, error) {
	var out []model.ParticipantEvent
	for _, e := range f.created {
		if e.AttemptID == attemptID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAttemptGetter struct {
	att *model.Attempt
}

func (f *fakeAttemptGetter) GetByID(_ context.Context, id uint64) (*model.Attempt, error) {
	if f.att == nil || f.att.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.att, nil
}

func postEvent(t *testing.T, h *InvigilatorHandler, attemptID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/attempts/:id/events")
	c.SetParamNames("id")
	c.SetParamValues(attemptID)
	c.Set("user_id", float64(3))
	if err := h.RecordEvent(c); err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
	return rec
}

func TestRecordEventOnInvalidatedAttempt(t *testing.T) {
	// The activity log is append-only audit data: an exit noted after
	// the attempt was invalidated must still be recorded.
	events := &fakeEvents{}
	h := &InvigilatorHandler{
		Events:   events,
		Attempts: &fakeAttemptGetter{att: &model.Attempt{ID: 7, Status: model.AttemptInvalidated}},
	}

	rec := postEvent(t, h, "7", `{"event_type":"exit_room"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(events.created) != 1 {
		t.Fatalf("events recorded = %d, want 1", len(events.created))
	}
	got := events.created[0]
	if got.AttemptID != 7 || got.EventType != model.EventExitRoom || got.RecordedBy != 3 {
		t.Errorf("recorded event = %+v, want exit_room on attempt 7 by user 3", got)
	}
}

func TestRecordEventRepeatedEntriesAllowed(t *testing.T) {
	events := &fakeEvents{}
	h := &InvigilatorHandler{
		Events:   events,
		Attempts: &fakeAttemptGetter{att: &model.Attempt{ID: 7, Status: model.AttemptScanned}},
	}

	for i := 0; i < 2; i++ {
		if rec := postEvent(t, h, "7", `{"event_type":"exit_room"}`); rec.Code != http.StatusCreated {
			t.Fatalf("call %d: status = %d, want %d", i, rec.Code, http.StatusCreated)
		}
	}
	if len(events.created) != 2 {
		t.Errorf("events recorded = %d, want 2 (log is append-only)", len(events.created))
	}
}

func TestRecordEventUnknownAttempt(t *testing.T) {
	h := &InvigilatorHandler{
		Events:   &fakeEvents{},
		Attempts: &fakeAttemptGetter{},
	}

	rec := postEvent(t, h, "99", `{"event_type":"submit"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRecordEventRejectsUnknownType(t *testing.T) {
	h := &InvigilatorHandler{
		Events:   &fakeEvents{},
		Attempts: &fakeAttemptGetter{att: &model.Attempt{ID: 7, Status: model.AttemptScanned}},
	}

	rec := postEvent(t, h, "7", `{"event_type":"coffee_break"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
