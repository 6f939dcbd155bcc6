package admission

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/token"
)

// stubDriver backs a *sql.DB whose transactions are no-ops, so the
// approval flow can run against in-memory stores.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() { sql.Register("admissionstub", stubDriver{}) }

func openStubDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("admissionstub", "")
	if err != nil {
		t.Fatalf("open stub db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeEntryTokens struct {
	token model.EntryToken
}

func (f *fakeEntryTokens) lookup(hash string) (*model.EntryToken, error) {
	if hash != f.token.TokenHash {
		return nil, repository.ErrInvalidToken
	}
	cp := f.token
	return &cp, nil
}

func (f *fakeEntryTokens) GetByHash(_ context.Context, hash string) (*model.EntryToken, error) {
	return f.lookup(hash)
}

func (f *fakeEntryTokens) GetByHashTx(_ context.Context, _ *sql.Tx, hash string) (*model.EntryToken, error) {
	return f.lookup(hash)
}

func (f *fakeEntryTokens) MarkUsedTx(_ context.Context, _ *sql.Tx, id uint64) error {
	if f.token.ID != id {
		return repository.ErrInvalidToken
	}
	if f.token.UsedAt != nil {
		return repository.ErrTokenAlreadyUsed
	}
	now := time.Now().UTC()
	f.token.UsedAt = &now
	return nil
}

type fakeRegs struct {
	reg model.Registration
}

func (f *fakeRegs) GetDetail(_ context.Context, id uint64) (*repository.Detail, error) {
	if f.reg.ID != id {
		return nil, repository.ErrNotFound
	}
	return &repository.Detail{Registration: f.reg, CompetitionName: "City Olympiad", VariantsCount: 3}, nil
}

func (f *fakeRegs) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Registration, error) {
	if f.reg.ID != id {
		return nil, repository.ErrNotFound
	}
	cp := f.reg
	return &cp, nil
}

func (f *fakeRegs) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, status string) error {
	if f.reg.ID != id {
		return repository.ErrNotFound
	}
	f.reg.Status = status
	return nil
}

type fakeComps struct{}

func (fakeComps) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Competition, error) {
	return &model.Competition{ID: id, Name: "City Olympiad", VariantsCount: 3}, nil
}

type fakeRooms struct{}

func (fakeRooms) GetByID(_ context.Context, id uint64) (*model.Room, error) {
	return &model.Room{ID: id, Name: "Aud. 1"}, nil
}

type fakeAttempts struct{ created int }

func (f *fakeAttempts) CreateTx(_ context.Context, _ *sql.Tx, att *model.Attempt) error {
	f.created++
	att.ID = uint64(f.created)
	att.Status = model.AttemptPrinted
	return nil
}

type fakeSheets struct{ created int }

func (f *fakeSheets) CreateTx(_ context.Context, _ *sql.Tx, sheet *model.AnswerSheet) error {
	f.created++
	sheet.ID = uint64(f.created)
	return nil
}

type fakeAudit struct{ actions []string }

func (f *fakeAudit) CreateTx(_ context.Context, _ *sql.Tx, entry *model.AuditLog) error {
	f.actions = append(f.actions, entry.Action)
	return nil
}

type fakeEngine struct{ calls int }

func (f *fakeEngine) AssignSeatTx(_ context.Context, _ *sql.Tx, _ uint64, _ *uint64, registrationID uint64, _ int) (*model.SeatAssignment, error) {
	f.calls++
	return &model.SeatAssignment{RegistrationID: registrationID, RoomID: 1, SeatNumber: 1, VariantNumber: 2}, nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

func mustTokenService(t *testing.T) *token.Service {
	t.Helper()
	tokens, err := token.NewService(testSecret)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func TestApproveConsumesTokenExactlyOnce(t *testing.T) {
	tokens := mustTokenService(t)
	raw, hash, err := tokens.Issue()
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	et := &fakeEntryTokens{token: model.EntryToken{
		ID:             1,
		RegistrationID: 5,
		TokenHash:      hash,
		ExpiresAt:      time.Now().UTC().Add(time.Hour),
	}}
	regs := &fakeRegs{reg: model.Registration{ID: 5, CompetitionID: 2, ParticipantName: "B. Ivanova", Status: model.RegistrationApproved}}
	atts := &fakeAttempts{}
	audit := &fakeAudit{}
	svc := NewService(openStubDB(t), tokens, et, regs, fakeComps{}, fakeRooms{},
		atts, &fakeSheets{}, audit, &fakeEngine{}, 1)

	res, err := svc.Approve(context.Background(), raw, 7, nil)
	if err != nil {
		t.Fatalf("first Approve() error = %v", err)
	}
	if res.SeatNumber != 1 || res.VariantNumber != 2 || res.RoomName != "Aud. 1" {
		t.Errorf("Approve() placement = %+v, want seat 1 variant 2 in Aud. 1", res)
	}
	if regs.reg.Status != model.RegistrationCompleted {
		t.Errorf("registration status = %q, want %q", regs.reg.Status, model.RegistrationCompleted)
	}

	// The same QR code scanned a second time must be refused.
	if _, err := svc.Approve(context.Background(), raw, 7, nil); err != repository.ErrTokenAlreadyUsed {
		t.Fatalf("second Approve() error = %v, want ErrTokenAlreadyUsed", err)
	}
	if atts.created != 1 {
		t.Errorf("attempts created = %d, want 1", atts.created)
	}
}

func TestApproveExpiredToken(t *testing.T) {
	tokens := mustTokenService(t)
	raw, hash, err := tokens.Issue()
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	et := &fakeEntryTokens{token: model.EntryToken{
		ID:             1,
		RegistrationID: 5,
		TokenHash:      hash,
		ExpiresAt:      time.Now().UTC().Add(-time.Minute),
	}}
	regs := &fakeRegs{reg: model.Registration{ID: 5, Status: model.RegistrationApproved}}
	svc := NewService(openStubDB(t), tokens, et, regs, fakeComps{}, fakeRooms{},
		&fakeAttempts{}, &fakeSheets{}, &fakeAudit{}, &fakeEngine{}, 1)

	if _, err := svc.Approve(context.Background(), raw, 7, nil); err != repository.ErrTokenExpired {
		t.Fatalf("Approve() error = %v, want ErrTokenExpired", err)
	}
	if et.token.UsedAt != nil {
		t.Error("expired token was marked used")
	}
}

func TestApproveUnknownToken(t *testing.T) {
	tokens := mustTokenService(t)
	et := &fakeEntryTokens{token: model.EntryToken{ID: 1, TokenHash: "other"}}
	svc := NewService(openStubDB(t), tokens, et, &fakeRegs{}, fakeComps{}, fakeRooms{},
		&fakeAttempts{}, &fakeSheets{}, &fakeAudit{}, &fakeEngine{}, 1)

	if _, err := svc.Approve(context.Background(), "bogus", 7, nil); err != repository.ErrInvalidToken {
		t.Fatalf("Approve() error = %v, want ErrInvalidToken", err)
	}
}
