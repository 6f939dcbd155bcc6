// Package sheets issues answer sheets and renders their printable
// documents.  The primary sheet is created by admission; this package
// covers extra (continuation) sheets handed out during the exam and the
// document rendering shared by both kinds.
package sheets

import (
	"context"
	"database/sql"
	"log"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/storage"
	"github.com/iliyamo/olymp-admission/internal/token"
)

// Document carries everything the printed sheet shows: participant
// placement plus the raw credential encoded into the sheet's QR code.
type Document struct {
	ParticipantName string
	CompetitionName string
	RoomName        string
	SeatNumber      int
	VariantNumber   int
	Kind            string
	RawToken        string
}

// Generator renders a Document into printable bytes.  Implementations
// must not retain the raw token after rendering.
type Generator interface {
	Generate(ctx context.Context, doc Document) ([]byte, error)
}

// Service issues extra sheets and renders sheet documents.
type Service struct {
	db     *sql.DB
	tokens *token.Service
	sheets *repository.AnswerSheetRepo
	atts   *repository.AttemptRepo
	audit  *repository.AuditLogRepo
	store  storage.Store
	gen    Generator
}

// NewService wires the sheet service.
func NewService(db *sql.DB, tokens *token.Service, sheets *repository.AnswerSheetRepo,
	atts *repository.AttemptRepo, audit *repository.AuditLogRepo,
	store storage.Store, gen Generator) *Service {
	return &Service{db: db, tokens: tokens, sheets: sheets, atts: atts,
		audit: audit, store: store, gen: gen}
}

// ExtraResult is returned to the invigilator issuing continuation
// paper.  RawToken exists only here and on the printed sheet.
type ExtraResult struct {
	SheetID   uint64
	AttemptID uint64
	RawToken  string
}

// IssueExtra creates an EXTRA sheet for an attempt.  Invalidated
// attempts cannot receive paper (ErrAttemptInvalidated); neither can
// published ones (ErrConflict).  The sheet row and audit record commit
// together; repeated calls keep issuing fresh sheets, each with its own
// credential.
func (s *Service) IssueExtra(ctx context.Context, attemptID, actorID uint64, ip *string) (*ExtraResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	att, err := s.atts.GetByIDForUpdateTx(ctx, tx, attemptID)
	if err != nil {
		return nil, err
	}
	switch att.Status {
	case model.AttemptInvalidated:
		return nil, repository.ErrAttemptInvalidated
	case model.AttemptPublished:
		return nil, repository.ErrConflict
	}

	raw, hash, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}
	sheet := &model.AnswerSheet{
		AttemptID:      att.ID,
		SheetTokenHash: hash,
		Kind:           model.SheetExtra,
	}
	if err := s.sheets.CreateTx(ctx, tx, sheet); err != nil {
		return nil, err
	}
	if err := s.audit.CreateTx(ctx, tx, &model.AuditLog{
		EntityType: "attempt",
		EntityID:   att.ID,
		Action:     "extra_sheet_issued",
		UserID:     actorID,
		IPAddress:  ip,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &ExtraResult{SheetID: sheet.ID, AttemptID: att.ID, RawToken: raw}, nil
}

// Render generates the printable document for a sheet and stores it
// under the sheet's object key.  Rendering failures are logged, not
// fatal: the sheet row with its credential already exists and the desk
// can reprint later.
func (s *Service) Render(ctx context.Context, sheetID, attemptID uint64, doc Document) {
	data, err := s.gen.Generate(ctx, doc)
	if err != nil {
		log.Printf("sheets: render sheet %d: %v", sheetID, err)
		return
	}
	key := storage.SheetKey(attemptID, sheetID)
	if err := s.store.Put(ctx, key, data); err != nil {
		log.Printf("sheets: store sheet %d: %v", sheetID, err)
		return
	}
	if err := s.sheets.UpdateFilePath(ctx, sheetID, key); err != nil {
		log.Printf("sheets: record path for sheet %d: %v", sheetID, err)
	}
}

// ListByAttempt returns all sheets of an attempt, primary first.
func (s *Service) ListByAttempt(ctx context.Context, attemptID uint64) ([]model.AnswerSheet, error) {
	return s.sheets.ListByAttempt(ctx, attemptID)
}
