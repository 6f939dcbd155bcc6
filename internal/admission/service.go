// Package admission implements the door flow: verifying a participant's
// entry QR code and, on approval, turning the registration into a seated
// attempt with a printed primary answer sheet.  Approval is a single
// database transaction so a participant can never end up half admitted.
package admission

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/seating"
	"github.com/iliyamo/olymp-admission/internal/token"
)

// The store interfaces below name exactly the repository slices the
// desk flow touches, so the flow can be exercised against fakes.

type entryTokenStore interface {
	GetByHash(ctx context.Context, tokenHash string) (*model.EntryToken, error)
	GetByHashTx(ctx context.Context, tx *sql.Tx, tokenHash string) (*model.EntryToken, error)
	MarkUsedTx(ctx context.Context, tx *sql.Tx, id uint64) error
}

type registrationStore interface {
	GetDetail(ctx context.Context, id uint64) (*repository.Detail, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Registration, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error
}

type competitionStore interface {
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Competition, error)
}

type roomStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
}

type attemptCreator interface {
	CreateTx(ctx context.Context, tx *sql.Tx, att *model.Attempt) error
}

type sheetCreator interface {
	CreateTx(ctx context.Context, tx *sql.Tx, sheet *model.AnswerSheet) error
}

type auditWriter interface {
	CreateTx(ctx context.Context, tx *sql.Tx, entry *model.AuditLog) error
}

type seatAssigner interface {
	AssignSeatTx(ctx context.Context, tx *sql.Tx, competitionID uint64, institutionID *uint64, registrationID uint64, variantsCount int) (*model.SeatAssignment, error)
}

// Service coordinates the admission desk operations.  It is constructed
// once and safe for concurrent use.
type Service struct {
	db           *sql.DB
	tokens       *token.Service
	entryTokens  entryTokenStore
	regs         registrationStore
	competitions competitionStore
	rooms        roomStore
	attempts     attemptCreator
	sheets       sheetCreator
	audit        auditWriter
	engine       seatAssigner
	retries      int
}

// NewService wires the admission service.  retries bounds how many times
// the whole approval transaction is replayed after losing a seat race;
// values <= 0 select the seating default.
func NewService(
	db *sql.DB,
	tokens *token.Service,
	entryTokens entryTokenStore,
	regs registrationStore,
	competitions competitionStore,
	rooms roomStore,
	attempts attemptCreator,
	sheets sheetCreator,
	audit auditWriter,
	engine seatAssigner,
	retries int,
) *Service {
	if retries <= 0 {
		retries = seating.DefaultRetries
	}
	return &Service{
		db:           db,
		tokens:       tokens,
		entryTokens:  entryTokens,
		regs:         regs,
		competitions: competitions,
		rooms:        rooms,
		attempts:     attempts,
		sheets:       sheets,
		audit:        audit,
		engine:       engine,
		retries:      retries,
	}
}

// VerifyResult is the admitter's confirmation screen: who would be let
// in if the token were redeemed.  The token stays untouched.
type VerifyResult struct {
	RegistrationID  uint64
	ParticipantName string
	InstitutionName *string
	CompetitionName string
	Status          string
	AlreadyUsed     bool
	UsedAt          *time.Time
}

// VerifyEntry resolves a raw entry credential without consuming it.
// Invalid, unknown and expired tokens surface as repository sentinels;
// an already-used token is reported in the result rather than as an
// error so the admitter sees who redeemed it and when.
func (s *Service) VerifyEntry(ctx context.Context, rawToken string) (*VerifyResult, error) {
	if rawToken == "" {
		return nil, repository.ErrInvalidToken
	}
	et, err := s.entryTokens.GetByHash(ctx, s.tokens.Hash(rawToken))
	if err != nil {
		return nil, err
	}
	if et.IsExpired(time.Now().UTC()) {
		return nil, repository.ErrTokenExpired
	}
	d, err := s.regs.GetDetail(ctx, et.RegistrationID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		RegistrationID:  d.Registration.ID,
		ParticipantName: d.Registration.ParticipantName,
		InstitutionName: d.InstitutionName,
		CompetitionName: d.CompetitionName,
		Status:          d.Registration.Status,
		AlreadyUsed:     et.IsUsed(),
		UsedAt:          et.UsedAt,
	}, nil
}

// Result is everything the admission desk needs after an approval: the
// participant's placement plus the raw primary-sheet credential, which
// exists only in this response and on the printed sheet.
type Result struct {
	RegistrationID  uint64
	ParticipantName string
	CompetitionName string
	AttemptID       uint64
	SheetID         uint64
	SheetToken      string
	RoomID          uint64
	RoomName        string
	SeatNumber      int
	VariantNumber   int
}

// Approve redeems an entry token and admits its participant: the token
// is consumed, the registration moves through ADMITTED to COMPLETED, an
// attempt in PRINTED is created, a seat and variant are assigned, and
// the primary answer sheet is issued.  All of it commits atomically; a
// lost seat race rolls the whole transaction back and replays it up to
// the retry bound.
func (s *Service) Approve(ctx context.Context, rawToken string, actorID uint64, ip *string) (*Result, error) {
	if rawToken == "" {
		return nil, repository.ErrInvalidToken
	}
	hash := s.tokens.Hash(rawToken)

	var res *Result
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		res, err = s.approveOnce(ctx, hash, actorID, ip)
		if err == nil {
			return res, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
	}
	// Every replay lost its seat to a concurrent admission.
	return nil, repository.ErrCapacityExhausted
}

func (s *Service) approveOnce(ctx context.Context, tokenHash string, actorID uint64, ip *string) (*Result, error) {
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

	et, err := s.entryTokens.GetByHashTx(ctx, tx, tokenHash)
	if err != nil {
		return nil, err
	}
	if et.IsExpired(time.Now().UTC()) {
		return nil, repository.ErrTokenExpired
	}
	// Compare-and-set on used_at: under a double scan of the same QR code
	// exactly one caller passes this point.
	if err := s.entryTokens.MarkUsedTx(ctx, tx, et.ID); err != nil {
		return nil, err
	}

	reg, err := s.regs.GetByIDTx(ctx, tx, et.RegistrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationApproved {
		return nil, repository.ErrConflict
	}
	if err := s.regs.UpdateStatusTx(ctx, tx, reg.ID, model.RegistrationAdmitted); err != nil {
		return nil, err
	}

	comp, err := s.competitions.GetByIDTx(ctx, tx, reg.CompetitionID)
	if err != nil {
		return nil, err
	}

	att := &model.Attempt{RegistrationID: reg.ID}
	if err := s.attempts.CreateTx(ctx, tx, att); err != nil {
		return nil, err
	}

	sa, err := s.engine.AssignSeatTx(ctx, tx, reg.CompetitionID, reg.InstitutionID, reg.ID, comp.VariantsCount)
	if err != nil {
		return nil, err
	}

	rawSheet, sheetHash, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}
	sheet := &model.AnswerSheet{
		AttemptID:      att.ID,
		SheetTokenHash: sheetHash,
		Kind:           model.SheetPrimary,
	}
	if err := s.sheets.CreateTx(ctx, tx, sheet); err != nil {
		return nil, err
	}

	// The printed sheet in hand completes the registration.
	if err := s.regs.UpdateStatusTx(ctx, tx, reg.ID, model.RegistrationCompleted); err != nil {
		return nil, err
	}

	detail := fmt.Sprintf(`{"room_id":%d,"seat":%d,"variant":%d}`, sa.RoomID, sa.SeatNumber, sa.VariantNumber)
	if err := s.audit.CreateTx(ctx, tx, &model.AuditLog{
		EntityType: "registration",
		EntityID:   reg.ID,
		Action:     "admitted",
		UserID:     actorID,
		IPAddress:  ip,
		Detail:     &detail,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	room, err := s.rooms.GetByID(ctx, sa.RoomID)
	if err != nil {
		// Admission is committed; a failed name lookup must not undo it.
		room = &model.Room{ID: sa.RoomID}
	}
	return &Result{
		RegistrationID:  reg.ID,
		ParticipantName: reg.ParticipantName,
		CompetitionName: comp.Name,
		AttemptID:       att.ID,
		SheetID:         sheet.ID,
		SheetToken:      rawSheet,
		RoomID:          sa.RoomID,
		RoomName:        room.Name,
		SeatNumber:      sa.SeatNumber,
		VariantNumber:   sa.VariantNumber,
	}, nil
}
