// Package ingest processes uploaded answer-sheet scans: QR resolution,
// OCR score extraction, and the confidence-gated transition of the
// attempt.  Scores above the configured confidence are applied
// automatically; everything else waits in the manual review queue.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/storage"
	"github.com/iliyamo/olymp-admission/internal/token"
)

// DefaultConfidence is the auto-apply gate used when no threshold is
// configured.  The comparison is inclusive: exactly this value passes.
const DefaultConfidence = 0.7

// OCRResult is what the extraction engine returns for the score field.
type OCRResult struct {
	Text       string
	Confidence float64
}

// QRDecoder extracts the raw sheet credential from a scan image.
type QRDecoder interface {
	Decode(ctx context.Context, image []byte) (string, error)
}

// OCRExtractor reads the handwritten score field from a scan image.
type OCRExtractor interface {
	Extract(ctx context.Context, image []byte) (OCRResult, error)
}

// scanStore is the slice of the scan repository the pipeline uses.
type scanStore interface {
	Create(ctx context.Context, scan *model.Scan) error
	SetFilePath(ctx context.Context, id uint64, filePath string) error
	GetByID(ctx context.Context, id uint64) (*model.Scan, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Scan, error)
	UpdateOCRResultTx(ctx context.Context, tx *sql.Tx, id uint64, sheetID *uint64, score *int, confidence *float64, rawText string) error
	SetVerifiedTx(ctx context.Context, tx *sql.Tx, id uint64, correctedScore int, verifiedBy uint64) error
	ListPendingReview(ctx context.Context, limit, offset int) ([]model.Scan, error)
}

// sheetStore resolves answer sheets by credential hash or id.
type sheetStore interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.AnswerSheet, error)
	GetByID(ctx context.Context, id uint64) (*model.AnswerSheet, error)
}

// attemptStore is the slice of the attempt repository the pipeline uses.
type attemptStore interface {
	GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Attempt, error)
	ApplyScoreTx(ctx context.Context, tx *sql.Tx, id uint64, score int, confidence *float64) error
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error
}

// auditWriter appends audit rows inside the caller's transaction.
type auditWriter interface {
	CreateTx(ctx context.Context, tx *sql.Tx, entry *model.AuditLog) error
}

// Service runs the ingestion pipeline and the manual scoring
// operations that follow it.
type Service struct {
	db        *sql.DB
	tokens    *token.Service
	scans     scanStore
	sheets    sheetStore
	attempts  attemptStore
	audit     auditWriter
	store     storage.Store
	decoder   QRDecoder
	extractor OCRExtractor
	threshold float64
}

// NewService wires the pipeline.  threshold outside (0,1] selects
// DefaultConfidence.
func NewService(db *sql.DB, tokens *token.Service, scans scanStore,
	sheets sheetStore, attempts attemptStore,
	audit auditWriter, store storage.Store,
	decoder QRDecoder, extractor OCRExtractor, threshold float64) *Service {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultConfidence
	}
	return &Service{db: db, tokens: tokens, scans: scans, sheets: sheets,
		attempts: attempts, audit: audit, store: store,
		decoder: decoder, extractor: extractor, threshold: threshold}
}

// Upload stores a scan image and creates its row.  The returned scan is
// unprocessed; the caller enqueues it for the worker.
func (s *Service) Upload(ctx context.Context, image []byte, ext string, uploadedBy uint64) (*model.Scan, error) {
	scan := &model.Scan{UploadedBy: uploadedBy}
	if err := s.scans.Create(ctx, scan); err != nil {
		return nil, err
	}
	key := storage.ScanKey(scan.ID, ext)
	if err := s.store.Put(ctx, key, image); err != nil {
		return nil, fmt.Errorf("store scan %d: %w", scan.ID, err)
	}
	if err := s.scans.SetFilePath(ctx, scan.ID, key); err != nil {
		return nil, err
	}
	scan.FilePath = key
	return scan, nil
}

// scoreRe matches the first integer in the OCR text.  The score field
// is a small box, but OCR engines pad it with stray marks.
var scoreRe = regexp.MustCompile(`\d+`)

// parseScore extracts the score from OCR text.  Returns false when the
// text contains no digits at all.
func parseScore(text string) (int, bool) {
	m := scoreRe.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// evaluate turns an OCR result into a scoring decision.  Unparseable
// text forces confidence to zero so it can never auto-apply, whatever
// the engine claimed.  auto is true when the score may be written
// without human review; the gate is inclusive at the threshold.
func evaluate(res OCRResult, threshold float64) (score *int, confidence float64, auto bool) {
	n, ok := parseScore(res.Text)
	if !ok {
		return nil, 0, false
	}
	return &n, res.Confidence, res.Confidence >= threshold
}

// Process runs the pipeline for one uploaded scan: fetch the image,
// decode the sheet QR, run OCR, persist the result and transition the
// attempt.  Reprocessing an unverified scan overwrites the previous OCR
// output and re-evaluates the gate, so delivery retries are safe; once
// a human has verified the scan, redelivery is a no-op and the
// correction stands.
func (s *Service) Process(ctx context.Context, scanID uint64) error {
	scan, err := s.scans.GetByID(ctx, scanID)
	if err != nil {
		return err
	}
	if scan.VerifiedBy != nil {
		return nil
	}
	image, err := s.store.Get(ctx, scan.FilePath)
	if err != nil {
		return fmt.Errorf("fetch scan %d image: %w", scanID, err)
	}

	rawCred, err := s.decoder.Decode(ctx, image)
	if err != nil {
		return fmt.Errorf("decode scan %d qr: %w", scanID, err)
	}
	sheet, err := s.sheets.GetByTokenHash(ctx, s.tokens.Hash(rawCred))
	if err != nil {
		return fmt.Errorf("resolve scan %d sheet: %w", scanID, err)
	}

	ocr, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return fmt.Errorf("ocr scan %d: %w", scanID, err)
	}
	score, confidence, auto := evaluate(ocr, s.threshold)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var confPtr *float64
	if score != nil {
		confPtr = &confidence
	}
	if err := s.scans.UpdateOCRResultTx(ctx, tx, scanID, &sheet.ID, score, confPtr, ocr.Text); err != nil {
		return err
	}

	// Extra sheets are archived for audit only; the attempt is driven
	// solely by its primary sheet.
	if sheet.Kind == model.SheetPrimary {
		att, err := s.attempts.GetByIDForUpdateTx(ctx, tx, sheet.AttemptID)
		if err != nil {
			return err
		}
		switch {
		case att.Status == model.AttemptInvalidated || att.Status == model.AttemptPublished:
			// Record the scan, leave the attempt alone.
		case auto:
			if err := s.attempts.ApplyScoreTx(ctx, tx, att.ID, *score, &confidence); err != nil {
				return err
			}
		case att.Status == model.AttemptPrinted:
			if err := s.attempts.UpdateStatusTx(ctx, tx, att.ID, model.AttemptScanned); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// VerifyScore records a manual score verification for a scan: the
// corrected score overrides whatever OCR produced, confidence is
// cleared, and the attempt moves to SCORED.  Only primary-sheet scans
// can be verified.
func (s *Service) VerifyScore(ctx context.Context, scanID uint64, correctedScore int, actorID uint64, ip *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	scan, err := s.scans.GetByIDTx(ctx, tx, scanID)
	if err != nil {
		return err
	}
	if scan.AnswerSheetID == nil {
		return repository.ErrSheetNotFound
	}
	sheet, err := s.sheets.GetByID(ctx, *scan.AnswerSheetID)
	if err != nil {
		return err
	}
	if sheet.Kind != model.SheetPrimary {
		return repository.ErrForbidden
	}

	att, err := s.attempts.GetByIDForUpdateTx(ctx, tx, sheet.AttemptID)
	if err != nil {
		return err
	}
	if att.Status == model.AttemptInvalidated {
		return repository.ErrAttemptInvalidated
	}
	if !model.CanApplyScore(att.Status) {
		return repository.ErrConflict
	}

	if err := s.scans.SetVerifiedTx(ctx, tx, scanID, correctedScore, actorID); err != nil {
		return err
	}
	if err := s.attempts.ApplyScoreTx(ctx, tx, att.ID, correctedScore, nil); err != nil {
		return err
	}
	detail := fmt.Sprintf(`{"scan_id":%d,"score":%d}`, scanID, correctedScore)
	if err := s.audit.CreateTx(ctx, tx, &model.AuditLog{
		EntityType: "attempt",
		EntityID:   att.ID,
		Action:     "score_verified",
		UserID:     actorID,
		IPAddress:  ip,
		Detail:     &detail,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ApplyScore writes a score directly on an attempt, bypassing OCR
// entirely (e.g. a fully manual grading round).
func (s *Service) ApplyScore(ctx context.Context, attemptID uint64, score int, actorID uint64, ip *string) error {
	return s.transition(ctx, attemptID, actorID, ip, "score_applied",
		func(ctx context.Context, tx *sql.Tx, att *model.Attempt) error {
			if att.Status == model.AttemptInvalidated {
				return repository.ErrAttemptInvalidated
			}
			if !model.CanApplyScore(att.Status) {
				return repository.ErrConflict
			}
			return s.attempts.ApplyScoreTx(ctx, tx, att.ID, score, nil)
		})
}

// Publish makes a scored result final.  Only SCORED attempts publish.
func (s *Service) Publish(ctx context.Context, attemptID, actorID uint64, ip *string) error {
	return s.transition(ctx, attemptID, actorID, ip, "published",
		func(ctx context.Context, tx *sql.Tx, att *model.Attempt) error {
			if !model.CanPublish(att.Status) {
				return repository.ErrConflict
			}
			return s.attempts.UpdateStatusTx(ctx, tx, att.ID, model.AttemptPublished)
		})
}

// Invalidate removes an attempt from scoring for a disciplinary or
// administrative reason.  Published results are final and refuse.
func (s *Service) Invalidate(ctx context.Context, attemptID uint64, reason string, actorID uint64, ip *string) error {
	detail := fmt.Sprintf(`{"reason":%s}`, strconv.Quote(reason))
	return s.transitionDetail(ctx, attemptID, actorID, ip, "invalidated", &detail,
		func(ctx context.Context, tx *sql.Tx, att *model.Attempt) error {
			if !model.CanInvalidate(att.Status) {
				return repository.ErrConflict
			}
			return s.attempts.UpdateStatusTx(ctx, tx, att.ID, model.AttemptInvalidated)
		})
}

func (s *Service) transition(ctx context.Context, attemptID, actorID uint64, ip *string,
	action string, fn func(context.Context, *sql.Tx, *model.Attempt) error) error {
	return s.transitionDetail(ctx, attemptID, actorID, ip, action, nil, fn)
}

// transitionDetail runs one guarded attempt state change with its audit
// record in a single transaction, against a row-locked attempt.
func (s *Service) transitionDetail(ctx context.Context, attemptID, actorID uint64, ip *string,
	action string, detail *string, fn func(context.Context, *sql.Tx, *model.Attempt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	att, err := s.attempts.GetByIDForUpdateTx(ctx, tx, attemptID)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx, att); err != nil {
		return err
	}
	if err := s.audit.CreateTx(ctx, tx, &model.AuditLog{
		EntityType: "attempt",
		EntityID:   attemptID,
		Action:     action,
		UserID:     actorID,
		IPAddress:  ip,
		Detail:     detail,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// PendingReview lists primary-sheet scans waiting for a human.
func (s *Service) PendingReview(ctx context.Context, limit, offset int) ([]model.Scan, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.scans.ListPendingReview(ctx, limit, offset)
}
