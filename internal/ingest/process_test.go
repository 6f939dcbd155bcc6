package ingest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/token"
)

// stubDriver backs a *sql.DB whose transactions are no-ops, so the
// pipeline can run against in-memory stores.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() { sql.Register("ingeststub", stubDriver{}) }

func openStubDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("ingeststub", "")
	if err != nil {
		t.Fatalf("open stub db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeScans struct {
	scan      model.Scan
	ocrWrites int
	lastScore *int
	lastSheet *uint64
}

func (f *fakeScans) Create(_ context.Context, s *model.Scan) error {
	s.ID = 1
	return nil
}

func (f *fakeScans) SetFilePath(_ context.Context, _ uint64, filePath string) error {
	f.scan.FilePath = filePath
	return nil
}

func (f *fakeScans) GetByID(_ context.Context, id uint64) (*model.Scan, error) {
	if f.scan.ID != id {
		return nil, repository.ErrNotFound
	}
	cp := f.scan
	return &cp, nil
}

func (f *fakeScans) GetByIDTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Scan, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeScans) UpdateOCRResultTx(_ context.Context, _ *sql.Tx, _ uint64, sheetID *uint64, score *int, confidence *float64, rawText string) error {
	f.ocrWrites++
	f.lastScore = score
	f.lastSheet = sheetID
	f.scan.AnswerSheetID = sheetID
	f.scan.OCRScore = score
	f.scan.OCRConfidence = confidence
	f.scan.OCRRawText = &rawText
	return nil
}

func (f *fakeScans) SetVerifiedTx(_ context.Context, _ *sql.Tx, _ uint64, correctedScore int, verifiedBy uint64) error {
	f.scan.OCRScore = &correctedScore
	f.scan.VerifiedBy = &verifiedBy
	return nil
}

func (f *fakeScans) ListPendingReview(_ context.Context, _, _ int) ([]model.Scan, error) {
	return nil, nil
}

type fakeSheets struct {
	sheet model.AnswerSheet
}

func (f *fakeSheets) GetByTokenHash(_ context.Context, hash string) (*model.AnswerSheet, error) {
	if f.sheet.SheetTokenHash != hash {
		return nil, repository.ErrSheetNotFound
	}
	cp := f.sheet
	return &cp, nil
}

func (f *fakeSheets) GetByID(_ context.Context, id uint64) (*model.AnswerSheet, error) {
	if f.sheet.ID != id {
		return nil, repository.ErrSheetNotFound
	}
	cp := f.sheet
	return &cp, nil
}

type fakeAttempts struct {
	att           model.Attempt
	appliedScores []int
	statusWrites  []string
}

func (f *fakeAttempts) GetByIDForUpdateTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Attempt, error) {
	if f.att.ID != id {
		return nil, repository.ErrNotFound
	}
	cp := f.att
	return &cp, nil
}

func (f *fakeAttempts) ApplyScoreTx(_ context.Context, _ *sql.Tx, _ uint64, score int, confidence *float64) error {
	f.appliedScores = append(f.appliedScores, score)
	f.att.ScoreTotal = &score
	f.att.Confidence = confidence
	f.att.Status = model.AttemptScored
	return nil
}

func (f *fakeAttempts) UpdateStatusTx(_ context.Context, _ *sql.Tx, _ uint64, status string) error {
	f.statusWrites = append(f.statusWrites, status)
	f.att.Status = status
	return nil
}

type fakeAudit struct{ actions []string }

func (f *fakeAudit) CreateTx(_ context.Context, _ *sql.Tx, entry *model.AuditLog) error {
	f.actions = append(f.actions, entry.Action)
	return nil
}

// memStore serves a single object for any key.
type memStore struct{ data []byte }

func (m *memStore) Put(_ context.Context, _ string, data []byte) error { m.data = data; return nil }
func (m *memStore) Get(_ context.Context, _ string) ([]byte, error)    { return m.data, nil }

type fixedDecoder struct{ cred string }

func (d fixedDecoder) Decode(_ context.Context, _ []byte) (string, error) { return d.cred, nil }

type fixedExtractor struct{ res OCRResult }

func (e fixedExtractor) Extract(_ context.Context, _ []byte) (OCRResult, error) { return e.res, nil }

const testSecret = "fedcba9876543210fedcba9876543210"

type pipelineFixture struct {
	svc      *Service
	scans    *fakeScans
	attempts *fakeAttempts
}

func newPipeline(t *testing.T, kind, attemptStatus string, ocr OCRResult) *pipelineFixture {
	t.Helper()
	tokens, err := token.NewService(testSecret)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	raw, hash, err := tokens.Issue()
	if err != nil {
		t.Fatalf("issue credential: %v", err)
	}

	scans := &fakeScans{scan: model.Scan{ID: 1, FilePath: "scans/1.png", UploadedBy: 2}}
	sheets := &fakeSheets{sheet: model.AnswerSheet{ID: 10, AttemptID: 20, SheetTokenHash: hash, Kind: kind}}
	attempts := &fakeAttempts{att: model.Attempt{ID: 20, Status: attemptStatus}}

	svc := NewService(openStubDB(t), tokens, scans, sheets, attempts, &fakeAudit{},
		&memStore{data: []byte("img")}, fixedDecoder{cred: raw}, fixedExtractor{res: ocr}, 0)
	return &pipelineFixture{svc: svc, scans: scans, attempts: attempts}
}

func TestProcessAutoAppliesConfidentPrimaryScore(t *testing.T) {
	f := newPipeline(t, model.SheetPrimary, model.AttemptPrinted, OCRResult{Text: "87", Confidence: 0.95})

	if err := f.svc.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(f.attempts.appliedScores) != 1 || f.attempts.appliedScores[0] != 87 {
		t.Fatalf("applied scores = %v, want [87]", f.attempts.appliedScores)
	}
	if f.attempts.att.Status != model.AttemptScored {
		t.Errorf("attempt status = %q, want %q", f.attempts.att.Status, model.AttemptScored)
	}
}

func TestProcessLowConfidenceMarksScanned(t *testing.T) {
	f := newPipeline(t, model.SheetPrimary, model.AttemptPrinted, OCRResult{Text: "87", Confidence: 0.4})

	if err := f.svc.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(f.attempts.appliedScores) != 0 {
		t.Errorf("applied scores = %v, want none below the gate", f.attempts.appliedScores)
	}
	if f.attempts.att.Status != model.AttemptScanned {
		t.Errorf("attempt status = %q, want %q", f.attempts.att.Status, model.AttemptScanned)
	}
	if f.scans.lastScore == nil || *f.scans.lastScore != 87 {
		t.Errorf("recorded OCR score = %v, want 87 held for review", f.scans.lastScore)
	}
}

func TestProcessExtraSheetNeverTouchesAttempt(t *testing.T) {
	// Even a fully confident score on an extra sheet stays archival.
	f := newPipeline(t, model.SheetExtra, model.AttemptPrinted, OCRResult{Text: "100", Confidence: 0.99})

	if err := f.svc.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(f.attempts.appliedScores) != 0 || len(f.attempts.statusWrites) != 0 {
		t.Errorf("attempt written (scores %v, statuses %v), want untouched for extra sheets",
			f.attempts.appliedScores, f.attempts.statusWrites)
	}
	if f.scans.ocrWrites != 1 {
		t.Errorf("OCR result writes = %d, want 1 (archived for audit)", f.scans.ocrWrites)
	}
	if f.scans.lastSheet == nil || *f.scans.lastSheet != 10 {
		t.Errorf("scan linked to sheet %v, want 10", f.scans.lastSheet)
	}
}

func TestProcessRedeliveryKeepsVerifiedScore(t *testing.T) {
	// A human verified this scan already; a queue redelivery must not
	// restore the OCR reading over the correction.
	f := newPipeline(t, model.SheetPrimary, model.AttemptScored, OCRResult{Text: "42", Confidence: 0.95})
	verified := 61
	verifier := uint64(9)
	f.scans.scan.OCRScore = &verified
	f.scans.scan.VerifiedBy = &verifier
	f.attempts.att.ScoreTotal = &verified

	if err := f.svc.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.scans.ocrWrites != 0 {
		t.Errorf("OCR result writes = %d, want 0 after verification", f.scans.ocrWrites)
	}
	if len(f.attempts.appliedScores) != 0 {
		t.Errorf("applied scores = %v, want none after verification", f.attempts.appliedScores)
	}
	if f.scans.scan.OCRScore == nil || *f.scans.scan.OCRScore != 61 {
		t.Errorf("scan score = %v, want the verified 61", f.scans.scan.OCRScore)
	}
	if f.attempts.att.ScoreTotal == nil || *f.attempts.att.ScoreTotal != 61 {
		t.Errorf("attempt score = %v, want the verified 61", f.attempts.att.ScoreTotal)
	}
}

func TestProcessPublishedAttemptLeftAlone(t *testing.T) {
	f := newPipeline(t, model.SheetPrimary, model.AttemptPublished, OCRResult{Text: "55", Confidence: 0.99})

	if err := f.svc.Process(context.Background(), 1); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(f.attempts.appliedScores) != 0 || len(f.attempts.statusWrites) != 0 {
		t.Errorf("published attempt written (scores %v, statuses %v), want untouched",
			f.attempts.appliedScores, f.attempts.statusWrites)
	}
	if f.scans.ocrWrites != 1 {
		t.Errorf("OCR result writes = %d, want 1 (recorded for audit)", f.scans.ocrWrites)
	}
}
