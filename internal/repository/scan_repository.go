package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// ScanRepo provides access to the scans table.
type ScanRepo struct {
	db *sql.DB
}

// NewScanRepo returns a ScanRepo bound to the database.
func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{db: db} }

// DB exposes the underlying handle for multi-repository transactions.
func (r *ScanRepo) DB() *sql.DB { return r.db }

// Create inserts a scan row right after upload, before any OCR has
// run.  AnswerSheetID may be nil; the worker links it once the QR
// credential is decoded.
func (r *ScanRepo) Create(ctx context.Context, s *model.Scan) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO scans (answer_sheet_id, file_path, uploaded_by) VALUES (?, ?, ?)`,
		s.AnswerSheetID, s.FilePath, s.UploadedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func scanScan(scan func(dest ...interface{}) error) (*model.Scan, error) {
	var s model.Scan
	var sheetID, verifiedBy sql.NullInt64
	var score sql.NullInt64
	var conf sql.NullFloat64
	var raw sql.NullString
	err := scan(&s.ID, &sheetID, &s.FilePath, &score, &conf, &raw, &verifiedBy,
		&s.UploadedBy, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sheetID.Valid {
		v := uint64(sheetID.Int64)
		s.AnswerSheetID = &v
	}
	if score.Valid {
		v := int(score.Int64)
		s.OCRScore = &v
	}
	if conf.Valid {
		v := conf.Float64
		s.OCRConfidence = &v
	}
	if raw.Valid {
		v := raw.String
		s.OCRRawText = &v
	}
	if verifiedBy.Valid {
		v := uint64(verifiedBy.Int64)
		s.VerifiedBy = &v
	}
	return &s, nil
}

const scanCols = `id, answer_sheet_id, file_path, ocr_score, ocr_confidence, ocr_raw_text,
	verified_by, uploaded_by, created_at, updated_at`

// SetFilePath records the object-store key of the uploaded image.  The
// key embeds the scan id, so the row is inserted first and the path
// written right after the object store accepts the bytes.
func (r *ScanRepo) SetFilePath(ctx context.Context, id uint64, filePath string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scans SET file_path = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, filePath, id)
	return err
}

// GetByID returns a scan or ErrNotFound.
func (r *ScanRepo) GetByID(ctx context.Context, id uint64) (*model.Scan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scanCols+` FROM scans WHERE id = ?`, id)
	return scanScan(row.Scan)
}

// GetByIDTx is the transactional variant of GetByID.
func (r *ScanRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Scan, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+scanCols+` FROM scans WHERE id = ?`, id)
	return scanScan(row.Scan)
}

// UpdateOCRResultTx writes the worker's OCR output and the resolved
// sheet link in one statement.  Re-running the worker for the same scan
// simply overwrites the previous output, which keeps ingestion
// idempotent on the scan row.
func (r *ScanRepo) UpdateOCRResultTx(ctx context.Context, tx *sql.Tx, id uint64, sheetID *uint64, score *int, confidence *float64, rawText string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE scans SET answer_sheet_id = ?, ocr_score = ?, ocr_confidence = ?, ocr_raw_text = ?,
		        updated_at = UTC_TIMESTAMP()
		 WHERE id = ?`,
		sheetID, score, confidence, rawText, id)
	return err
}

// SetVerifiedTx records a manual verification: the corrected score and
// the verifying staff user.  Re-verification overwrites the previous
// correction.
func (r *ScanRepo) SetVerifiedTx(ctx context.Context, tx *sql.Tx, id uint64, correctedScore int, verifiedBy uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE scans SET ocr_score = ?, verified_by = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		correctedScore, verifiedBy, id)
	return err
}

// ListPendingReview returns scans of primary sheets whose attempts sit
// in SCANNED: processed by OCR but below the confidence gate, waiting
// for a human.  Ordered oldest first so the review queue is fair.
func (r *ScanRepo) ListPendingReview(ctx context.Context, limit, offset int) ([]model.Scan, error) {
	const q = `SELECT s.id, s.answer_sheet_id, s.file_path, s.ocr_score, s.ocr_confidence,
	                  s.ocr_raw_text, s.verified_by, s.uploaded_by, s.created_at, s.updated_at
	           FROM scans s
	           JOIN answer_sheets sh ON sh.id = s.answer_sheet_id
	           JOIN attempts a ON a.id = sh.attempt_id
	           WHERE sh.kind = 'PRIMARY' AND a.status = 'SCANNED' AND s.verified_by IS NULL
	           ORDER BY s.created_at
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Scan, 0)
	for rows.Next() {
		s, err := scanScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
