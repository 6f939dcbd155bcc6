package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// AnswerSheetRepo provides access to the answer_sheets table.
type AnswerSheetRepo struct {
	db *sql.DB
}

// NewAnswerSheetRepo returns an AnswerSheetRepo bound to the database.
func NewAnswerSheetRepo(db *sql.DB) *AnswerSheetRepo { return &AnswerSheetRepo{db: db} }

// DB exposes the underlying handle for multi-repository transactions.
func (r *AnswerSheetRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a sheet within a transaction.  The unique key on
// sheet_token_hash guarantees sheet credentials never collide.  One
// primary sheet per attempt is guaranteed by construction: it is only
// ever created together with the attempt, inside admission's
// transaction, and attempts.registration_id is unique.
func (r *AnswerSheetRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.AnswerSheet) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO answer_sheets (attempt_id, sheet_token_hash, kind, file_path)
		 VALUES (?, ?, ?, ?)`,
		s.AttemptID, s.SheetTokenHash, s.Kind, s.FilePath)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func scanSheet(scan func(dest ...interface{}) error) (*model.AnswerSheet, error) {
	var s model.AnswerSheet
	var fp sql.NullString
	err := scan(&s.ID, &s.AttemptID, &s.SheetTokenHash, &s.Kind, &fp, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSheetNotFound
	}
	if err != nil {
		return nil, err
	}
	if fp.Valid {
		v := fp.String
		s.FilePath = &v
	}
	return &s, nil
}

const sheetCols = `id, attempt_id, sheet_token_hash, kind, file_path, created_at`

// GetByTokenHash resolves a sheet from the hash of the credential
// decoded out of a scanned QR code.  Unknown hashes return
// ErrSheetNotFound.
func (r *AnswerSheetRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*model.AnswerSheet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sheetCols+` FROM answer_sheets WHERE sheet_token_hash = ?`, tokenHash)
	return scanSheet(row.Scan)
}

// GetByID returns a sheet or ErrSheetNotFound.
func (r *AnswerSheetRepo) GetByID(ctx context.Context, id uint64) (*model.AnswerSheet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sheetCols+` FROM answer_sheets WHERE id = ?`, id)
	return scanSheet(row.Scan)
}

// ListByAttempt returns all sheets of an attempt, primary first then
// extras in issue order.
func (r *AnswerSheetRepo) ListByAttempt(ctx context.Context, attemptID uint64) ([]model.AnswerSheet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sheetCols+` FROM answer_sheets WHERE attempt_id = ?
		 ORDER BY kind = 'PRIMARY' DESC, id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AnswerSheet, 0)
	for rows.Next() {
		s, err := scanSheet(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// UpdateFilePath records the object-store key of the generated sheet
// document after rendering.
func (r *AnswerSheetRepo) UpdateFilePath(ctx context.Context, id uint64, filePath string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE answer_sheets SET file_path = ? WHERE id = ?`, filePath, id)
	return err
}
