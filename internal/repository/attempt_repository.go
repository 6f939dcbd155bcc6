package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// AttemptRepo provides access to the attempts table.
type AttemptRepo struct {
	db *sql.DB
}

// NewAttemptRepo returns an AttemptRepo bound to the database.
func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{db: db} }

// DB exposes the underlying handle for multi-repository transactions.
func (r *AttemptRepo) DB() *sql.DB { return r.db }

// CreateTx inserts an attempt in status PRINTED within a transaction.
// The unique key on registration_id rejects a second attempt for the
// same registration.
func (r *AttemptRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Attempt) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO attempts (registration_id, status) VALUES (?, ?)`,
		a.RegistrationID, model.AttemptPrinted)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.Status = model.AttemptPrinted
	return nil
}

func scanAttempt(scan func(dest ...interface{}) error) (*model.Attempt, error) {
	var a model.Attempt
	var score sql.NullInt64
	var conf sql.NullFloat64
	err := scan(&a.ID, &a.RegistrationID, &a.Status, &score, &conf, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if score.Valid {
		v := int(score.Int64)
		a.ScoreTotal = &v
	}
	if conf.Valid {
		v := conf.Float64
		a.Confidence = &v
	}
	return &a, nil
}

const attemptCols = `id, registration_id, status, score_total, confidence, created_at, updated_at`

// GetByID returns an attempt or ErrNotFound.
func (r *AttemptRepo) GetByID(ctx context.Context, id uint64) (*model.Attempt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM attempts WHERE id = ?`, id)
	return scanAttempt(row.Scan)
}

// GetByIDForUpdateTx loads the attempt with a row lock so the scoring
// decision and the status write happen against a stable row.
func (r *AttemptRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Attempt, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM attempts WHERE id = ? FOR UPDATE`, id)
	return scanAttempt(row.Scan)
}

// GetByRegistration returns the attempt belonging to a registration.
func (r *AttemptRepo) GetByRegistration(ctx context.Context, registrationID uint64) (*model.Attempt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts WHERE registration_id = ?`, registrationID)
	return scanAttempt(row.Scan)
}

// ApplyScoreTx writes score, confidence (nil for manual entry) and
// moves the attempt to SCORED within a transaction.
func (r *AttemptRepo) ApplyScoreTx(ctx context.Context, tx *sql.Tx, id uint64, score int, confidence *float64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE attempts SET score_total = ?, confidence = ?, status = ?, updated_at = UTC_TIMESTAMP()
		 WHERE id = ?`,
		score, confidence, model.AttemptScored, id)
	return err
}

// UpdateStatusTx moves the attempt to a new status within a transaction.
func (r *AttemptRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE attempts SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, status, id)
	return err
}
