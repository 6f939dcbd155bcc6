package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// EntryTokenRepo persists one-time entry tokens.  Only HMAC hashes are
// stored; the raw credential never reaches this layer.
type EntryTokenRepo struct {
	db *sql.DB
}

// NewEntryTokenRepo returns an EntryTokenRepo bound to the database.
func NewEntryTokenRepo(db *sql.DB) *EntryTokenRepo { return &EntryTokenRepo{db: db} }

// Create inserts a token row.  The unique keys on token_hash and
// registration_id guarantee one token per registration; a duplicate
// surfaces as ErrConflict.
func (r *EntryTokenRepo) Create(ctx context.Context, t *model.EntryToken) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entry_tokens (registration_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		t.RegistrationID, t.TokenHash, t.ExpiresAt.UTC())
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
	t.ID = uint64(id)
	return nil
}

// GetByHashTx loads a token by its hash inside a transaction.
// sql.ErrNoRows is mapped to ErrInvalidToken so an unknown credential
// is indistinguishable from a wrong one.
func (r *EntryTokenRepo) GetByHashTx(ctx context.Context, tx *sql.Tx, tokenHash string) (*model.EntryToken, error) {
	var t model.EntryToken
	var usedAt sql.NullTime
	err := tx.QueryRowContext(ctx,
		`SELECT id, registration_id, token_hash, expires_at, used_at, created_at
		 FROM entry_tokens WHERE token_hash = ?`,
		tokenHash).Scan(&t.ID, &t.RegistrationID, &t.TokenHash, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	return &t, nil
}

// GetByHash is the non-transactional variant used by the read-only
// verification preview.
func (r *EntryTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*model.EntryToken, error) {
	var t model.EntryToken
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, registration_id, token_hash, expires_at, used_at, created_at
		 FROM entry_tokens WHERE token_hash = ?`,
		tokenHash).Scan(&t.ID, &t.RegistrationID, &t.TokenHash, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	return &t, nil
}

// MarkUsedTx sets used_at, guarded by `used_at IS NULL` so the update
// is a compare-and-set: a concurrent redemption of the same token makes
// exactly one caller win.  The loser gets ErrTokenAlreadyUsed.
func (r *EntryTokenRepo) MarkUsedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE entry_tokens SET used_at = UTC_TIMESTAMP() WHERE id = ? AND used_at IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenAlreadyUsed
	}
	return nil
}
