package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// UserRepo provides access to staff accounts.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a staff account.  Duplicate emails surface as
// ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role, is_active) VALUES (?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.Role, u.IsActive)
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
	u.ID = uint64(id)
	return nil
}

// GetByEmail returns the account with the given email or ErrNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, role, is_active, created_at FROM users WHERE email = ?`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
