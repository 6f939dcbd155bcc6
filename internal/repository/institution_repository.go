package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// InstitutionRepo provides access to the institutions table.
type InstitutionRepo struct {
	db *sql.DB
}

// NewInstitutionRepo returns an InstitutionRepo bound to the database.
func NewInstitutionRepo(db *sql.DB) *InstitutionRepo { return &InstitutionRepo{db: db} }

// Create inserts an institution.  Duplicate names surface as ErrConflict.
func (r *InstitutionRepo) Create(ctx context.Context, i *model.Institution) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO institutions (name, short_name, city) VALUES (?, ?, ?)`,
		i.Name, i.ShortName, i.City)
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
	i.ID = uint64(id)
	return nil
}

// List returns all institutions ordered by name.
func (r *InstitutionRepo) List(ctx context.Context) ([]model.Institution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, short_name, city, created_at FROM institutions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Institution, 0)
	for rows.Next() {
		var i model.Institution
		var short, city sql.NullString
		if err := rows.Scan(&i.ID, &i.Name, &short, &city, &i.CreatedAt); err != nil {
			return nil, err
		}
		if short.Valid {
			v := short.String
			i.ShortName = &v
		}
		if city.Valid {
			v := city.String
			i.City = &v
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Delete removes an institution.  The delete is refused with
// ErrConflict while any seated registration references it; silently
// nulling the reference would corrupt the seating audit trail.
func (r *InstitutionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var seated int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations reg
		 JOIN seat_assignments sa ON sa.registration_id = reg.id
		 WHERE reg.institution_id = ?`, id).Scan(&seated)
	if err != nil {
		return err
	}
	if seated > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM institutions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
