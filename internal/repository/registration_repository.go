package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// RegistrationRepo provides access to the registrations table.
type RegistrationRepo struct {
	db *sql.DB
}

// NewRegistrationRepo returns a RegistrationRepo bound to the database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// Create inserts a registration in status APPROVED.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (competition_id, participant_name, institution_id, status)
		 VALUES (?, ?, ?, ?)`,
		reg.CompetitionID, reg.ParticipantName, reg.InstitutionID, model.RegistrationApproved)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reg.ID = uint64(id)
	reg.Status = model.RegistrationApproved
	return nil
}

func scanRegistration(row *sql.Row) (*model.Registration, error) {
	var reg model.Registration
	var instID sql.NullInt64
	err := row.Scan(&reg.ID, &reg.CompetitionID, &reg.ParticipantName, &instID,
		&reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if instID.Valid {
		v := uint64(instID.Int64)
		reg.InstitutionID = &v
	}
	return &reg, nil
}

const registrationCols = `id, competition_id, participant_name, institution_id, status, created_at, updated_at`

// GetByID returns a registration or ErrNotFound.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (*model.Registration, error) {
	return scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT `+registrationCols+` FROM registrations WHERE id = ?`, id))
}

// GetByIDTx is the transactional variant of GetByID.
func (r *RegistrationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Registration, error) {
	return scanRegistration(tx.QueryRowContext(ctx,
		`SELECT `+registrationCols+` FROM registrations WHERE id = ?`, id))
}

// UpdateStatusTx moves the registration to a new status within a
// transaction.
func (r *RegistrationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE registrations SET status = ? WHERE id = ?`, status, id)
	return err
}

// Detail is a registration joined with its institution and competition
// names, shown on the admitter's confirmation screen before the token
// is consumed.
type Detail struct {
	Registration    model.Registration
	InstitutionName *string
	CompetitionName string
	VariantsCount   int
}

// GetDetail loads the registration with its display context.
func (r *RegistrationRepo) GetDetail(ctx context.Context, id uint64) (*Detail, error) {
	const q = `SELECT reg.id, reg.competition_id, reg.participant_name, reg.institution_id,
	                  reg.status, reg.created_at, reg.updated_at,
	                  i.name, c.name, c.variants_count
	           FROM registrations reg
	           JOIN competitions c ON c.id = reg.competition_id
	           LEFT JOIN institutions i ON i.id = reg.institution_id
	           WHERE reg.id = ?`
	var d Detail
	var instID sql.NullInt64
	var instName sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.Registration.ID, &d.Registration.CompetitionID, &d.Registration.ParticipantName,
		&instID, &d.Registration.Status, &d.Registration.CreatedAt, &d.Registration.UpdatedAt,
		&instName, &d.CompetitionName, &d.VariantsCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if instID.Valid {
		v := uint64(instID.Int64)
		d.Registration.InstitutionID = &v
	}
	if instName.Valid {
		n := instName.String
		d.InstitutionName = &n
	}
	return &d, nil
}
