package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// CompetitionRepo provides access to the competitions table.
type CompetitionRepo struct {
	db *sql.DB
}

// NewCompetitionRepo returns a CompetitionRepo bound to the database.
func NewCompetitionRepo(db *sql.DB) *CompetitionRepo { return &CompetitionRepo{db: db} }

// Create inserts a competition.  VariantsCount below 1 is normalised
// to 1 so the variant formula stays well defined.
func (r *CompetitionRepo) Create(ctx context.Context, c *model.Competition) error {
	if c.VariantsCount < 1 {
		c.VariantsCount = 1
	}
	if c.Status == "" {
		c.Status = "DRAFT"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO competitions (name, status, variants_count, starts_at) VALUES (?, ?, ?, ?)`,
		c.Name, c.Status, c.VariantsCount, c.StartsAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func scanCompetition(row *sql.Row) (*model.Competition, error) {
	var c model.Competition
	var startsAt sql.NullTime
	err := row.Scan(&c.ID, &c.Name, &c.Status, &c.VariantsCount, &startsAt, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if startsAt.Valid {
		t := startsAt.Time
		c.StartsAt = &t
	}
	return &c, nil
}

const competitionCols = `id, name, status, variants_count, starts_at, created_at, updated_at`

// GetByID returns a competition or ErrNotFound.
func (r *CompetitionRepo) GetByID(ctx context.Context, id uint64) (*model.Competition, error) {
	return scanCompetition(r.db.QueryRowContext(ctx,
		`SELECT `+competitionCols+` FROM competitions WHERE id = ?`, id))
}

// GetByIDTx is the transactional variant of GetByID.
func (r *CompetitionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Competition, error) {
	return scanCompetition(tx.QueryRowContext(ctx,
		`SELECT `+competitionCols+` FROM competitions WHERE id = ?`, id))
}

// List returns all competitions, newest first.
func (r *CompetitionRepo) List(ctx context.Context) ([]model.Competition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+competitionCols+` FROM competitions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Competition, 0)
	for rows.Next() {
		var c model.Competition
		var startsAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.VariantsCount, &startsAt,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if startsAt.Valid {
			t := startsAt.Time
			c.StartsAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
