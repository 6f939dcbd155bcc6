package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/olymp-admission/internal/model"
)

// AuditLogRepo appends administrative action records.  Like the
// participant event log it is write-only from the application's point
// of view.
type AuditLogRepo struct {
	db *sql.DB
}

// NewAuditLogRepo returns an AuditLogRepo bound to the database.
func NewAuditLogRepo(db *sql.DB) *AuditLogRepo { return &AuditLogRepo{db: db} }

// CreateTx appends an audit row inside the transaction of the action it
// documents, so the record cannot outlive a rolled-back action.
func (r *AuditLogRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.AuditLog) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (entity_type, entity_id, action, user_id, ip_address, detail)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.EntityType, a.EntityID, a.Action, a.UserID, a.IPAddress, a.Detail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// Create appends an audit row outside any caller transaction.
func (r *AuditLogRepo) Create(ctx context.Context, a *model.AuditLog) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (entity_type, entity_id, action, user_id, ip_address, detail)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.EntityType, a.EntityID, a.Action, a.UserID, a.IPAddress, a.Detail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}
