package model

import "time"

// AuditLog records administrative actions against entities: admissions,
// score verifications, overrides and invalidations.  Detail carries a
// small JSON blob with action-specific context.
//
// Fields:
//  ID         – primary key identifier.
//  EntityType – kind of entity acted on ("registration", "attempt", ...).
//  EntityID   – identifier of that entity.
//  Action     – short action name ("admitted", "score_verified", ...).
//  UserID     – staff user who performed the action.
//  IPAddress  – request origin, when known.
//  Detail     – JSON-encoded extra context (nullable).
//  CreatedAt  – timestamp of the action.
type AuditLog struct {
	ID         uint64    // audit_logs.id
	EntityType string    // audit_logs.entity_type
	EntityID   uint64    // audit_logs.entity_id
	Action     string    // audit_logs.action
	UserID     uint64    // audit_logs.user_id
	IPAddress  *string   // audit_logs.ip_address (nullable)
	Detail     *string   // audit_logs.detail (nullable)
	CreatedAt  time.Time // audit_logs.created_at
}
