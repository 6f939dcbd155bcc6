package model

import "time"

// Staff roles.  Admitters run the entrance desk, invigilators supervise
// rooms and issue extra sheets, scanners operate the scanning station
// and review low-confidence OCR results.  Admins can do everything.
const (
	RoleAdmin       = "ADMIN"
	RoleAdmitter    = "ADMITTER"
	RoleInvigilator = "INVIGILATOR"
	RoleScanner     = "SCANNER"
)

// User represents a staff account as stored in the `users` table.
// Participants are not users; they are identified purely through
// registrations and tokens.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of the Role* constants above.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
}
