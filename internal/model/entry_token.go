package model

import "time"

// EntryToken is the one-time credential admitting a registered
// participant into the exam.  Only the HMAC hash of the credential is
// stored; the raw value exists solely inside the QR code handed to the
// participant.  UsedAt is set at most once and never unset.
//
// Fields:
//  ID             – primary key identifier.
//  RegistrationID – registration this token admits (unique, 1:1).
//  TokenHash      – HMAC-SHA256 hex digest of the raw credential, unique.
//  ExpiresAt      – expiry checked at verification time.
//  UsedAt         – redemption timestamp (null while unused).
//  CreatedAt      – creation timestamp.
type EntryToken struct {
	ID             uint64     // entry_tokens.id
	RegistrationID uint64     // entry_tokens.registration_id
	TokenHash      string     // entry_tokens.token_hash
	ExpiresAt      time.Time  // entry_tokens.expires_at
	UsedAt         *time.Time // entry_tokens.used_at (nullable)
	CreatedAt      time.Time  // entry_tokens.created_at
}

// IsExpired reports whether the token has passed its expiry at the
// given instant.  Expiry is evaluated lazily at verification time;
// there is no background sweep.
func (t *EntryToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsUsed reports whether the token has already been redeemed.
func (t *EntryToken) IsUsed() bool { return t.UsedAt != nil }
