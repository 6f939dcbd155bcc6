package model

import "time"

// Answer sheet kinds.  Every attempt has exactly one PRIMARY sheet,
// created atomically with the attempt.  EXTRA sheets are continuation
// paper issued on demand; their scans are stored for audit but never
// contribute to the attempt score.
const (
	SheetPrimary = "PRIMARY"
	SheetExtra   = "EXTRA"
)

// AnswerSheet is one physical sheet instance.  The credential embedded
// in the printed QR code is stored hashed only; scans are resolved to
// sheets by recomputing the hash of the decoded credential.
//
// Fields:
//  ID             – primary key identifier.
//  AttemptID      – attempt the sheet belongs to.
//  SheetTokenHash – HMAC-SHA256 hex digest of the sheet credential, unique.
//  Kind           – PRIMARY or EXTRA.
//  FilePath       – object-store key of the generated sheet document (nullable).
//  CreatedAt      – creation timestamp.
type AnswerSheet struct {
	ID             uint64    // answer_sheets.id
	AttemptID      uint64    // answer_sheets.attempt_id
	SheetTokenHash string    // answer_sheets.sheet_token_hash
	Kind           string    // answer_sheets.kind
	FilePath       *string   // answer_sheets.file_path (nullable)
	CreatedAt      time.Time // answer_sheets.created_at
}
