package model

import "time"

// Scan is an uploaded image of an answer sheet.  It references the
// sheet rather than the attempt directly; this indirection is what lets
// extra-sheet scans be stored and audited without ever touching the
// attempt score.  AnswerSheetID stays null until the worker resolves
// the QR credential embedded in the image.
//
// Fields:
//  ID            – primary key identifier.
//  AnswerSheetID – resolved sheet (null until QR decode succeeds).
//  FilePath      – object-store key of the uploaded image.
//  OCRScore      – score extracted by OCR (null until processed).
//  OCRConfidence – OCR confidence in [0,1] (null until processed).
//  OCRRawText    – raw text the OCR engine returned for the score field.
//  VerifiedBy    – staff user who manually verified the score (nullable).
//  UploadedBy    – staff user who uploaded the scan.
//  CreatedAt     – upload timestamp.
//  UpdatedAt     – last update timestamp.
type Scan struct {
	ID            uint64    // scans.id
	AnswerSheetID *uint64   // scans.answer_sheet_id (nullable)
	FilePath      string    // scans.file_path
	OCRScore      *int      // scans.ocr_score (nullable)
	OCRConfidence *float64  // scans.ocr_confidence (nullable)
	OCRRawText    *string   // scans.ocr_raw_text (nullable)
	VerifiedBy    *uint64   // scans.verified_by (nullable)
	UploadedBy    uint64    // scans.uploaded_by
	CreatedAt     time.Time // scans.created_at
	UpdatedAt     time.Time // scans.updated_at
}
