// Package queue defines message payloads exchanged over the message broker.
package queue

// ScanUploadedEvent is published after a scan image has been stored.
// It carries just enough for the worker to pick the scan up; everything
// else is read from the database when processing starts.
type ScanUploadedEvent struct {
	ScanID     uint64 `json:"scan_id"`
	FilePath   string `json:"file_path"`
	UploadedBy uint64 `json:"uploaded_by"`
	UploadedAt string `json:"uploaded_at"`
}
