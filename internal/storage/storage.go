// Package storage abstracts the object store holding scan images and
// generated sheet documents.  The core only needs get/put by key; the
// backing technology is deliberately swappable.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound is returned by Get for an unknown key.
var ErrObjectNotFound = errors.New("object not found")

// Store is the object-store contract.  Keys follow a stable scheme,
// e.g. "scans/42.png" or "sheets/7/12.pdf".
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// FSStore keeps objects as files under a root directory.  Suitable for
// a single-node deployment; the Store interface keeps the rest of the
// system unaware of the difference.
type FSStore struct {
	root string
}

// NewFSStore returns an FSStore rooted at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FSStore{root: dir}, nil
}

// Put writes data under key, creating parent directories on demand.
func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Get reads the object stored under key.
func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// resolve maps a key to a path under the root and rejects traversal.
func (s *FSStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// ScanKey builds the object key for an uploaded scan image.
func ScanKey(scanID uint64, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("scans/%d.%s", scanID, ext)
}

// SheetKey builds the object key for a generated answer sheet document.
func SheetKey(attemptID, sheetID uint64) string {
	return fmt.Sprintf("sheets/%d/%d.pdf", attemptID, sheetID)
}
