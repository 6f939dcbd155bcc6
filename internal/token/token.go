// Package token issues and verifies the opaque credentials embedded in
// entry and answer-sheet QR codes.  Raw credentials are returned to the
// caller exactly once and never persisted or logged; only their
// HMAC-SHA256 digest is stored.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// rawBytes is the credential entropy in bytes.  32 bytes = 256 bits.
const rawBytes = 32

// ErrWeakSecret is returned by NewService when the HMAC secret is too
// short to provide meaningful protection.
var ErrWeakSecret = errors.New("token secret must be at least 32 bytes")

// Service generates credentials and computes/verifies their hashes.
// It is stateless and safe for concurrent use.
type Service struct {
	secret []byte
}

// NewService returns a Service keyed with the given secret.  The secret
// must be at least 32 bytes; this should be a dedicated secret, not the
// JWT signing key.
func NewService(secret string) (*Service, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	return &Service{secret: []byte(secret)}, nil
}

// Issue generates a new credential and returns the raw url-safe value
// together with its hex-encoded HMAC-SHA256 digest.  The call has no
// side effects; the caller persists the hash and hands the raw value to
// its holder exactly once.
func (s *Service) Issue() (raw, hash string, err error) {
	buf := make([]byte, rawBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	// URL-safe base64 without padding so the value embeds cleanly in QR
	// codes and URLs.
	raw = strings.TrimRight(base64.URLEncoding.EncodeToString(buf), "=")
	return raw, s.Hash(raw), nil
}

// Hash computes the hex-encoded HMAC-SHA256 digest of a raw credential.
func (s *Service) Hash(raw string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether raw matches storedHash.  The comparison is
// constant time, and a missing or malformed input yields the same false
// result as a wrong credential: callers must not be able to tell an
// unknown token apart from an invalid one.
func (s *Service) Verify(raw, storedHash string) bool {
	if raw == "" || storedHash == "" {
		return false
	}
	return hmac.Equal([]byte(s.Hash(raw)), []byte(storedHash))
}
