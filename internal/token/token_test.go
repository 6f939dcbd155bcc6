package token

import (
	"strings"
	"testing"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewServiceRejectsShortSecret(t *testing.T) {
	if _, err := NewService("too-short"); err != ErrWeakSecret {
		t.Fatalf("NewService() error = %v, want ErrWeakSecret", err)
	}
	if _, err := NewService(testSecret); err != nil {
		t.Fatalf("NewService() with 32-byte secret failed: %v", err)
	}
}

func TestIssueProducesVerifiablePair(t *testing.T) {
	svc, err := NewService(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	raw, hash, err := svc.Issue()
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	// 32 bytes of entropy -> 43 base64 chars without padding.
	if len(raw) != 43 {
		t.Errorf("Issue() raw length = %d, want 43", len(raw))
	}
	if strings.ContainsAny(raw, "=+/") {
		t.Errorf("Issue() raw %q is not url-safe unpadded base64", raw)
	}
	// HMAC-SHA256 hex digest is 64 chars.
	if len(hash) != 64 {
		t.Errorf("Issue() hash length = %d, want 64", len(hash))
	}
	if !svc.Verify(raw, hash) {
		t.Error("Verify() rejected a freshly issued credential")
	}
}

func TestIssueIsUnique(t *testing.T) {
	svc, _ := NewService(testSecret)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		raw, _, err := svc.Issue()
		if err != nil {
			t.Fatal(err)
		}
		if seen[raw] {
			t.Fatalf("duplicate credential after %d issues", i)
		}
		seen[raw] = true
	}
}

func TestVerifyRejections(t *testing.T) {
	svc, _ := NewService(testSecret)
	raw, hash, _ := svc.Issue()

	tests := []struct {
		name string
		raw  string
		hash string
	}{
		{"wrong credential", raw + "x", hash},
		{"empty credential", "", hash},
		{"empty hash", raw, ""},
		{"truncated hash", raw, hash[:32]},
		{"swapped pair", hash, raw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if svc.Verify(tt.raw, tt.hash) {
				t.Error("Verify() accepted an invalid pair")
			}
		})
	}
}

func TestVerifyAcrossSecrets(t *testing.T) {
	a, _ := NewService(testSecret)
	b, _ := NewService("fedcba9876543210fedcba9876543210")
	raw, hash, _ := a.Issue()
	if b.Verify(raw, hash) {
		t.Error("credential issued under one secret verified under another")
	}
}

func TestHashIsDeterministic(t *testing.T) {
	svc, _ := NewService(testSecret)
	if svc.Hash("abc") != svc.Hash("abc") {
		t.Error("Hash() is not deterministic")
	}
	if svc.Hash("abc") == svc.Hash("abd") {
		t.Error("Hash() collision on different inputs")
	}
}
