package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("desk-secret-1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !VerifyPassword(hash, "desk-secret-1") {
		t.Error("VerifyPassword() = false for the original password")
	}
	if VerifyPassword(hash, "desk-secret-2") {
		t.Error("VerifyPassword() = true for a wrong password")
	}
}

func TestHashPasswordZeroCostFallsBack(t *testing.T) {
	hash, err := HashPassword("desk-secret-1", 0)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want the bcrypt default %d", cost, bcrypt.DefaultCost)
	}
}
