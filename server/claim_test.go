package server

import (
	"errors"
	"testing"
)

// TestAcquire tests basic claim acquisition
func TestAcquire(t *testing.T) {
	manager := NewClaimManager("")

	// First acquisition should succeed
	claim, err := manager.Acquire("", "http://localhost:3000", "127.0.0.1:12345")
	if err != nil {
		t.Fatalf("Expected claim on first acquisition, got %v", err)
	}

	// Second acquisition should fail (bridge already claimed)
	if _, err := manager.Acquire("", "http://localhost:3001", "127.0.0.1:12346"); !errors.Is(err, ErrClaimed) {
		t.Errorf("Expected ErrClaimed on second acquisition, got %v", err)
	}

	// Releasing with a stale id keeps the claim
	manager.Release("not-the-holder-id")
	if _, ok := manager.Current(); !ok {
		t.Error("Expected claim to survive a stale release")
	}

	// Release and try again
	manager.Release(claim.ID)
	claim2, err := manager.Acquire("", "http://localhost:3002", "127.0.0.1:12347")
	if err != nil {
		t.Fatalf("Expected claim after release, got %v", err)
	}
	if claim2.ID == claim.ID {
		t.Error("Expected a fresh claim id")
	}
}

// TestAcquireWithAPISecret tests claim acquisition with API secret validation
func TestAcquireWithAPISecret(t *testing.T) {
	manager := NewClaimManager("test-secret")

	tests := []struct {
		name    string
		secret  string
		wantErr error
	}{
		{"Valid secret", "test-secret", nil},
		{"Invalid secret", "wrong-secret", ErrInvalidSecret},
		{"No secret", "", ErrInvalidSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim, err := manager.Acquire(tt.secret, "http://localhost:3000", "127.0.0.1:12345")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if err == nil {
				manager.Release(claim.ID)
			}
		})
	}
}

// TestInvalidSecretWinsOverClaimed ensures a wrong secret is reported even while claimed
func TestInvalidSecretWinsOverClaimed(t *testing.T) {
	manager := NewClaimManager("s3cret")
	if _, err := manager.Acquire("s3cret", "", "127.0.0.1:1"); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Acquire("nope", "", "127.0.0.1:2"); !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("Expected ErrInvalidSecret, got %v", err)
	}
}
