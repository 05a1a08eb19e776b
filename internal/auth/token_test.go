package auth

import (
	"testing"
	"time"

	"agrolink/internal/domain"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	want := Identity{UserID: "u-1", Role: domain.RoleProducer}

	raw, err := tm.Issue(want)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := tm.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Fatalf("identity mismatch: %+v vs %+v", got, want)
	}
}

func TestVerify_Expired(t *testing.T) {
	tm := NewTokenManager("secret", -time.Minute)
	raw, err := tm.Issue(Identity{UserID: "u-1", Role: domain.RoleConsumer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tm.Verify(raw); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	raw, err := issuer.Issue(Identity{UserID: "u-1", Role: domain.RoleConsumer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(raw); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for bad signature, got %v", err)
	}
	if _, err := verifier.Verify("garbage"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
