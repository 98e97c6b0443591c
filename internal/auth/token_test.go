package auth

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	verifier := NewTokenVerifier("test-secret")

	userID := primitive.NewObjectID()
	token, err := issuer.Issue(userID, "a@b.com", "admin")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	identity, err := verifier.VerifyHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if identity.UserID != userID {
		t.Fatalf("expected userId %s, got %s", userID.Hex(), identity.UserID.Hex())
	}
	if identity.Role != "admin" || !identity.IsAdmin() {
		t.Fatalf("expected admin role, got %q", identity.Role)
	}
	if identity.Email != "a@b.com" {
		t.Fatalf("expected email to round-trip, got %q", identity.Email)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-one", time.Hour)
	verifier := NewTokenVerifier("secret-two")

	token, err := issuer.Issue(primitive.NewObjectID(), "a@b.com", "user")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)
	verifier := NewTokenVerifier("secret")

	token, err := issuer.Issue(primitive.NewObjectID(), "a@b.com", "user")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected verification to fail for expired token")
	}
}

func TestVerifyHeaderFormats(t *testing.T) {
	verifier := NewTokenVerifier("secret")

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		if _, err := verifier.VerifyHeader(header); err == nil {
			t.Fatalf("expected header %q to be rejected", header)
		}
	}
}
