package payments

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func signedHeader(secret string, payload []byte, at time.Time) string {
	ts := fmt.Sprintf("%d", at.Unix())
	return "t=" + ts + ",v1=" + SignWebhookPayload([]byte(secret), ts, payload)
}

func TestWebhookVerify(t *testing.T) {
	verifier := NewWebhookVerifier("whsec_test")
	payload := []byte(`{"type":"payment_intent.succeeded"}`)
	now := time.Now()

	if err := verifier.Verify(payload, signedHeader("whsec_test", payload, now), now); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestWebhookVerifyRejectsTamperedPayload(t *testing.T) {
	verifier := NewWebhookVerifier("whsec_test")
	now := time.Now()
	header := signedHeader("whsec_test", []byte(`{"a":1}`), now)

	if err := verifier.Verify([]byte(`{"a":2}`), header, now); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestWebhookVerifyRejectsWrongSecret(t *testing.T) {
	verifier := NewWebhookVerifier("whsec_test")
	payload := []byte(`{}`)
	now := time.Now()

	if err := verifier.Verify(payload, signedHeader("whsec_other", payload, now), now); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestWebhookVerifyRejectsStaleTimestamp(t *testing.T) {
	verifier := NewWebhookVerifier("whsec_test")
	payload := []byte(`{}`)
	now := time.Now()
	header := signedHeader("whsec_test", payload, now.Add(-10*time.Minute))

	if err := verifier.Verify(payload, header, now); !errors.Is(err, ErrStaleTimestamp) {
		t.Fatalf("expected ErrStaleTimestamp, got %v", err)
	}
}

func TestWebhookVerifyRejectsMissingHeader(t *testing.T) {
	verifier := NewWebhookVerifier("whsec_test")

	for _, header := range []string{"", "v1=abc", "t=123", "garbage"} {
		if err := verifier.Verify([]byte(`{}`), header, time.Now()); !errors.Is(err, ErrMissingSignature) {
			t.Fatalf("header %q: expected ErrMissingSignature, got %v", header, err)
		}
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount float64
		want   int64
	}{
		{10.99, 1099},
		{0, 0},
		{100, 10000},
		{27.5, 2750},
	}
	for _, tt := range tests {
		if got := MinorUnits(tt.amount); got != tt.want {
			t.Fatalf("MinorUnits(%v) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}
