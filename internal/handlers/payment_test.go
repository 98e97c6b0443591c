package handlers

import (
	"testing"

	"storefront/internal/models"
)

func TestSignatureVerdictStatus(t *testing.T) {
	if got := signatureVerdictStatus(true); got != models.PaymentStatusSucceeded {
		t.Errorf("valid signature status = %q, want %q", got, models.PaymentStatusSucceeded)
	}
	if got := signatureVerdictStatus(false); got != models.PaymentStatusFailed {
		t.Errorf("invalid signature status = %q, want %q", got, models.PaymentStatusFailed)
	}
}
