package pricing

import (
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
)

func percentageCoupon(value, maxDiscount float64) models.Coupon {
	return models.Coupon{
		Code:        "SAVE",
		Type:        models.CouponTypePercentage,
		Value:       value,
		MaxDiscount: maxDiscount,
		Active:      true,
	}
}

func TestEvaluateCouponPercentage(t *testing.T) {
	tests := []struct {
		name        string
		value       float64
		maxDiscount float64
		cartTotal   float64
		want        float64
	}{
		{"ten percent", 10, 0, 200, 20},
		{"clamped to maxDiscount", 50, 30, 200, 30},
		{"under maxDiscount", 10, 30, 100, 10},
		{"zero cart", 25, 0, 0, 0},
	}

	now := time.Now()
	for _, tt := range tests {
		coupon := percentageCoupon(tt.value, tt.maxDiscount)
		got, err := EvaluateCoupon(coupon, tt.cartTotal, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected discount %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestEvaluateCouponFixedCappedAtCartTotal(t *testing.T) {
	coupon := models.Coupon{Code: "FLAT50", Type: models.CouponTypeFixed, Value: 50, Active: true}
	now := time.Now()

	got, err := EvaluateCoupon(coupon, 200, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50 {
		t.Fatalf("expected discount 50, got %v", got)
	}

	// A fixed value larger than the cart total is capped, not applied raw.
	got, err = EvaluateCoupon(coupon, 30, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 30 {
		t.Fatalf("expected discount capped at 30, got %v", got)
	}
}

func TestEvaluateCouponNotYetActive(t *testing.T) {
	from := time.Now().Add(24 * time.Hour)
	coupon := percentageCoupon(10, 0)
	coupon.ValidFrom = &from

	if _, err := EvaluateCoupon(coupon, 100, time.Now()); !errors.Is(err, ErrNotYetActive) {
		t.Fatalf("expected ErrNotYetActive, got %v", err)
	}
}

func TestEvaluateCouponExpired(t *testing.T) {
	until := time.Now().Add(-24 * time.Hour)
	coupon := percentageCoupon(10, 0)
	coupon.ValidUntil = &until

	if _, err := EvaluateCoupon(coupon, 100, time.Now()); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestEvaluateCouponUsageLimitReached(t *testing.T) {
	coupon := percentageCoupon(10, 0)
	coupon.UsageLimit = 5
	coupon.UsedCount = 5

	if _, err := EvaluateCoupon(coupon, 100, time.Now()); !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}

	// usedCount above the limit is rejected regardless of other fields.
	coupon.UsedCount = 6
	coupon.MinPurchase = 0
	if _, err := EvaluateCoupon(coupon, 1e9, time.Now()); !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
}

func TestEvaluateCouponBelowMinimumPurchase(t *testing.T) {
	coupon := percentageCoupon(10, 0)
	coupon.MinPurchase = 100

	if _, err := EvaluateCoupon(coupon, 99.99, time.Now()); !errors.Is(err, ErrBelowMinimumPurchase) {
		t.Fatalf("expected ErrBelowMinimumPurchase, got %v", err)
	}

	if _, err := EvaluateCoupon(coupon, 100, time.Now()); err != nil {
		t.Fatalf("expected cartTotal == minPurchase to pass, got %v", err)
	}
}
