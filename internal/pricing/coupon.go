package pricing

import (
	"errors"
	"time"

	"storefront/internal/models"
)

var (
	ErrNotYetActive         = errors.New("coupon not active yet")
	ErrExpired              = errors.New("coupon expired")
	ErrUsageLimitReached    = errors.New("coupon usage limit reached")
	ErrBelowMinimumPurchase = errors.New("minimum purchase not met")
)

// EvaluateCoupon checks a coupon against a proposed cart total and returns the
// discount it grants. It does not touch the usage counter; redemption is a
// separate, persisted step.
func EvaluateCoupon(coupon models.Coupon, cartTotal float64, now time.Time) (float64, error) {
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return 0, ErrNotYetActive
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return 0, ErrExpired
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return 0, ErrUsageLimitReached
	}
	if coupon.MinPurchase > 0 && cartTotal < coupon.MinPurchase {
		return 0, ErrBelowMinimumPurchase
	}

	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = coupon.Value / 100 * cartTotal
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
	default:
		// Fixed discounts are capped at the cart total so an order can never
		// be pushed below zero by a coupon alone.
		discount = coupon.Value
		if discount > cartTotal {
			discount = cartTotal
		}
	}

	return discount, nil
}
