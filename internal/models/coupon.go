package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// Coupon codes are stored upper-case and unique. UsedCount only ever moves
// up, by exactly one per successful redemption.
type Coupon struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code        string             `bson:"code" json:"code"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        string             `bson:"type" json:"type"`
	Value       float64            `bson:"value" json:"value"`
	MinPurchase float64            `bson:"minPurchase,omitempty" json:"minPurchase,omitempty"`
	MaxDiscount float64            `bson:"maxDiscount,omitempty" json:"maxDiscount,omitempty"`
	UsageLimit  int                `bson:"usageLimit,omitempty" json:"usageLimit,omitempty"`
	UsedCount   int                `bson:"usedCount" json:"usedCount"`
	ValidFrom   *time.Time         `bson:"validFrom,omitempty" json:"validFrom,omitempty"`
	ValidUntil  *time.Time         `bson:"validUntil,omitempty" json:"validUntil,omitempty"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
