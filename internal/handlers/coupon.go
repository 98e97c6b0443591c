package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

type createCouponRequest struct {
	Code        string     `json:"code" binding:"required"`
	Description string     `json:"description"`
	Type        string     `json:"type" binding:"required,oneof=percentage fixed"`
	Value       float64    `json:"value" binding:"required,gt=0"`
	MinPurchase float64    `json:"minPurchase" binding:"gte=0"`
	MaxDiscount float64    `json:"maxDiscount" binding:"gte=0"`
	UsageLimit  int        `json:"usageLimit" binding:"gte=0"`
	ValidFrom   *time.Time `json:"validFrom"`
	ValidUntil  *time.Time `json:"validUntil"`
	Active      *bool      `json:"active"`
}

type validateCouponRequest struct {
	Code      string  `json:"code" binding:"required"`
	CartTotal float64 `json:"cartTotal" binding:"required,gt=0"`
}

// CreateCoupon is admin-only. Codes are stored upper-case.
func CreateCoupon(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/coupons"
		defer handlePanic(c, route)

		var req createCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.Type == models.CouponTypePercentage && req.Value > 100 {
			respondError(c, http.StatusBadRequest, route, "percentage value cannot exceed 100")
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}

		coupon := models.Coupon{
			Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
			Description: req.Description,
			Type:        req.Type,
			Value:       req.Value,
			MinPurchase: req.MinPurchase,
			MaxDiscount: req.MaxDiscount,
			UsageLimit:  req.UsageLimit,
			ValidFrom:   req.ValidFrom,
			ValidUntil:  req.ValidUntil,
			Active:      active,
			CreatedAt:   time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("coupons").InsertOne(ctx, coupon)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusBadRequest, route, "coupon code already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			coupon.ID = id
		}

		respondData(c, http.StatusCreated, coupon)
	}
}

// GetCoupons is admin-only.
func GetCoupons(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/coupons"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("coupons").Find(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		coupons := []models.Coupon{}
		if err := cursor.All(ctx, &coupons); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondData(c, http.StatusOK, coupons)
	}
}

// ValidateCoupon evaluates a code against a cart total without consuming a
// redemption; checkout redeems for real.
func ValidateCoupon(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/coupons/validate"
		defer handlePanic(c, route)

		var req validateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		code := strings.ToUpper(strings.TrimSpace(req.Code))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var coupon models.Coupon
		if err := db.Collection("coupons").FindOne(ctx, bson.M{"code": code, "active": true}).Decode(&coupon); err != nil {
			respondError(c, http.StatusNotFound, route, "coupon not found")
			return
		}

		discount, err := pricing.EvaluateCoupon(coupon, req.CartTotal, time.Now())
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		respondData(c, http.StatusOK, gin.H{
			"code":     coupon.Code,
			"type":     coupon.Type,
			"value":    coupon.Value,
			"discount": discount,
			"total":    req.CartTotal - discount,
		})
	}
}

// RedeemCoupon evaluates a code and consumes one redemption slot. The bump
// goes through the same conditional filter checkout uses, so a concurrent
// redemption of the last slot loses cleanly.
func RedeemCoupon(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/coupons/redeem"
		defer handlePanic(c, route)

		var req validateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		code := strings.ToUpper(strings.TrimSpace(req.Code))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var coupon models.Coupon
		if err := db.Collection("coupons").FindOne(ctx, bson.M{"code": code, "active": true}).Decode(&coupon); err != nil {
			respondError(c, http.StatusNotFound, route, "coupon not found")
			return
		}

		discount, err := pricing.EvaluateCoupon(coupon, req.CartTotal, time.Now())
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if err := redeemCoupon(ctx, db, &coupon); err != nil {
			if errors.Is(err, pricing.ErrUsageLimitReached) {
				respondError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, gin.H{
			"code":     coupon.Code,
			"discount": discount,
			"total":    req.CartTotal - discount,
		})
	}
}

// DeleteCoupon is admin-only.
func DeleteCoupon(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/coupons/:id"
		defer handlePanic(c, route)

		couponID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid coupon id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("coupons").DeleteOne(ctx, bson.M{"_id": couponID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "coupon not found")
			return
		}

		respondData(c, http.StatusOK, gin.H{})
	}
}
