package handlers

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestCouponRedemptionFilterWithLimit(t *testing.T) {
	coupon := &models.Coupon{
		ID:         primitive.NewObjectID(),
		UsageLimit: 1,
		UsedCount:  0,
	}

	filter := couponRedemptionFilter(coupon)

	if filter["_id"] != coupon.ID {
		t.Errorf("filter _id = %v, want %v", filter["_id"], coupon.ID)
	}
	cond, ok := filter["usedCount"].(bson.M)
	if !ok {
		t.Fatalf("expected usedCount condition in filter, got %v", filter["usedCount"])
	}
	if cond["$lt"] != 1 {
		t.Errorf("usedCount $lt = %v, want 1", cond["$lt"])
	}
}

func TestCouponRedemptionFilterWithoutLimit(t *testing.T) {
	coupon := &models.Coupon{ID: primitive.NewObjectID()}

	filter := couponRedemptionFilter(coupon)

	if _, present := filter["usedCount"]; present {
		t.Errorf("unlimited coupon must not constrain usedCount, got %v", filter["usedCount"])
	}
	if len(filter) != 1 {
		t.Errorf("expected id-only filter, got %v", filter)
	}
}

func TestStripeEventDecode(t *testing.T) {
	payload := []byte(`{
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": "pi_123",
				"status": "succeeded",
				"receipt_email": "buyer@example.com",
				"metadata": {"orderId": "64f000000000000000000001"}
			}
		}
	}`)

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.Type != "payment_intent.succeeded" {
		t.Errorf("type = %q", event.Type)
	}
	if event.Data.Object.ID != "pi_123" {
		t.Errorf("intent id = %q", event.Data.Object.ID)
	}
	if event.Data.Object.Metadata["orderId"] != "64f000000000000000000001" {
		t.Errorf("orderId = %q", event.Data.Object.Metadata["orderId"])
	}
	if event.Data.Object.ReceiptEmail != "buyer@example.com" {
		t.Errorf("receipt email = %q", event.Data.Object.ReceiptEmail)
	}
}

func TestStripeEventDecodeMissingMetadata(t *testing.T) {
	payload := []byte(`{"type": "payment_intent.succeeded", "data": {"object": {"id": "pi_456"}}}`)

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.Data.Object.Metadata["orderId"] != "" {
		t.Errorf("expected empty orderId, got %q", event.Data.Object.Metadata["orderId"])
	}
}
