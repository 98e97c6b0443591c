package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	client := NewRazorpayClient("key_id", "key_secret")

	valid := SignRazorpayPayment("key_secret", "order_123", "pay_456")
	if !client.VerifySignature("order_123", "pay_456", valid) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifySignatureRejectsMismatch(t *testing.T) {
	client := NewRazorpayClient("key_id", "key_secret")
	valid := SignRazorpayPayment("key_secret", "order_123", "pay_456")

	tests := []struct {
		name           string
		orderID, payID string
		signature      string
	}{
		{"wrong order id", "order_999", "pay_456", valid},
		{"wrong payment id", "order_123", "pay_999", valid},
		{"tampered signature", "order_123", "pay_456", valid[:len(valid)-1] + "0"},
		{"empty signature", "order_123", "pay_456", ""},
		{"wrong secret", "order_123", "pay_456", SignRazorpayPayment("other_secret", "order_123", "pay_456")},
	}

	for _, tt := range tests {
		if client.VerifySignature(tt.orderID, tt.payID, tt.signature) {
			t.Fatalf("%s: expected signature to be rejected", tt.name)
		}
	}
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key_id" || pass != "key_secret" {
			t.Fatal("expected basic auth with api keys")
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["amount"].(float64) != 10050 {
			t.Fatalf("expected amount in minor units 10050, got %v", body["amount"])
		}

		json.NewEncoder(w).Encode(RazorpayOrder{
			ID:       "order_test",
			Amount:   10050,
			Currency: "INR",
			Receipt:  body["receipt"].(string),
			Status:   "created",
		})
	}))
	defer server.Close()

	client := NewRazorpayClient("key_id", "key_secret").WithBaseURL(server.URL)
	order, err := client.CreateOrder(context.Background(), 100.50, "INR", "rcpt_1")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.ID != "order_test" || order.Receipt != "rcpt_1" {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestCreateOrderSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"description":"bad keys"}}`))
	}))
	defer server.Close()

	client := NewRazorpayClient("key_id", "wrong").WithBaseURL(server.URL)
	if _, err := client.CreateOrder(context.Background(), 10, "INR", "rcpt_2"); err == nil {
		t.Fatal("expected error from 401 response")
	}
}
