package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRazorpayBaseURL = "https://api.razorpay.com"

// RazorpayOrder is the provider-side order object the client completes
// payment against.
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// RazorpayClient talks to the order-based payment provider.
type RazorpayClient struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultRazorpayBaseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the client at a different API host, used by tests.
func (r *RazorpayClient) WithBaseURL(baseURL string) *RazorpayClient {
	r.baseURL = strings.TrimRight(baseURL, "/")
	return r
}

// KeyID is exposed so the frontend can initialise the provider checkout.
func (r *RazorpayClient) KeyID() string {
	return r.keyID
}

// CreateOrder creates a server-side order for the given amount in major units.
func (r *RazorpayClient) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*RazorpayOrder, error) {
	body, err := json.Marshal(map[string]interface{}{
		"amount":   MinorUnits(amount),
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("razorpay: create order returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var order RazorpayOrder
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifySignature checks the signature the client returns after completing
// payment: HMAC-SHA256 over "orderId|paymentId" keyed with the shared secret.
// The comparison is constant-time.
func (r *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	expected := SignRazorpayPayment(r.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignRazorpayPayment computes the hex HMAC-SHA256 over "orderId|paymentId".
func SignRazorpayPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID))
	mac.Write([]byte("|"))
	mac.Write([]byte(paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
