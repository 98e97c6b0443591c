package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/payments"
)

type paymentShippingRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Phone     string `json:"phone"`
}

type paymentCartItemRequest struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity" binding:"required,gte=1"`
	Price     float64 `json:"price" binding:"required,gte=0"`
}

type createPaymentIntentRequest struct {
	Amount          float64                  `json:"amount" binding:"required,gt=0"`
	Currency        string                   `json:"currency"`
	CustomerEmail   string                   `json:"customerEmail" binding:"omitempty,email"`
	CustomerName    string                   `json:"customerName"`
	ShippingDetails *paymentShippingRequest  `json:"shippingDetails"`
	CartItems       []paymentCartItemRequest `json:"cartItems" binding:"omitempty,dive"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

type razorpayOrderRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency"`
}

type razorpayVerifyRequest struct {
	OrderID   string `json:"razorpayOrderId" binding:"required"`
	PaymentID string `json:"razorpayPaymentId" binding:"required"`
	Signature string `json:"razorpaySignature" binding:"required"`
}

// CreatePaymentIntent opens a card charge attempt and records it locally
// before any money moves. The shipping and cart snapshots are stored with the
// record so a succeeded charge can be fulfilled without a separate order.
func CreatePaymentIntent(db *mongo.Database, stripeClient *payments.StripeClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/create-payment-intent"
		defer handlePanic(c, route)

		var req createPaymentIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		currency := strings.ToLower(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = "usd"
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		intent, err := stripeClient.CreatePaymentIntent(ctx, req.Amount, currency, req.CustomerEmail, nil)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] intent creation failed:", err)
			respondError(c, http.StatusBadGateway, route, "payment provider unavailable")
			return
		}

		now := time.Now()
		payment := models.Payment{
			PaymentIntentID: intent.ID,
			Provider:        models.PaymentMethodStripe,
			Amount:          req.Amount,
			Currency:        currency,
			Status:          models.PaymentStatusPending,
			CustomerEmail:   strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
			CustomerName:    strings.TrimSpace(req.CustomerName),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if identity, ok := middleware.IdentityFrom(c); ok {
			payment.UserID = &identity.UserID
		}
		if req.ShippingDetails != nil {
			payment.ShippingDetails = &models.PaymentShippingDetails{
				FirstName: req.ShippingDetails.FirstName,
				LastName:  req.ShippingDetails.LastName,
				Address:   req.ShippingDetails.Address,
				City:      req.ShippingDetails.City,
				State:     req.ShippingDetails.State,
				ZipCode:   req.ShippingDetails.ZipCode,
				Phone:     req.ShippingDetails.Phone,
			}
		}
		for _, item := range req.CartItems {
			cartItem := models.PaymentCartItem{
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.Price,
			}
			if id, err := primitive.ObjectIDFromHex(item.ProductID); err == nil {
				cartItem.ProductID = id
			}
			payment.CartItems = append(payment.CartItems, cartItem)
		}

		if _, err := db.Collection("payments").InsertOne(ctx, payment); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, gin.H{
			"clientSecret":    intent.ClientSecret,
			"paymentIntentId": intent.ID,
		})
	}
}

// ConfirmPayment re-reads the intent from the provider and syncs the local
// record. The provider is the source of truth; the client only names the
// intent to check.
func ConfirmPayment(db *mongo.Database, stripeClient *payments.StripeClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/confirm-payment"
		defer handlePanic(c, route)

		var req confirmPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		intent, err := stripeClient.RetrievePaymentIntent(ctx, req.PaymentIntentID)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] intent lookup failed:", err)
			respondError(c, http.StatusBadGateway, route, "payment provider unavailable")
			return
		}

		status := models.PaymentStatusPending
		switch intent.Status {
		case "succeeded":
			status = models.PaymentStatusSucceeded
		case "canceled":
			status = models.PaymentStatusCanceled
		case "requires_payment_method":
			status = models.PaymentStatusFailed
		}

		res, err := db.Collection("payments").UpdateOne(
			ctx,
			bson.M{"paymentIntentId": intent.ID},
			bson.M{"$set": bson.M{
				"status":    status,
				"updatedAt": time.Now(),
			}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "payment not found")
			return
		}

		respondData(c, http.StatusOK, gin.H{
			"paymentIntentId": intent.ID,
			"status":          status,
		})
	}
}

// CreateRazorpayOrder opens a provider-side order and records it locally. The
// receipt is a fresh UUID so retries never collide.
func CreateRazorpayOrder(db *mongo.Database, razorpayClient *payments.RazorpayClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/razorpay/create-order"
		defer handlePanic(c, route)

		var req razorpayOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency == "" {
			currency = "INR"
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		receipt := "rcpt_" + uuid.NewString()
		order, err := razorpayClient.CreateOrder(ctx, req.Amount, currency, receipt)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] provider order creation failed:", err)
			respondError(c, http.StatusBadGateway, route, "payment provider unavailable")
			return
		}

		now := time.Now()
		payment := models.Payment{
			PaymentIntentID: order.ID,
			Provider:        models.PaymentMethodRazorpay,
			Amount:          req.Amount,
			Currency:        currency,
			Status:          models.PaymentStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if identity, ok := middleware.IdentityFrom(c); ok {
			payment.UserID = &identity.UserID
		}

		if _, err := db.Collection("payments").InsertOne(ctx, payment); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, gin.H{
			"orderId":  order.ID,
			"amount":   order.Amount,
			"currency": order.Currency,
			"keyId":    razorpayClient.KeyID(),
		})
	}
}

// signatureVerdictStatus maps a signature check outcome onto the payment
// record status it must persist: a mismatch is a terminal failure, never left
// pending.
func signatureVerdictStatus(valid bool) string {
	if valid {
		return models.PaymentStatusSucceeded
	}
	return models.PaymentStatusFailed
}

// VerifyRazorpayPayment checks the signature the checkout widget hands back.
// The verdict is written to the local payment record either way: succeeded on
// a genuine signature, failed on a mismatch.
func VerifyRazorpayPayment(db *mongo.Database, razorpayClient *payments.RazorpayClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/razorpay/verify-payment"
		defer handlePanic(c, route)

		var req razorpayVerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		valid := razorpayClient.VerifySignature(req.OrderID, req.PaymentID, req.Signature)
		status := signatureVerdictStatus(valid)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("payments").UpdateOne(
			ctx,
			bson.M{"paymentIntentId": req.OrderID},
			bson.M{"$set": bson.M{
				"status":    status,
				"updatedAt": time.Now(),
				"providerPayload": bson.M{
					"razorpayPaymentId": req.PaymentID,
				},
			}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !valid {
			log.Println("[PAYMENT] [ERROR] signature verification failed for order:", req.OrderID)
			respondError(c, http.StatusBadRequest, route, "invalid payment signature")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, "payment not found")
			return
		}

		respondData(c, http.StatusOK, gin.H{"verified": true})
	}
}
