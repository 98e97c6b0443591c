package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/mailer"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/pricing"
)

type orderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

type shippingAddressRequest struct {
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type createOrderRequest struct {
	Items           []orderItemRequest     `json:"items" binding:"required,min=1,dive"`
	ShippingAddress shippingAddressRequest `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required,oneof=stripe razorpay"`
	CouponCode      string                 `json:"couponCode"`
}

var errInsufficientStock = errors.New("insufficient stock")

// CreateOrder validates the requested items against live stock, prices the
// order server-side, applies and redeems an optional coupon, and opens a
// payment intent when the order is paid by card. Stock decrements and the
// order insert run in one transaction so a failed item never leaks a
// decrement.
func CreateOrder(db *mongo.Database, stripeClient *payments.StripeClient, mail *mailer.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		// Resolve the coupon before touching stock; evaluation errors are
		// user-facing 400s.
		var (
			coupon    *models.Coupon
			discount  float64
			tentative []models.OrderItem
			lines     []pricing.Line
		)

		for _, item := range req.Items {
			productID, err := primitive.ObjectIDFromHex(item.ProductID)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid product id")
				return
			}

			var product models.Product
			if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
				respondError(c, http.StatusNotFound, route, "product not found: "+item.ProductID)
				return
			}

			tentative = append(tentative, models.OrderItem{
				ProductID: productID,
				Name:      product.Name,
				Quantity:  item.Quantity,
				Price:     product.Price,
			})
			lines = append(lines, pricing.Line{Quantity: item.Quantity, Price: product.Price})
		}

		itemsPrice := 0.0
		for _, line := range lines {
			itemsPrice += float64(line.Quantity) * line.Price
		}

		if code := strings.ToUpper(strings.TrimSpace(req.CouponCode)); code != "" {
			var found models.Coupon
			err := db.Collection("coupons").FindOne(ctx, bson.M{"code": code, "active": true}).Decode(&found)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid coupon code")
				return
			}
			discount, err = pricing.EvaluateCoupon(found, itemsPrice, time.Now())
			if err != nil {
				respondError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			coupon = &found
		}

		totals := pricing.CalculateOrderTotals(lines, discount)

		order := models.Order{
			UserID: identity.UserID,
			Items:  tentative,
			ShippingAddress: models.ShippingAddress{
				Street:     req.ShippingAddress.Street,
				City:       req.ShippingAddress.City,
				State:      req.ShippingAddress.State,
				PostalCode: req.ShippingAddress.PostalCode,
				Country:    req.ShippingAddress.Country,
			},
			PaymentMethod:  req.PaymentMethod,
			ItemsPrice:     totals.ItemsPrice,
			TaxPrice:       totals.TaxPrice,
			ShippingPrice:  totals.ShippingPrice,
			TotalPrice:     totals.TotalPrice,
			DiscountAmount: totals.Discount,
			Status:         models.OrderStatusPending,
			CreatedAt:      time.Now(),
		}
		if coupon != nil {
			order.CouponCode = coupon.Code
		}

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		insertedID, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			for _, item := range order.Items {
				// Conditional decrement: the filter only matches when enough
				// stock remains, so concurrent orders cannot oversell.
				res, err := db.Collection("products").UpdateOne(
					sc,
					bson.M{"_id": item.ProductID, "stock": bson.M{"$gte": item.Quantity}},
					bson.M{"$inc": bson.M{"stock": -item.Quantity}},
				)
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					return nil, fmt.Errorf("%w for %s", errInsufficientStock, item.Name)
				}
			}

			if coupon != nil {
				if err := redeemCoupon(sc, db, coupon); err != nil {
					return nil, err
				}
			}

			res, err := db.Collection("orders").InsertOne(sc, order)
			if err != nil {
				return nil, err
			}
			return res.InsertedID, nil
		})
		if err != nil {
			if errors.Is(err, errInsufficientStock) || errors.Is(err, pricing.ErrUsageLimitReached) {
				respondError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			respondError(c, http.StatusInternalServerError, route, "could not create order")
			return
		}
		if id, ok := insertedID.(primitive.ObjectID); ok {
			order.ID = id
		}

		// Best effort cart cleanup; an order exists either way.
		if _, err := db.Collection("carts").UpdateOne(
			ctx,
			bson.M{"user": identity.UserID},
			bson.M{"$set": bson.M{"items": []models.CartItem{}, "totalAmount": 0, "updatedAt": time.Now()}},
		); err != nil {
			log.Println("[ORDER] [WARN] cart cleanup failed:", err)
		}

		response := gin.H{"order": order}

		if req.PaymentMethod == models.PaymentMethodStripe {
			intent, err := stripeClient.CreatePaymentIntent(ctx, order.TotalPrice, "usd", identity.Email, map[string]string{
				"orderId": order.ID.Hex(),
			})
			if err != nil {
				log.Println("[ORDER] [ERROR] payment intent creation failed:", err)
				respondError(c, http.StatusBadGateway, route, "payment provider unavailable")
				return
			}
			response["clientSecret"] = intent.ClientSecret
		}

		mail.SendAsync(identity.Email, "Order confirmation",
			fmt.Sprintf("Your order %s has been placed. Total: %.2f", order.ID.Hex(), order.TotalPrice))

		log.Println("[ORDER] [INFO] order created:", order.ID.Hex())
		respondData(c, http.StatusCreated, response)
	}
}

// couponRedemptionFilter re-checks the usage limit inside the update filter,
// so two concurrent redemptions cannot both take the last slot. Coupons
// without a limit match on id alone.
func couponRedemptionFilter(coupon *models.Coupon) bson.M {
	filter := bson.M{"_id": coupon.ID}
	if coupon.UsageLimit > 0 {
		filter["usedCount"] = bson.M{"$lt": coupon.UsageLimit}
	}
	return filter
}

// redeemCoupon bumps usedCount under the conditional filter.
func redeemCoupon(ctx context.Context, db *mongo.Database, coupon *models.Coupon) error {
	res, err := db.Collection("coupons").UpdateOne(ctx, couponRedemptionFilter(coupon), bson.M{"$inc": bson.M{"usedCount": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pricing.ErrUsageLimitReached
	}
	return nil
}

// GetMyOrders lists the authenticated user's orders, newest first.
func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(
			ctx,
			bson.M{"user": identity.UserID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := []models.Order{}
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondData(c, http.StatusOK, orders)
	}
}

// GetAllOrders is admin-only and paginated.
func GetAllOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/all"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := db.Collection("orders").Find(
			ctx,
			filter,
			options.Find().
				SetSort(bson.D{{Key: "createdAt", Value: -1}}).
				SetSkip((page-1)*limit).
				SetLimit(limit),
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := []models.Order{}
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    orders,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		})
	}
}

// GetOrder returns one order; only its owner or an admin may see it.
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			respondError(c, http.StatusNotFound, route, "order not found")
			return
		}

		if order.UserID != identity.UserID && !identity.IsAdmin() {
			respondError(c, http.StatusForbidden, route, "not authorized to view this order")
			return
		}

		respondData(c, http.StatusOK, order)
	}
}

// UpdateOrderStatus is admin-only.
func UpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		var req struct {
			Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		update := bson.M{"status": req.Status}
		if req.Status == models.OrderStatusDelivered {
			now := time.Now()
			update["isDelivered"] = true
			update["deliveredAt"] = now
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{"_id": orderID},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, order)
	}
}

// MarkOrderDelivered is admin-only shorthand for the delivered status change.
func MarkOrderDelivered(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/deliver"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{"_id": orderID},
			bson.M{"$set": bson.M{
				"isDelivered": true,
				"deliveredAt": now,
				"status":      models.OrderStatusDelivered,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, order)
	}
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID           string            `json:"id"`
			Status       string            `json:"status"`
			ReceiptEmail string            `json:"receipt_email"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// StripeWebhook consumes provider events. The signature is verified against
// the raw body before any parsing. Marking an order paid filters on
// isPaid:false, so replayed events are no-ops.
func StripeWebhook(db *mongo.Database, verifier *payments.WebhookVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/webhook"
		defer handlePanic(c, route)

		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "could not read body")
			return
		}

		if err := verifier.Verify(payload, c.GetHeader("Stripe-Signature"), time.Now()); err != nil {
			log.Println("[WEBHOOK] [ERROR] signature verification failed:", err)
			respondError(c, http.StatusBadRequest, route, "invalid signature")
			return
		}

		var event stripeEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid payload")
			return
		}

		if event.Type != "payment_intent.succeeded" {
			// Acknowledge everything else so the provider stops retrying.
			respondMessage(c, http.StatusOK, "ignored")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(event.Data.Object.Metadata["orderId"])
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "missing order reference")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("orders").UpdateOne(
			ctx,
			bson.M{"_id": orderID, "isPaid": false},
			bson.M{"$set": bson.M{
				"isPaid": true,
				"paidAt": now,
				"status": models.OrderStatusProcessing,
				"paymentResult": models.PaymentResult{
					ID:           event.Data.Object.ID,
					Status:       event.Data.Object.Status,
					UpdateTime:   now.Format(time.RFC3339),
					EmailAddress: event.Data.Object.ReceiptEmail,
				},
			}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			log.Println("[WEBHOOK] [INFO] order already paid or unknown:", orderID.Hex())
		} else {
			log.Println("[WEBHOOK] [INFO] order marked paid:", orderID.Hex())
		}

		respondMessage(c, http.StatusOK, "received")
	}
}
