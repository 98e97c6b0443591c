package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gte=1"`
}

// GetCart returns the user's cart, or an empty one if none exists yet.
func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var cart models.Cart
		err := db.Collection("carts").FindOne(ctx, bson.M{"user": identity.UserID}).Decode(&cart)
		if err == mongo.ErrNoDocuments {
			respondData(c, http.StatusOK, gin.H{"items": []models.CartItem{}, "totalAmount": 0})
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, cart)
	}
}

// AddToCart adds a product, or replaces its quantity when already present.
// The unit price is captured from the product at add-time.
func AddToCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if product.Stock < req.Quantity {
			respondError(c, http.StatusBadRequest, route, "not enough stock")
			return
		}

		var cart models.Cart
		err = db.Collection("carts").FindOne(ctx, bson.M{"user": identity.UserID}).Decode(&cart)
		if err == mongo.ErrNoDocuments {
			cart = models.Cart{
				UserID: identity.UserID,
				Items:  []models.CartItem{{ProductID: productID, Quantity: req.Quantity, Price: product.Price}},
			}
			cart.RecalculateTotal()
			cart.UpdatedAt = time.Now()

			res, err := db.Collection("carts").InsertOne(ctx, cart)
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				cart.ID = id
			}
			respondData(c, http.StatusOK, cart)
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		found := false
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity = req.Quantity
				found = true
				break
			}
		}
		if !found {
			cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: req.Quantity, Price: product.Price})
		}

		if err := persistCart(ctx, db, &cart); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, cart)
	}
}

// UpdateCartItem changes the quantity of an item already in the cart.
func UpdateCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/cart/:productId"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if product.Stock < req.Quantity {
			respondError(c, http.StatusBadRequest, route, "not enough stock")
			return
		}

		var cart models.Cart
		if err := db.Collection("carts").FindOne(ctx, bson.M{"user": identity.UserID}).Decode(&cart); err != nil {
			respondError(c, http.StatusNotFound, route, "cart not found")
			return
		}

		found := false
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity = req.Quantity
				found = true
				break
			}
		}
		if !found {
			respondError(c, http.StatusNotFound, route, "item not found in cart")
			return
		}

		if err := persistCart(ctx, db, &cart); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, cart)
	}
}

// RemoveFromCart drops an item from the cart.
func RemoveFromCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/:productId"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var cart models.Cart
		if err := db.Collection("carts").FindOne(ctx, bson.M{"user": identity.UserID}).Decode(&cart); err != nil {
			respondError(c, http.StatusNotFound, route, "cart not found")
			return
		}

		items := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ProductID != productID {
				items = append(items, item)
			}
		}
		cart.Items = items

		if err := persistCart(ctx, db, &cart); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, cart)
	}
}

// ClearCart removes all items.
func ClearCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var cart models.Cart
		if err := db.Collection("carts").FindOne(ctx, bson.M{"user": identity.UserID}).Decode(&cart); err != nil {
			respondError(c, http.StatusNotFound, route, "cart not found")
			return
		}

		cart.Items = []models.CartItem{}

		if err := persistCart(ctx, db, &cart); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, cart)
	}
}

// persistCart recomputes the total and writes the items back. The derived
// totalAmount is never trusted from a previous read.
func persistCart(ctx context.Context, db *mongo.Database, cart *models.Cart) error {
	cart.RecalculateTotal()
	cart.UpdatedAt = time.Now()

	_, err := db.Collection("carts").UpdateOne(
		ctx,
		bson.M{"_id": cart.ID},
		bson.M{"$set": bson.M{
			"items":       cart.Items,
			"totalAmount": cart.TotalAmount,
			"updatedAt":   cart.UpdatedAt,
		}},
	)
	return err
}
