package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type productRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Price       float64  `json:"price" binding:"required,gte=0"`
	Images      []string `json:"images"`
	Category    string   `json:"category" binding:"required"`
	Stock       *int     `json:"stock" binding:"required,gte=0"`
	Featured    bool     `json:"featured"`
}

// GetProducts lists the catalog with pagination, category/search filters and a
// price window.
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		minPrice := 0.0
		if raw := strings.TrimSpace(c.Query("minPrice")); raw != "" {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				minPrice = parsed
			}
		}
		maxPrice := math.MaxFloat64
		if raw := strings.TrimSpace(c.Query("maxPrice")); raw != "" {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				maxPrice = parsed
			}
		}

		filter := bson.M{
			"price": bson.M{"$gte": minPrice, "$lte": maxPrice},
		}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			categoryID, err := primitive.ObjectIDFromHex(category)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid category id")
				return
			}
			filter["category"] = categoryID
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$text"] = bson.M{"$search": search}
		}

		sortBy := strings.TrimSpace(c.Query("sortBy"))
		if sortBy == "" {
			sortBy = "createdAt"
		}
		sortOrder := -1
		if c.Query("sortOrder") == "asc" {
			sortOrder = 1
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: sortBy, Value: sortOrder}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := []models.Product{}
		if err := cursor.All(ctx, &products); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    products,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": int64(math.Ceil(float64(total) / float64(limit))),
			},
		})
	}
}

// GetFeaturedProducts returns up to `limit` featured products.
func GetFeaturedProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/featured"
		defer handlePanic(c, route)

		limit := int64(8)
		if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
			if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(
			ctx,
			bson.M{"featured": true},
			options.Find().SetLimit(limit),
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := []models.Product{}
		if err := cursor.All(ctx, &products); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondData(c, http.StatusOK, products)
	}
}

// GetProduct returns a single product by id.
func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
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

		respondData(c, http.StatusOK, product)
	}
}

// CreateProduct is admin-only.
func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		categoryID, err := primitive.ObjectIDFromHex(req.Category)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid category id")
			return
		}

		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Price:       req.Price,
			Images:      req.Images,
			Category:    categoryID,
			Stock:       *req.Stock,
			Featured:    req.Featured,
			CreatedAt:   time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}

		respondData(c, http.StatusCreated, product)
	}
}

// UpdateProduct is admin-only; only provided fields are changed.
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req struct {
			Name        *string   `json:"name"`
			Description *string   `json:"description"`
			Price       *float64  `json:"price"`
			Images      *[]string `json:"images"`
			Category    *string   `json:"category"`
			Stock       *int      `json:"stock"`
			Featured    *bool     `json:"featured"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		update := bson.M{}
		if req.Name != nil {
			update["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			update["description"] = *req.Description
		}
		if req.Price != nil {
			if *req.Price < 0 {
				respondError(c, http.StatusBadRequest, route, "price cannot be negative")
				return
			}
			update["price"] = *req.Price
		}
		if req.Images != nil {
			update["images"] = *req.Images
		}
		if req.Category != nil {
			categoryID, err := primitive.ObjectIDFromHex(*req.Category)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid category id")
				return
			}
			update["category"] = categoryID
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				respondError(c, http.StatusBadRequest, route, "stock cannot be negative")
				return
			}
			update["stock"] = *req.Stock
		}
		if req.Featured != nil {
			update["featured"] = *req.Featured
		}

		if len(update) == 0 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&product)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, product)
	}
}

// DeleteProduct is admin-only.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": productID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}

		respondData(c, http.StatusOK, gin.H{})
	}
}
