package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

type createReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Title   string `json:"title" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// GetProductReviews lists reviews for one product, newest first.
func GetProductReviews(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id/reviews"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("reviews").Find(
			ctx,
			bson.M{"product": productID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		reviews := []models.Review{}
		if err := cursor.All(ctx, &reviews); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondData(c, http.StatusOK, reviews)
	}
}

// CreateProductReview stores one review per (product, user); the unique index
// turns a second attempt into a duplicate key error. The product's rating and
// review count are recomputed from the stored reviews afterwards.
func CreateProductReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/:id/reviews"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req createReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("products").CountDocuments(ctx, bson.M{"_id": productID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count == 0 {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}

		var user models.User
		userName := ""
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": identity.UserID}).Decode(&user); err == nil {
			userName = user.Name
		}

		review := models.Review{
			UserID:    identity.UserID,
			ProductID: productID,
			Rating:    req.Rating,
			Title:     strings.TrimSpace(req.Title),
			Comment:   req.Comment,
			UserName:  userName,
			CreatedAt: time.Now(),
		}

		res, err := db.Collection("reviews").InsertOne(ctx, review)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusBadRequest, route, "you have already reviewed this product")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			review.ID = id
		}

		if err := recomputeProductRating(ctx, db, productID); err != nil {
			respondError(c, http.StatusInternalServerError, route, "rating update failed")
			return
		}

		respondData(c, http.StatusCreated, review)
	}
}

// GetReview returns one review by id.
func GetReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/reviews/:id"
		defer handlePanic(c, route)

		reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid review id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var review models.Review
		if err := db.Collection("reviews").FindOne(ctx, bson.M{"_id": reviewID}).Decode(&review); err != nil {
			respondError(c, http.StatusNotFound, route, "review not found")
			return
		}

		respondData(c, http.StatusOK, review)
	}
}

// UpdateReview lets the author change their rating, title or comment; the
// product rating is recomputed when the rating moved.
func UpdateReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/reviews/:id"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid review id")
			return
		}

		var req struct {
			Rating  *int    `json:"rating" binding:"omitempty,gte=1,lte=5"`
			Title   *string `json:"title"`
			Comment *string `json:"comment"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		update := bson.M{}
		if req.Rating != nil {
			update["rating"] = *req.Rating
		}
		if req.Title != nil {
			update["title"] = strings.TrimSpace(*req.Title)
		}
		if req.Comment != nil {
			update["comment"] = *req.Comment
		}
		if len(update) == 0 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var review models.Review
		err = db.Collection("reviews").FindOneAndUpdate(
			ctx,
			bson.M{"_id": reviewID, "user": identity.UserID},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&review)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "review not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if req.Rating != nil {
			if err := recomputeProductRating(ctx, db, review.ProductID); err != nil {
				respondError(c, http.StatusInternalServerError, route, "rating update failed")
				return
			}
		}

		respondData(c, http.StatusOK, review)
	}
}

// DeleteReview removes a review; the author or an admin may do it. The
// product's rating is recomputed after removal.
func DeleteReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/reviews/:id"
		defer handlePanic(c, route)

		identity, _ := middleware.IdentityFrom(c)

		reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid review id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var review models.Review
		if err := db.Collection("reviews").FindOne(ctx, bson.M{"_id": reviewID}).Decode(&review); err != nil {
			respondError(c, http.StatusNotFound, route, "review not found")
			return
		}

		if review.UserID != identity.UserID && !identity.IsAdmin() {
			respondError(c, http.StatusForbidden, route, "not authorized to delete this review")
			return
		}

		if _, err := db.Collection("reviews").DeleteOne(ctx, bson.M{"_id": reviewID}); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := recomputeProductRating(ctx, db, review.ProductID); err != nil {
			respondError(c, http.StatusInternalServerError, route, "rating update failed")
			return
		}

		respondData(c, http.StatusOK, gin.H{})
	}
}

// recomputeProductRating derives rating and numReviews from the reviews
// collection so the product document never drifts from the source of truth.
func recomputeProductRating(ctx context.Context, db *mongo.Database, productID primitive.ObjectID) error {
	cursor, err := db.Collection("reviews").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":        "$product",
			"avgRating":  bson.M{"$avg": "$rating"},
			"numReviews": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	rating := 0.0
	numReviews := 0
	if cursor.Next(ctx) {
		var agg struct {
			AvgRating  float64 `bson:"avgRating"`
			NumReviews int     `bson:"numReviews"`
		}
		if err := cursor.Decode(&agg); err != nil {
			return err
		}
		rating = agg.AvgRating
		numReviews = agg.NumReviews
	}

	_, err = db.Collection("products").UpdateOne(
		ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{"rating": rating, "numReviews": numReviews}},
	)
	return err
}
