package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/mailer"
	"storefront/internal/models"
)

type customRequestBody struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Details string `json:"details" binding:"required"`
}

// SubmitCustomRequest records a made-to-order request and notifies the shop.
func SubmitCustomRequest(db *mongo.Database, mail *mailer.Mailer, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/custom-request"
		defer handlePanic(c, route)

		var req customRequestBody
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		now := time.Now()
		request := models.CustomRequest{
			Name:      strings.TrimSpace(req.Name),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:     strings.TrimSpace(req.Phone),
			Details:   req.Details,
			Status:    models.CustomRequestStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("customrequests").InsertOne(ctx, request)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			request.ID = id
		}

		if adminEmail != "" {
			mail.SendAsync(adminEmail, "New custom product request",
				fmt.Sprintf("From: %s <%s>\nPhone: %s\n\n%s", request.Name, request.Email, request.Phone, request.Details))
		}
		mail.SendAsync(request.Email, "We received your request",
			"Thanks for reaching out. We'll review your request and get back to you shortly.")

		respondData(c, http.StatusCreated, request)
	}
}

// GetCustomRequests is admin-only, newest first.
func GetCustomRequests(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/custom-request"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("customrequests").Find(
			ctx,
			bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		requests := []models.CustomRequest{}
		if err := cursor.All(ctx, &requests); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondData(c, http.StatusOK, requests)
	}
}

// UpdateCustomRequestStatus is admin-only.
func UpdateCustomRequestStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/custom-request/:id/status"
		defer handlePanic(c, route)

		requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid request id")
			return
		}

		var req struct {
			Status string `json:"status" binding:"required,oneof=pending in-progress completed"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var request models.CustomRequest
		err = db.Collection("customrequests").FindOneAndUpdate(
			ctx,
			bson.M{"_id": requestID},
			bson.M{"$set": bson.M{"status": req.Status, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&request)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "request not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, request)
	}
}
