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

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// SubmitContact stores a contact form message and notifies the shop inbox.
func SubmitContact(db *mongo.Database, mail *mailer.Mailer, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/contact"
		defer handlePanic(c, route)

		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		now := time.Now()
		contact := models.Contact{
			Name:      strings.TrimSpace(req.Name),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Subject:   strings.TrimSpace(req.Subject),
			Message:   req.Message,
			Status:    models.ContactStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("contacts").InsertOne(ctx, contact)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			contact.ID = id
		}

		if adminEmail != "" {
			mail.SendAsync(adminEmail, "New contact message: "+contact.Subject,
				fmt.Sprintf("From: %s <%s>\n\n%s", contact.Name, contact.Email, contact.Message))
		}
		mail.SendAsync(contact.Email, "We received your message",
			"Thanks for getting in touch. We'll reply as soon as we can.")

		respondData(c, http.StatusCreated, contact)
	}
}

// GetContacts is admin-only, newest first.
func GetContacts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/contact"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("contacts").Find(
			ctx,
			bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		contacts := []models.Contact{}
		if err := cursor.All(ctx, &contacts); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondData(c, http.StatusOK, contacts)
	}
}

// GetContact is admin-only.
func GetContact(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/contact/:id"
		defer handlePanic(c, route)

		contactID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid contact id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var contact models.Contact
		if err := db.Collection("contacts").FindOne(ctx, bson.M{"_id": contactID}).Decode(&contact); err != nil {
			respondError(c, http.StatusNotFound, route, "contact not found")
			return
		}

		respondData(c, http.StatusOK, contact)
	}
}

// UpdateContactStatus is admin-only.
func UpdateContactStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/contact/:id/status"
		defer handlePanic(c, route)

		contactID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid contact id")
			return
		}

		var req struct {
			Status string `json:"status" binding:"required,oneof=pending replied resolved"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var contact models.Contact
		err = db.Collection("contacts").FindOneAndUpdate(
			ctx,
			bson.M{"_id": contactID},
			bson.M{"$set": bson.M{"status": req.Status, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&contact)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "contact not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, contact)
	}
}
