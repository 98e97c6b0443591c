package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/mailer"
	"storefront/internal/models"
)

type newsletterRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SubscribeNewsletter subscribes an address. A previously unsubscribed
// address is reactivated and its unsubscribedAt stamp cleared.
func SubscribeNewsletter(db *mongo.Database, mail *mailer.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/newsletter/subscribe"
		defer handlePanic(c, route)

		var req newsletterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.NewsletterSubscription
		err := db.Collection("newsletter").FindOne(ctx, bson.M{"email": email}).Decode(&existing)
		switch {
		case err == mongo.ErrNoDocuments:
			sub := models.NewsletterSubscription{
				Email:        email,
				Status:       models.NewsletterStatusSubscribed,
				SubscribedAt: time.Now(),
			}
			if _, err := db.Collection("newsletter").InsertOne(ctx, sub); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					respondError(c, http.StatusBadRequest, route, "email already subscribed")
					return
				}
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
		case err != nil:
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		case existing.Status == models.NewsletterStatusSubscribed:
			respondError(c, http.StatusBadRequest, route, "email already subscribed")
			return
		default:
			_, err := db.Collection("newsletter").UpdateOne(
				ctx,
				bson.M{"email": email},
				bson.M{
					"$set":   bson.M{"status": models.NewsletterStatusSubscribed, "subscribedAt": time.Now()},
					"$unset": bson.M{"unsubscribedAt": ""},
				},
			)
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
		}

		mail.SendAsync(email, "Welcome to our newsletter",
			"Thanks for subscribing. You'll hear from us when we have something worth sharing.")

		respondMessage(c, http.StatusOK, "subscribed to newsletter")
	}
}

// UnsubscribeNewsletter marks an address unsubscribed; the record is kept.
func UnsubscribeNewsletter(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/newsletter/unsubscribe"
		defer handlePanic(c, route)

		var req newsletterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		res, err := db.Collection("newsletter").UpdateOne(
			ctx,
			bson.M{"email": email, "status": models.NewsletterStatusSubscribed},
			bson.M{"$set": bson.M{
				"status":         models.NewsletterStatusUnsubscribed,
				"unsubscribedAt": now,
			}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusBadRequest, route, "email not subscribed")
			return
		}

		respondMessage(c, http.StatusOK, "unsubscribed from newsletter")
	}
}

// GetNewsletterSubscribers is admin-only.
func GetNewsletterSubscribers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/newsletter/subscribers"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("newsletter").Find(ctx, bson.M{"status": models.NewsletterStatusSubscribed})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		subscribers := []models.NewsletterSubscription{}
		if err := cursor.All(ctx, &subscribers); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondData(c, http.StatusOK, subscribers)
	}
}
