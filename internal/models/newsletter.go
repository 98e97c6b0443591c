package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NewsletterStatusSubscribed   = "subscribed"
	NewsletterStatusUnsubscribed = "unsubscribed"
)

type NewsletterSubscription struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	Status         string             `bson:"status" json:"status"`
	SubscribedAt   time.Time          `bson:"subscribedAt" json:"subscribedAt"`
	UnsubscribedAt *time.Time         `bson:"unsubscribedAt,omitempty" json:"unsubscribedAt,omitempty"`
}
