package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is unique per (product, user); the index in internal/database
// enforces it.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"userId"`
	ProductID primitive.ObjectID `bson:"product" json:"productId"`
	Rating    int                `bson:"rating" json:"rating"`
	Title     string             `bson:"title" json:"title"`
	Comment   string             `bson:"comment" json:"comment"`
	UserName  string             `bson:"userName,omitempty" json:"userName,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
