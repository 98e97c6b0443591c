package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusCanceled  = "canceled"
)

type PaymentShippingDetails struct {
	FirstName string `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName  string `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Address   string `bson:"address,omitempty" json:"address,omitempty"`
	City      string `bson:"city,omitempty" json:"city,omitempty"`
	State     string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode   string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type PaymentCartItem struct {
	ProductID primitive.ObjectID `bson:"productId,omitempty" json:"productId,omitempty"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}

// Payment records one charge attempt against an external provider. The raw
// provider response is kept for audit.
type Payment struct {
	ID              primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	UserID          *primitive.ObjectID     `bson:"userId,omitempty" json:"userId,omitempty"`
	PaymentIntentID string                  `bson:"paymentIntentId" json:"paymentIntentId"`
	Provider        string                  `bson:"provider" json:"provider"`
	Amount          float64                 `bson:"amount" json:"amount"`
	Currency        string                  `bson:"currency" json:"currency"`
	Status          string                  `bson:"status" json:"status"`
	CustomerEmail   string                  `bson:"customerEmail,omitempty" json:"customerEmail,omitempty"`
	CustomerName    string                  `bson:"customerName,omitempty" json:"customerName,omitempty"`
	ShippingDetails *PaymentShippingDetails `bson:"shippingDetails,omitempty" json:"shippingDetails,omitempty"`
	CartItems       []PaymentCartItem       `bson:"cartItems,omitempty" json:"cartItems,omitempty"`
	ProviderPayload bson.M                  `bson:"providerPayload,omitempty" json:"-"`
	CreatedAt       time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time               `bson:"updatedAt" json:"updatedAt"`
}
