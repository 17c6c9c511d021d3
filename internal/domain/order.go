package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "pending_payment"
	OrderStatusPaymentReceived OrderStatus = "payment_received"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransition encodes the permitted status graph. Cancellation is allowed
// until the order ships; shipped and delivered orders are past the point of
// no return.
func CanTransition(from, to OrderStatus) bool {
	switch to {
	case OrderStatusPaymentReceived:
		return from == OrderStatusPendingPayment
	case OrderStatusProcessing:
		return from == OrderStatusPendingPayment || from == OrderStatusPaymentReceived
	case OrderStatusShipped:
		return from == OrderStatusProcessing
	case OrderStatusDelivered:
		return from == OrderStatusShipped
	case OrderStatusCancelled:
		return from == OrderStatusPendingPayment ||
			from == OrderStatusPaymentReceived ||
			from == OrderStatusProcessing
	default:
		return false
	}
}

type OrderItem struct {
	ProductID       string  `bson:"product_id" json:"product_id"`
	ProductName     string  `bson:"product_name" json:"product_name"`
	Quantity        float64 `bson:"quantity" json:"quantity"`
	PriceAtPurchase float64 `bson:"price_at_purchase" json:"price_at_purchase"`
}

type ShippingDetails struct {
	Name       string `bson:"name" json:"name"`
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Country    string `bson:"country" json:"country"`
}

type DeliveryOption struct {
	Type string  `bson:"type" json:"type"`
	Fee  float64 `bson:"fee" json:"fee"`
}

// PaymentDetails is locked at order creation: the crypto amount is the
// binding figure regardless of later rate movement.
type PaymentDetails struct {
	Cryptocurrency   string    `bson:"cryptocurrency" json:"cryptocurrency"`
	WalletAddress    string    `bson:"wallet_address" json:"wallet_address"`
	AmountInCrypto   float64   `bson:"amount_in_crypto" json:"amount_in_crypto"`
	PaymentExpiresAt time.Time `bson:"payment_expires_at" json:"payment_expires_at"`
	TransactionHash  string    `bson:"transaction_hash,omitempty" json:"transaction_hash,omitempty"`
}

type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         int64              `bson:"user_id" json:"user_id"`
	Items          []OrderItem        `bson:"items" json:"items"`
	TotalAmount    float64            `bson:"total_amount" json:"total_amount"`
	Status         OrderStatus        `bson:"status" json:"status"`
	Shipping       ShippingDetails    `bson:"shipping_details" json:"shipping_details"`
	Delivery       DeliveryOption     `bson:"delivery_method" json:"delivery_method"`
	Payment        PaymentDetails     `bson:"payment_method" json:"payment_method"`
	TrackingNumber string             `bson:"tracking_number,omitempty" json:"tracking_number,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
