package domain

import "time"

// CheckoutStep is the position of a customer inside the checkout
// conversation. Steps only move forward; cancellation is the sole exit
// before completion.
type CheckoutStep string

const (
	StepCollectingName     CheckoutStep = "collecting_name"
	StepCollectingStreet   CheckoutStep = "collecting_street"
	StepCollectingCity     CheckoutStep = "collecting_city"
	StepCollectingPostal   CheckoutStep = "collecting_postal"
	StepCollectingCountry  CheckoutStep = "collecting_country"
	StepCollectingDelivery CheckoutStep = "collecting_delivery"
	StepCollectingPayment  CheckoutStep = "collecting_payment_method"
	StepCompleted          CheckoutStep = "completed"
	StepCancelled          CheckoutStep = "cancelled"
)

func (s CheckoutStep) String() string { return string(s) }

// Next returns the step that follows s in the linear flow. Terminal steps
// return themselves.
func (s CheckoutStep) Next() CheckoutStep {
	switch s {
	case StepCollectingName:
		return StepCollectingStreet
	case StepCollectingStreet:
		return StepCollectingCity
	case StepCollectingCity:
		return StepCollectingPostal
	case StepCollectingPostal:
		return StepCollectingCountry
	case StepCollectingCountry:
		return StepCollectingDelivery
	case StepCollectingDelivery:
		return StepCollectingPayment
	case StepCollectingPayment:
		return StepCompleted
	default:
		return s
	}
}

// TextStep reports whether the step consumes a free-text reply (the
// shipping-detail steps) as opposed to a structured selection.
func (s CheckoutStep) TextStep() bool {
	switch s {
	case StepCollectingName, StepCollectingStreet, StepCollectingCity,
		StepCollectingPostal, StepCollectingCountry:
		return true
	}
	return false
}

// CheckoutSession is per-customer scratch state. It lives only in memory:
// abandoning it loses nothing durable, the cart stays intact until an order
// is actually created.
type CheckoutSession struct {
	UserID       int64
	Step         CheckoutStep
	Snapshot     CartSnapshot
	Shipping     ShippingDetails
	Delivery     *DeliveryOption
	TotalAmount  float64
	CreatedAt    time.Time
	LastActivity time.Time
}
