// Package checkout walks a customer through the conversational checkout
// flow: shipping details field by field, then delivery, then payment. The
// flow is an explicit state machine keyed on the session's step, never on
// the text of a previous prompt.
package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
)

var (
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

	// ErrNoSession means the customer has no checkout in flight; the input
	// that produced it was simply not meant for this state machine.
	ErrNoSession = errors.New("no active checkout session")

	// ErrUnexpectedInput means the current step wants a different kind of
	// reply (text vs. selection). The step does not advance.
	ErrUnexpectedInput = errors.New("input does not match the current checkout step")

	// ErrInvalidSelection means an out-of-range delivery or payment index.
	// The step does not advance; the caller should re-prompt.
	ErrInvalidSelection = errors.New("selection out of range")
)

// CartLedger is the slice of the cart service checkout needs.
type CartLedger interface {
	Snapshot(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	Clear(ctx context.Context, userID int64) error
}

// OrderCreator turns a finished session into a durable order. The
// implementation owns expiry scheduling and notifications.
type OrderCreator interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
}

// RateSource supplies GBP-to-crypto conversion rates.
type RateSource interface {
	Rate(ticker string) (float64, error)
}

type Service struct {
	sessions   *SessionStore
	cart       CartLedger
	orders     OrderCreator
	rates      RateSource
	methods    []domain.PaymentMethod
	deliveries []domain.DeliveryOption
	window     time.Duration
}

func NewService(sessions *SessionStore, ledger CartLedger, orders OrderCreator, rates RateSource, paymentWindow time.Duration) *Service {
	return &Service{
		sessions:   sessions,
		cart:       ledger,
		orders:     orders,
		rates:      rates,
		methods:    domain.DefaultPaymentMethods(),
		deliveries: domain.DefaultDeliveryOptions(),
		window:     paymentWindow,
	}
}

func (s *Service) PaymentMethods() []domain.PaymentMethod   { return s.methods }
func (s *Service) DeliveryOptions() []domain.DeliveryOption { return s.deliveries }

// Session returns the customer's in-flight session, or nil.
func (s *Service) Session(userID int64) *domain.CheckoutSession {
	return s.sessions.Get(userID)
}

// Begin freezes the current cart into a snapshot and opens the session at
// the first shipping step. An empty cart cannot enter checkout.
func (s *Service) Begin(ctx context.Context, userID int64) (*domain.CheckoutSession, error) {
	snapshot, err := s.cart.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	session := &domain.CheckoutSession{
		UserID:      userID,
		Step:        domain.StepCollectingName,
		Snapshot:    *snapshot,
		TotalAmount: snapshot.TotalAmount,
		CreatedAt:   time.Now(),
	}
	s.sessions.Put(session)
	return session, nil
}

// SubmitText feeds one free-text reply to the session. Shipping steps
// accept any text; structured steps reject it without advancing.
func (s *Service) SubmitText(ctx context.Context, userID int64, text string) (*domain.CheckoutSession, error) {
	session := s.sessions.Get(userID)
	if session == nil {
		return nil, ErrNoSession
	}
	if !session.Step.TextStep() {
		return session, ErrUnexpectedInput
	}

	switch session.Step {
	case domain.StepCollectingName:
		session.Shipping.Name = text
	case domain.StepCollectingStreet:
		session.Shipping.Street = text
	case domain.StepCollectingCity:
		session.Shipping.City = text
	case domain.StepCollectingPostal:
		session.Shipping.PostalCode = text
	case domain.StepCollectingCountry:
		session.Shipping.Country = text
	}

	session.Step = session.Step.Next()
	s.sessions.Put(session)
	return session, nil
}

// SelectDelivery applies a delivery choice by index and folds its fee into
// the running total.
func (s *Service) SelectDelivery(ctx context.Context, userID int64, index int) (*domain.CheckoutSession, error) {
	session := s.sessions.Get(userID)
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Step != domain.StepCollectingDelivery {
		return session, ErrUnexpectedInput
	}
	if index < 0 || index >= len(s.deliveries) {
		return session, ErrInvalidSelection
	}

	chosen := s.deliveries[index]
	session.Delivery = &chosen
	session.TotalAmount = session.Snapshot.TotalAmount + chosen.Fee
	session.Step = session.Step.Next()
	s.sessions.Put(session)
	return session, nil
}

// SelectPayment is the terminal action: it locks the crypto amount at the
// current rate, creates the order with a fixed payment window, clears the
// cart and destroys the session. Cart-clear failure is reported but never
// undoes the order.
func (s *Service) SelectPayment(ctx context.Context, userID int64, index int) (*domain.Order, error) {
	session := s.sessions.Get(userID)
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Step != domain.StepCollectingPayment {
		return nil, ErrUnexpectedInput
	}
	if index < 0 || index >= len(s.methods) {
		return nil, ErrInvalidSelection
	}

	method := s.methods[index]
	rate, err := s.rates.Rate(method.Ticker)
	if err != nil {
		log.Printf("rate lookup for %s failed, using fallback: %v", method.Ticker, err)
		rate = method.FallbackRate
	}

	now := time.Now()
	order := &domain.Order{
		UserID:      userID,
		Items:       orderItems(session.Snapshot),
		TotalAmount: session.TotalAmount,
		Status:      domain.OrderStatusPendingPayment,
		Shipping:    session.Shipping,
		Payment: domain.PaymentDetails{
			Cryptocurrency:   method.Ticker,
			WalletAddress:    method.WalletAddress,
			AmountInCrypto:   session.TotalAmount * rate,
			PaymentExpiresAt: now.Add(s.window),
		},
		CreatedAt: now,
	}
	if session.Delivery != nil {
		order.Delivery = *session.Delivery
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	// The order exists from here on; a failed cart clear must not lose it.
	if errClear := s.cart.Clear(ctx, userID); errClear != nil {
		log.Printf("failed to clear cart for user %d after order %s: %v",
			userID, created.ID.Hex(), errClear)
	}

	session.Step = domain.StepCompleted
	s.sessions.Delete(userID)
	return created, nil
}

// Cancel abandons the session. The cart is untouched: nothing touches it
// until an order is actually created.
func (s *Service) Cancel(userID int64) error {
	session := s.sessions.Get(userID)
	if session == nil {
		return ErrNoSession
	}
	session.Step = domain.StepCancelled
	s.sessions.Delete(userID)
	return nil
}

func orderItems(snapshot domain.CartSnapshot) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(snapshot.Items))
	for _, it := range snapshot.Items {
		items = append(items, domain.OrderItem{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.UnitPrice,
		})
	}
	return items
}
