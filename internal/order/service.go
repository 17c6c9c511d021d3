// Package order owns the durable order lifecycle: creation from a finished
// checkout, admin-driven status transitions, and the time-boxed payment
// window. Every transition is a compare-and-swap on the current status, so
// the expiry timer and an admin confirmation can never both win.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/repository"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)

// Notifier delivers best-effort messages. Failures are logged, never
// propagated: a lost notification must not break an order transition.
type Notifier interface {
	NotifyCustomer(ctx context.Context, userID int64, text string) error
	NotifyAdmins(ctx context.Context, text string) error
}

// TransitionResult reports what a lifecycle action did. Applied is false
// for the informational no-ops: the order was already in or past the
// requested state and Status carries what it actually is.
type TransitionResult struct {
	Applied bool
	Status  domain.OrderStatus
}

type Service struct {
	repo     repository.OrderRepository
	outbox   repository.OutboxRepository
	notifier Notifier
	sched    Scheduler
}

func NewService(repo repository.OrderRepository, outbox repository.OutboxRepository, notifier Notifier, sched Scheduler) *Service {
	return &Service{
		repo:     repo,
		outbox:   outbox,
		notifier: notifier,
		sched:    sched,
	}
}

// Create persists a new pending order, arms its expiry timer and announces
// it to the admins. The crypto amount and the expiry instant are already
// locked into the order by the checkout flow.
func (s *Service) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, o.ID.Hex(), EventOrderCreated, o)
	s.armExpiry(o)

	text := fmt.Sprintf(
		"New order %s\nCustomer: %d\nTotal: £%.2f\nPay %.8f %s to %s before %s",
		o.ID.Hex(), o.UserID, o.TotalAmount,
		o.Payment.AmountInCrypto, o.Payment.Cryptocurrency,
		o.Payment.WalletAddress,
		o.Payment.PaymentExpiresAt.Format("2006-01-02 15:04 MST"),
	)
	if err := s.notifier.NotifyAdmins(ctx, text); err != nil {
		log.Printf("admin notification for order %s failed: %v", o.ID.Hex(), err)
	}

	return o, nil
}

// Get loads a single order.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListByUser returns the customer's most recent orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64, limit int64) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// DashboardCounts backs the admin order dashboard.
type DashboardCounts struct {
	AwaitingProcessing int64 `json:"awaiting_processing"`
	InProgress         int64 `json:"in_progress"`
}

func (s *Service) Dashboard(ctx context.Context) (*DashboardCounts, error) {
	awaiting, err := s.repo.CountByStatus(ctx, domain.OrderStatusPaymentReceived)
	if err != nil {
		return nil, err
	}
	inProgress, err := s.repo.CountByStatus(ctx, domain.OrderStatusProcessing)
	if err != nil {
		return nil, err
	}
	return &DashboardCounts{AwaitingProcessing: awaiting, InProgress: inProgress}, nil
}

// ConfirmPayment moves a pending order to processing. Any other current
// status is informational, not an error: the caller learns what the order
// actually is, which covers the "already expired" case.
func (s *Service) ConfirmPayment(ctx context.Context, id string) (*TransitionResult, error) {
	return s.transitionFrom(ctx, id, domain.OrderStatusPendingPayment, domain.OrderStatusProcessing, nil,
		"Payment confirmed for order %s. Your order is now being processed.")
}

// MarkPaymentReceived records an observed payment without starting work.
func (s *Service) MarkPaymentReceived(ctx context.Context, id string) (*TransitionResult, error) {
	return s.transition(ctx, id, domain.OrderStatusPaymentReceived,
		nil, "Payment received for order %s.")
}

func (s *Service) MarkProcessing(ctx context.Context, id string) (*TransitionResult, error) {
	return s.transition(ctx, id, domain.OrderStatusProcessing, nil,
		"Order %s is now being processed.")
}

// Ship marks the order shipped, optionally attaching a tracking number.
func (s *Service) Ship(ctx context.Context, id, trackingNumber string) (*TransitionResult, error) {
	var extra map[string]interface{}
	if trackingNumber != "" {
		extra = map[string]interface{}{"tracking_number": trackingNumber}
	}
	return s.transition(ctx, id, domain.OrderStatusShipped, extra,
		"Order %s has been shipped.")
}

func (s *Service) MarkDelivered(ctx context.Context, id string) (*TransitionResult, error) {
	return s.transition(ctx, id, domain.OrderStatusDelivered, nil,
		"Order %s has been delivered. Thank you!")
}

// Cancel is the admin cancellation; it is refused once the order shipped.
func (s *Service) Cancel(ctx context.Context, id string) (*TransitionResult, error) {
	return s.transition(ctx, id, domain.OrderStatusCancelled, nil,
		"Order %s has been cancelled. If this was a mistake, contact support.")
}

// transition re-fetches the order, validates the move against the status
// graph and applies it with a CAS keyed on the status just read. Losing the
// CAS (someone else moved the order in between) degrades to the same
// informational no-op as an invalid move.
func (s *Service) transition(ctx context.Context, id string, next domain.OrderStatus, extra map[string]interface{}, customerText string) (*TransitionResult, error) {
	return s.transitionFrom(ctx, id, "", next, extra, customerText)
}

// transitionFrom additionally pins the required current status; payment
// confirmation demands exactly pending_payment.
func (s *Service) transitionFrom(ctx context.Context, id string, require, next domain.OrderStatus, extra map[string]interface{}, customerText string) (*TransitionResult, error) {
	current, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if require != "" && current.Status != require {
		return &TransitionResult{Applied: false, Status: current.Status}, nil
	}
	if !domain.CanTransition(current.Status, next) {
		return &TransitionResult{Applied: false, Status: current.Status}, nil
	}

	applied, err := s.repo.UpdateStatus(ctx, id, current.Status, next, toBSON(extra))
	if err != nil {
		return nil, err
	}
	if !applied {
		refreshed, errGet := s.repo.GetOrder(ctx, id)
		if errGet != nil {
			return nil, errGet
		}
		return &TransitionResult{Applied: false, Status: refreshed.Status}, nil
	}

	s.appendStatusEvent(ctx, id, current.Status, next)
	s.notifyCustomer(ctx, current.UserID, fmt.Sprintf(customerText, id))

	return &TransitionResult{Applied: true, Status: next}, nil
}

// expire is the timer callback. The CAS only matches while the order is
// still pending_payment, so an expiry racing a just-confirmed payment is a
// silent no-op.
func (s *Service) expire(orderID string) {
	ctx := context.Background()

	applied, err := s.repo.UpdateStatus(ctx, orderID,
		domain.OrderStatusPendingPayment, domain.OrderStatusCancelled, nil)
	if err != nil {
		log.Printf("expiry of order %s failed: %v", orderID, err)
		return
	}
	if !applied {
		return
	}

	s.appendStatusEvent(ctx, orderID, domain.OrderStatusPendingPayment, domain.OrderStatusCancelled)

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		log.Printf("expired order %s could not be loaded for notification: %v", orderID, err)
		return
	}
	s.notifyCustomer(ctx, o.UserID, fmt.Sprintf(
		"Order %s has been cancelled because payment was not received within the payment window.",
		orderID))
}

func (s *Service) armExpiry(o *domain.Order) {
	id := o.ID.Hex()
	s.sched.ScheduleAt(id, o.Payment.PaymentExpiresAt, func() {
		s.expire(id)
	})
}

// RescheduleExpiries re-arms timers for orders that were pending when the
// process last stopped. Windows that elapsed in the meantime fire at once.
func (s *Service) RescheduleExpiries(ctx context.Context) error {
	pending, err := s.repo.ListPendingPayment(ctx)
	if err != nil {
		return err
	}
	for i := range pending {
		s.armExpiry(&pending[i])
	}
	if len(pending) > 0 {
		log.Printf("re-armed payment expiry for %d pending orders", len(pending))
	}
	return nil
}

func (s *Service) notifyCustomer(ctx context.Context, userID int64, text string) {
	if err := s.notifier.NotifyCustomer(ctx, userID, text); err != nil {
		log.Printf("customer notification to %d failed: %v", userID, err)
	}
}

func (s *Service) appendEvent(ctx context.Context, orderID, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("marshal of %s event for order %s failed: %v", eventType, orderID, err)
		return
	}
	if err := s.outbox.AppendEvent(ctx, orderID, eventType, data); err != nil {
		log.Printf("append of %s event for order %s failed: %v", eventType, orderID, err)
	}
}

func toBSON(extra map[string]interface{}) bson.M {
	if extra == nil {
		return nil
	}
	return bson.M(extra)
}

func (s *Service) appendStatusEvent(ctx context.Context, orderID string, from, to domain.OrderStatus) {
	s.appendEvent(ctx, orderID, EventOrderStatusChanged, map[string]string{
		"order_id": orderID,
		"from":     from.String(),
		"to":       to.String(),
	})
}
