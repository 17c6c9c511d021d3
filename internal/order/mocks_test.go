package order

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/repository"
)

// mockOrderRepo keeps orders in a map and enforces the same
// compare-and-swap contract as the Mongo implementation: UpdateStatus only
// applies while the stored status still equals expected.
type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	cp := *o
	m.orders[o.ID.Hex()] = &cp
	return nil
}

func (m *mockOrderRepo) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidReference
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID int64, limit int64) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, expected, next domain.OrderStatus, extra bson.M) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, repository.ErrOrderNotFound
	}
	if o.Status != expected {
		return false, nil
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	if v, ok := extra["tracking_number"]; ok {
		o.TrackingNumber, _ = v.(string)
	}
	return true, nil
}

func (m *mockOrderRepo) CountByStatus(_ context.Context, status domain.OrderStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockOrderRepo) ListPendingPayment(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusPendingPayment {
			out = append(out, *o)
		}
	}
	return out, nil
}

type mockOutbox struct {
	mu     sync.Mutex
	events []repository.OutboxEvent
}

func (m *mockOutbox) AppendEvent(_ context.Context, orderID, eventType string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, repository.OutboxEvent{
		OrderID:   orderID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *mockOutbox) UnprocessedEvents(context.Context, int64) ([]repository.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.OutboxEvent(nil), m.events...), nil
}

func (m *mockOutbox) MarkEventProcessed(context.Context, string) error { return nil }

func (m *mockOutbox) byType(eventType string) []repository.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.OutboxEvent
	for _, e := range m.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type mockNotifier struct {
	mu       sync.Mutex
	customer []string
	admin    []string
}

func (m *mockNotifier) NotifyCustomer(_ context.Context, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customer = append(m.customer, text)
	return nil
}

func (m *mockNotifier) NotifyAdmins(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admin = append(m.admin, text)
	return nil
}

// manualScheduler records armed expiries instead of running real timers, so
// tests fire them deterministically.
type manualScheduler struct {
	mu    sync.Mutex
	armed map[string]func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{armed: make(map[string]func())}
}

func (s *manualScheduler) ScheduleAt(orderID string, _ time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed[orderID] = fn
}

func (s *manualScheduler) Stop() {}

func (s *manualScheduler) fire(orderID string) {
	s.mu.Lock()
	fn := s.armed[orderID]
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
