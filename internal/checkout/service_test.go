package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
)

const testUser int64 = 7

type mockLedger struct {
	m          sync.Mutex
	snapshot   *domain.CartSnapshot
	clearCalls int
	clearErr   error
}

func (l *mockLedger) Snapshot(context.Context, int64) (*domain.CartSnapshot, error) {
	l.m.Lock()
	defer l.m.Unlock()
	cp := *l.snapshot
	return &cp, nil
}

func (l *mockLedger) Clear(context.Context, int64) error {
	l.m.Lock()
	defer l.m.Unlock()
	l.clearCalls++
	return l.clearErr
}

type mockOrderCreator struct {
	m       sync.Mutex
	created *domain.Order
	err     error
}

func (c *mockOrderCreator) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	o.ID = primitive.NewObjectID()
	c.created = o
	return o, nil
}

type mockRates struct {
	rate float64
	err  error
}

func (r *mockRates) Rate(string) (float64, error) {
	return r.rate, r.err
}

func filledSnapshot(total float64) *domain.CartSnapshot {
	return &domain.CartSnapshot{
		Items: []domain.SnapshotItem{
			{ProductID: "p1", ProductName: "Widget", Quantity: 10, UnitPrice: total / 10, Subtotal: total},
		},
		TotalAmount: total,
		Currency:    "GBP",
		CapturedAt:  time.Now(),
	}
}

func newTestCheckout(t *testing.T, ledger *mockLedger, orders *mockOrderCreator, rates *mockRates) *Service {
	t.Helper()
	sessions := NewSessionStore()
	t.Cleanup(sessions.Close)
	return NewService(sessions, ledger, orders, rates, 3*time.Hour)
}

// walkToPayment drives a session through every shipping step and the
// delivery selection.
func walkToPayment(t *testing.T, svc *Service, deliveryIndex int) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Begin(ctx, testUser)
	require.NoError(t, err)

	for _, text := range []string{"Ada Lovelace", "12 Byron St", "London", "E1 6AN", "UK"} {
		_, err = svc.SubmitText(ctx, testUser, text)
		require.NoError(t, err)
	}

	_, err = svc.SelectDelivery(ctx, testUser, deliveryIndex)
	require.NoError(t, err)
}

func TestBegin_EmptyCartRejected(t *testing.T) {
	ledger := &mockLedger{snapshot: &domain.CartSnapshot{Currency: "GBP"}}
	svc := newTestCheckout(t, ledger, &mockOrderCreator{}, &mockRates{rate: 1})

	_, err := svc.Begin(context.Background(), testUser)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, svc.Session(testUser))
}

func TestSubmitText_CollectsShippingFieldByField(t *testing.T) {
	ledger := &mockLedger{snapshot: filledSnapshot(50)}
	svc := newTestCheckout(t, ledger, &mockOrderCreator{}, &mockRates{rate: 1})
	ctx := context.Background()

	session, err := svc.Begin(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, domain.StepCollectingName, session.Step)

	session, err = svc.SubmitText(ctx, testUser, "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, domain.StepCollectingStreet, session.Step)
	assert.Equal(t, "Ada Lovelace", session.Shipping.Name)

	session, err = svc.SubmitText(ctx, testUser, "12 Byron St")
	require.NoError(t, err)
	session, err = svc.SubmitText(ctx, testUser, "London")
	require.NoError(t, err)
	session, err = svc.SubmitText(ctx, testUser, "E1 6AN")
	require.NoError(t, err)
	session, err = svc.SubmitText(ctx, testUser, "UK")
	require.NoError(t, err)

	assert.Equal(t, domain.StepCollectingDelivery, session.Step)
	assert.Equal(t, domain.ShippingDetails{
		Name: "Ada Lovelace", Street: "12 Byron St", City: "London",
		PostalCode: "E1 6AN", Country: "UK",
	}, session.Shipping)
}

func TestSubmitText_WithoutSession(t *testing.T) {
	ledger := &mockLedger{snapshot: filledSnapshot(50)}
	svc := newTestCheckout(t, ledger, &mockOrderCreator{}, &mockRates{rate: 1})

	_, err := svc.SubmitText(context.Background(), testUser, "stray message")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSelectDelivery_InvalidIndexDoesNotAdvance(t *testing.T) {
	ledger := &mockLedger{snapshot: filledSnapshot(50)}
	svc := newTestCheckout(t, ledger, &mockOrderCreator{}, &mockRates{rate: 1})
	ctx := context.Background()

	_, err := svc.Begin(ctx, testUser)
	require.NoError(t, err)
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		_, err = svc.SubmitText(ctx, testUser, text)
		require.NoError(t, err)
	}

	session, err := svc.SelectDelivery(ctx, testUser, 99)
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, domain.StepCollectingDelivery, session.Step)

	session, err = svc.SelectDelivery(ctx, testUser, -1)
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Equal(t, domain.StepCollectingDelivery, session.Step)
}

func TestSubmitText_RejectedAtSelectionStep(t *testing.T) {
	ledger := &mockLedger{snapshot: filledSnapshot(50)}
	svc := newTestCheckout(t, ledger, &mockOrderCreator{}, &mockRates{rate: 1})
	walkToPayment(t, svc, 0)

	session, err := svc.SubmitText(context.Background(), testUser, "free text at payment step")
	assert.ErrorIs(t, err, ErrUnexpectedInput)
	assert.Equal(t, domain.StepCollectingPayment, session.Step)
}

func TestSelectPayment_CreatesOrderWithLockedAmounts(t *testing.T) {
	// £100 cart plus the £5 standard delivery fee at a BTC rate of
	// 0.00002 locks 0.0021 BTC.
	ledger := &mockLedger{snapshot: filledSnapshot(100)}
	orders := &mockOrderCreator{}
	svc := newTestCheckout(t, ledger, orders, &mockRates{rate: 0.00002})
	walkToPayment(t, svc, 0) // Standard, £5

	before := time.Now()
	created, err := svc.SelectPayment(context.Background(), testUser, 0) // BTC
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPendingPayment, created.Status)
	assert.Equal(t, 105.0, created.TotalAmount)
	assert.InDelta(t, 0.0021, created.Payment.AmountInCrypto, 1e-12)
	assert.Equal(t, "BTC", created.Payment.Cryptocurrency)
	assert.NotEmpty(t, created.Payment.WalletAddress)
	assert.WithinDuration(t, before.Add(3*time.Hour), created.Payment.PaymentExpiresAt, 5*time.Second)

	require.Len(t, created.Items, 1)
	assert.Equal(t, 10.0, created.Items[0].PriceAtPurchase)
	assert.Equal(t, "Standard (2-4 days)", created.Delivery.Type)

	assert.Equal(t, 1, ledger.clearCalls, "cart cleared after order creation")
	assert.Nil(t, svc.Session(testUser), "session destroyed after order creation")
}

func TestSelectPayment_OracleFailureFallsBackToStaticRate(t *testing.T) {
	ledger := &mockLedger{snapshot: filledSnapshot(100)}
	orders := &mockOrderCreator{}
	svc := newTestCheckout(t, ledger, orders, &mockRates{err: errors.New("oracle down")})
	walkToPayment(t, svc, 2) // Collection, £0

	created, err := svc.SelectPayment(context.Background(), testUser, 0)
	require.NoError(t, err)

	fallback := domain.DefaultPaymentMethods()[0].FallbackRate
	assert.InDelta(t, 100*fallback, created.Payment.AmountInCrypto, 1e-12)
}

func TestSelectPayment_CartClearFailureKeepsOrder(t *testing.T) {
	ledger := &mockLedger{
		snapshot: filledSnapshot(100),
		clearErr: errors.New("store unavailable"),
	}
	orders := &mockOrderCreator{}
	svc := newTestCheckout(t, ledger, orders, &mockRates{rate: 0.00002})
	walkToPayment(t, svc, 0)

	created, err := svc.SelectPayment(context.Background(), testUser, 0)
	require.NoError(t, err, "a failed cart clear must never lose the order")
	assert.NotNil(t, created)
	assert.NotNil(t, orders.created)
}

func TestSelectPayment_InvalidIndex(t *testing.T) {
	ledger := &mockLedger{snapshot: filledSnapshot(100)}
	orders := &mockOrderCreator{}
	svc := newTestCheckout(t, ledger, orders, &mockRates{rate: 1})
	walkToPayment(t, svc, 0)

	_, err := svc.SelectPayment(context.Background(), testUser, 50)
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.NotNil(t, svc.Session(testUser), "session survives a bad selection")
	assert.Nil(t, orders.created)
}

func TestCancel_PreservesCart(t *testing.T) {
	ledger := &mockLedger{snapshot: filledSnapshot(50)}
	svc := newTestCheckout(t, ledger, &mockOrderCreator{}, &mockRates{rate: 1})
	ctx := context.Background()

	_, err := svc.Begin(ctx, testUser)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(testUser))
	assert.Nil(t, svc.Session(testUser))
	assert.Zero(t, ledger.clearCalls, "cancelling checkout never touches the cart")

	assert.ErrorIs(t, svc.Cancel(testUser), ErrNoSession)
}

func TestDeliveryFeeFoldsIntoTotal(t *testing.T) {
	ledger := &mockLedger{snapshot: filledSnapshot(50)}
	svc := newTestCheckout(t, ledger, &mockOrderCreator{}, &mockRates{rate: 1})
	ctx := context.Background()

	_, err := svc.Begin(ctx, testUser)
	require.NoError(t, err)
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		_, err = svc.SubmitText(ctx, testUser, text)
		require.NoError(t, err)
	}

	session, err := svc.SelectDelivery(ctx, testUser, 1) // Express, £9
	require.NoError(t, err)
	assert.Equal(t, 59.0, session.TotalAmount)
	require.NotNil(t, session.Delivery)
	assert.Equal(t, 9.0, session.Delivery.Fee)
}
