package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrInvalidReference means the given id is not even a well-formed
	// document id, as opposed to a well-formed id with no document.
	ErrInvalidReference = errors.New("malformed reference id")

	// ErrStaleWrite means a conditional write matched nothing because the
	// document changed since it was read.
	ErrStaleWrite = errors.New("concurrent modification detected")
)

// CartRepository persists one working cart per customer. Writes are
// conditional on the UpdatedAt observed at read time so that rapid
// concurrent actions from the same customer never overwrite each other.
type CartRepository interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	// SaveItems replaces the item set. A zero expectedUpdatedAt inserts a
	// new cart document; otherwise the write only applies if the stored
	// UpdatedAt still equals expectedUpdatedAt, and returns ErrStaleWrite
	// when it does not.
	SaveItems(ctx context.Context, userID int64, items []domain.CartItem, expectedUpdatedAt time.Time) error
	DeleteCart(ctx context.Context, userID int64) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// ListByCategory with an empty category returns the whole catalog.
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	// SearchByName matches product names case-insensitively on a literal
	// substring.
	SearchByName(ctx context.Context, query string) ([]domain.Product, error)
	CategoriesWithCount(ctx context.Context) ([]CategoryCount, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, id string, fields bson.M) error
	DeleteProduct(ctx context.Context, id string) error
}

type CategoryCount struct {
	Name  string `bson:"_id"`
	Count int64  `bson:"count"`
}

// OrderRepository persists durable orders. Status changes go through
// UpdateStatus, a compare-and-swap on the current status: the expiry timer
// and an admin confirmation can race on the same order and exactly one of
// them may win.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64, limit int64) ([]domain.Order, error)
	// UpdateStatus applies expected -> next plus any extra fields, refreshing
	// updated_at. It reports false (and no error) when the order exists but
	// its status is no longer expected.
	UpdateStatus(ctx context.Context, id string, expected, next domain.OrderStatus, extra bson.M) (bool, error)
	CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error)
	ListPendingPayment(ctx context.Context) ([]domain.Order, error)
}
