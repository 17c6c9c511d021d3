package cart

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/cache"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/repository"
)

// mockCartRepo keeps one cart per user and enforces the same conditional
// write contract as the Mongo implementation.
type mockCartRepo struct {
	m     sync.Mutex
	carts map[int64]*domain.Cart

	saveCalls  int
	staleOnces int // next N saves fail with ErrStaleWrite
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[int64]*domain.Cart)}
}

func (r *mockCartRepo) GetCart(_ context.Context, userID int64) (*domain.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (r *mockCartRepo) SaveItems(_ context.Context, userID int64, items []domain.CartItem, expectedUpdatedAt time.Time) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.saveCalls++

	if r.staleOnces > 0 {
		r.staleOnces--
		return repository.ErrStaleWrite
	}

	now := time.Now()
	existing, ok := r.carts[userID]
	if expectedUpdatedAt.IsZero() {
		if ok {
			return repository.ErrStaleWrite
		}
		r.carts[userID] = &domain.Cart{
			UserID:    userID,
			Items:     append([]domain.CartItem(nil), items...),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}

	if !ok || !existing.UpdatedAt.Equal(expectedUpdatedAt) {
		return repository.ErrStaleWrite
	}
	existing.Items = append([]domain.CartItem(nil), items...)
	existing.UpdatedAt = now
	return nil
}

func (r *mockCartRepo) DeleteCart(_ context.Context, userID int64) error {
	r.m.Lock()
	defer r.m.Unlock()
	if _, ok := r.carts[userID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(r.carts, userID)
	return nil
}

type mockCache struct {
	m     sync.Mutex
	carts map[int64]*domain.Cart
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[int64]*domain.Cart)}
}

func (c *mockCache) Get(_ context.Context, userID int64) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	cached, ok := c.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cached, nil
}

func (c *mockCache) Set(_ context.Context, userID int64, cart *domain.Cart) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.carts[userID] = cart
	return nil
}

func (c *mockCache) Delete(_ context.Context, userID int64) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.carts, userID)
	return nil
}

type mockProductRepo struct {
	m        sync.Mutex
	products map[string]*domain.Product
	getCalls int
}

func newMockProductRepo(products ...*domain.Product) *mockProductRepo {
	r := &mockProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		r.products[p.ID.Hex()] = p
	}
	return r
}

func (r *mockProductRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.getCalls++
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (r *mockProductRepo) ListByCategory(context.Context, string) ([]domain.Product, error) {
	return nil, nil
}

func (r *mockProductRepo) SearchByName(context.Context, string) ([]domain.Product, error) {
	return nil, nil
}

func (r *mockProductRepo) CategoriesWithCount(context.Context) ([]repository.CategoryCount, error) {
	return nil, nil
}

func (r *mockProductRepo) CreateProduct(context.Context, *domain.Product) error { return nil }

func (r *mockProductRepo) UpdateProduct(context.Context, string, bson.M) error { return nil }

func (r *mockProductRepo) DeleteProduct(context.Context, string) error { return nil }
