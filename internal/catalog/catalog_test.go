package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/repository"
)

type mockProductRepo struct {
	created     *domain.Product
	updated     bson.M
	searchQuery string
}

func (m *mockProductRepo) GetProduct(context.Context, string) (*domain.Product, error) {
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepo) ListByCategory(context.Context, string) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) SearchByName(_ context.Context, query string) ([]domain.Product, error) {
	m.searchQuery = query
	return []domain.Product{{Name: "Widget"}}, nil
}

func (m *mockProductRepo) CategoriesWithCount(context.Context) ([]repository.CategoryCount, error) {
	return nil, nil
}

func (m *mockProductRepo) CreateProduct(_ context.Context, p *domain.Product) error {
	m.created = p
	return nil
}

func (m *mockProductRepo) UpdateProduct(_ context.Context, _ string, fields bson.M) error {
	m.updated = fields
	return nil
}

func (m *mockProductRepo) DeleteProduct(context.Context, string) error { return nil }

func TestCreateProduct_RequiresTiers(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewService(repo)

	err := svc.CreateProduct(context.Background(), &domain.Product{Name: "Widget"})
	assert.ErrorIs(t, err, ErrNoTiers)
	assert.Nil(t, repo.created)
}

func TestCreateProduct_RejectsDuplicateTierThresholds(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewService(repo)

	err := svc.CreateProduct(context.Background(), &domain.Product{
		Name: "Widget",
		PriceTiers: []domain.PriceTier{
			{MinQuantity: 1, Price: 10},
			{MinQuantity: 1, Price: 9},
		},
	})
	assert.ErrorIs(t, err, ErrDuplicateTier)
}

func TestCreateProduct_ValidTiersPassThrough(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewService(repo)

	p := &domain.Product{
		Name: "Widget",
		PriceTiers: []domain.PriceTier{
			{MinQuantity: 1, Price: 10},
			{MinQuantity: 5, Price: 8},
		},
	}
	require.NoError(t, svc.CreateProduct(context.Background(), p))
	assert.Equal(t, p, repo.created)
}

func TestUpdateProduct_ValidatesTierPayload(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	err := svc.UpdateProduct(ctx, "id", ProductUpdate{PriceTiers: []domain.PriceTier{}})
	assert.ErrorIs(t, err, ErrNoTiers)

	err = svc.UpdateProduct(ctx, "id", ProductUpdate{PriceTiers: []domain.PriceTier{
		{MinQuantity: 1, Price: 10},
		{MinQuantity: 1, Price: 9},
	}})
	assert.ErrorIs(t, err, ErrDuplicateTier)
	assert.Nil(t, repo.updated)
}

func TestUpdateProduct_OnlyProvidedFieldsAreSet(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewService(repo)

	name := "Widget v2"
	tiers := []domain.PriceTier{
		{MinQuantity: 1, Price: 10},
		{MinQuantity: 5, Price: 8},
	}
	err := svc.UpdateProduct(context.Background(), "id", ProductUpdate{
		Name:       &name,
		PriceTiers: tiers,
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": "Widget v2", "price_tiers": tiers}, repo.updated)
}

func TestUpdateProduct_EmptyUpdateRejected(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewService(repo)

	err := svc.UpdateProduct(context.Background(), "id", ProductUpdate{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
	assert.Nil(t, repo.updated)
}

func TestSearchByName_PassesQueryThrough(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewService(repo)

	products, err := svc.SearchByName(context.Background(), "wid")
	require.NoError(t, err)
	assert.Equal(t, "wid", repo.searchQuery)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)
}
