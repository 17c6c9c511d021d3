// Package catalog exposes product lookup and the admin-side inventory
// operations. The cart ledger depends on it for tier data when repricing.
package catalog

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/repository"
)

var (
	ErrNoTiers       = errors.New("product needs at least one price tier")
	ErrDuplicateTier = errors.New("price tiers must have unique minimum quantities")
	ErrEmptyUpdate   = errors.New("update contains no fields")
)

type Service struct {
	repo repository.ProductRepository
}

func NewService(repo repository.ProductRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListByCategory with an empty category returns the whole catalog.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.ListByCategory(ctx, category)
}

// SearchByName finds products whose name contains the query,
// case-insensitively.
func (s *Service) SearchByName(ctx context.Context, query string) ([]domain.Product, error) {
	return s.repo.SearchByName(ctx, query)
}

func (s *Service) CategoriesWithCount(ctx context.Context) ([]repository.CategoryCount, error) {
	return s.repo.CategoriesWithCount(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := validateTiers(p.PriceTiers); err != nil {
		return err
	}
	return s.repo.CreateProduct(ctx, p)
}

// ProductUpdate is a partial product edit. Nil fields are left untouched; a
// non-nil PriceTiers replaces the whole tier list and is validated like a
// create.
type ProductUpdate struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Unit        *string            `json:"unit,omitempty"`
	Category    *string            `json:"category,omitempty"`
	SubCategory *string            `json:"sub_category,omitempty"`
	ImageURL    *string            `json:"image_url,omitempty"`
	PriceTiers  []domain.PriceTier `json:"price_tiers,omitempty"`
}

func (s *Service) UpdateProduct(ctx context.Context, id string, upd ProductUpdate) error {
	fields := bson.M{}
	setString := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	setString("name", upd.Name)
	setString("description", upd.Description)
	setString("unit", upd.Unit)
	setString("category", upd.Category)
	setString("sub_category", upd.SubCategory)
	setString("image_url", upd.ImageURL)

	if upd.PriceTiers != nil {
		if err := validateTiers(upd.PriceTiers); err != nil {
			return err
		}
		fields["price_tiers"] = upd.PriceTiers
	}

	if len(fields) == 0 {
		return ErrEmptyUpdate
	}
	return s.repo.UpdateProduct(ctx, id, fields)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}

func validateTiers(tiers []domain.PriceTier) error {
	if len(tiers) == 0 {
		return ErrNoTiers
	}
	seen := make(map[float64]bool, len(tiers))
	for _, t := range tiers {
		if seen[t.MinQuantity] {
			return ErrDuplicateTier
		}
		seen[t.MinQuantity] = true
	}
	return nil
}
