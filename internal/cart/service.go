// Package cart is the per-customer cart ledger. Every quantity change
// reprices the touched entry through the tier resolver against the
// post-mutation total, so the cached unit price can never go stale
// relative to the quantity it was derived from.
package cart

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/cache"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/catalog"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/repository"
)

const snapshotCurrency = "GBP"

type Service struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog *catalog.Service
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.CartRepository, cartCache cache.CartCache, cat *catalog.Service) *Service {
	return &Service{
		repo:    repo,
		cache:   cartCache,
		catalog: cat,
	}
}

// Get reads the customer's cart, cache first. A customer with no cart
// document gets an empty cart, not an error.
func (s *Service) Get(ctx context.Context, userID int64) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(cacheGroupKey(userID), func() (interface{}, error) {
		cached, errCache := s.cache.Get(ctx, userID)
		if errCache == nil {
			return cached, nil
		}
		if !errors.Is(errCache, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", errCache)
		}

		stored, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil {
			if errors.Is(errGet, repository.ErrCartNotFound) {
				// Zero UpdatedAt marks a cart that does not exist yet, so
				// the first mutation takes the insert path.
				return &domain.Cart{UserID: userID}, nil
			}
			return nil, errGet
		}

		if errSet := s.cache.Set(ctx, userID, stored); errSet != nil {
			log.Printf("cache set error: %v", errSet)
		}

		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem adds delta units of a product, creating the entry if needed. The
// minimum-order check and the repricing both use the post-mutation total,
// read fresh from the store.
func (s *Service) AddItem(ctx context.Context, userID int64, productID string, delta float64) (*domain.CartItem, error) {
	if delta <= 0 {
		return nil, ErrQuantityTooLow
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var added *domain.CartItem
	err = s.mutate(ctx, userID, func(c *domain.Cart) error {
		total := delta
		if existing := c.ItemByProduct(productID); existing != nil {
			total = existing.Quantity + delta
		}

		if min := product.MinOrderQuantity(); total < min {
			return &InsufficientQuantityError{
				ProductName: product.Name,
				Required:    min,
				Have:        total,
			}
		}

		price, errPrice := product.PriceFor(total)
		if errPrice != nil {
			return errPrice
		}

		if existing := c.ItemByProduct(productID); existing != nil {
			existing.Quantity = total
			existing.UnitPrice = price
			added = existing
			return nil
		}

		c.Items = append(c.Items, domain.CartItem{
			ID:        uuid.NewString(),
			ProductID: productID,
			Quantity:  total,
			UnitPrice: price,
			AddedAt:   time.Now(),
		})
		added = &c.Items[len(c.Items)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// IncrementItem bumps an entry by one unit and reprices it.
func (s *Service) IncrementItem(ctx context.Context, userID int64, itemID string) error {
	return s.adjust(ctx, userID, itemID, +1)
}

// DecrementItem drops an entry by one unit. Going below one unit is
// rejected; removal is an explicit separate action.
func (s *Service) DecrementItem(ctx context.Context, userID int64, itemID string) error {
	return s.adjust(ctx, userID, itemID, -1)
}

func (s *Service) adjust(ctx context.Context, userID int64, itemID string, delta float64) error {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		item := c.Item(itemID)
		if item == nil {
			return ErrItemNotFound
		}
		return s.reprice(ctx, item, item.Quantity+delta)
	})
}

// SetItemQuantity sets an entry to an explicit quantity, subject to the
// product's minimum order quantity.
func (s *Service) SetItemQuantity(ctx context.Context, userID int64, itemID string, quantity float64) error {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		item := c.Item(itemID)
		if item == nil {
			return ErrItemNotFound
		}

		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if min := product.MinOrderQuantity(); quantity < min {
			return &InsufficientQuantityError{
				ProductName: product.Name,
				Required:    min,
				Have:        quantity,
			}
		}

		return s.reprice(ctx, item, quantity)
	})
}

func (s *Service) reprice(ctx context.Context, item *domain.CartItem, quantity float64) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}

	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}
	price, err := product.PriceFor(quantity)
	if err != nil {
		return err
	}

	item.Quantity = quantity
	item.UnitPrice = price
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID int64, itemID string) error {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		for i, item := range c.Items {
			if item.ID == itemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return nil
			}
		}
		return ErrItemNotFound
	})
}

// Snapshot returns an immutable copy of the cart with product names and the
// computed total, for display or for starting a checkout.
func (s *Service) Snapshot(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.CartSnapshot{
		Items:      make([]domain.SnapshotItem, 0, len(c.Items)),
		Currency:   snapshotCurrency,
		CapturedAt: time.Now(),
	}

	for _, item := range c.Items {
		name, unit := "", ""
		if product, errP := s.catalog.GetProduct(ctx, item.ProductID); errP == nil {
			name, unit = product.Name, product.Unit
		} else {
			log.Printf("snapshot: product %s lookup failed: %v", item.ProductID, errP)
		}

		subtotal := item.Quantity * item.UnitPrice
		snapshot.Items = append(snapshot.Items, domain.SnapshotItem{
			ProductID:   item.ProductID,
			ProductName: name,
			Unit:        unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    subtotal,
		})
		snapshot.TotalAmount += subtotal
	}

	return snapshot, nil
}

// Clear wholesale-empties the cart, used after successful order creation.
// A cart that never existed counts as already clear.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}
	s.invalidate(userID)
	return nil
}

// mutate runs a read-modify-write cycle against the freshest persisted
// state. A stale conditional write is retried once with a re-read; rapid
// double-taps from the same customer surface as at most one transient
// failure.
func (s *Service) mutate(ctx context.Context, userID int64, fn func(*domain.Cart) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		// Mutations always start from the latest persisted state, never
		// from the cache: the minimum-quantity check and the repricing
		// both key off the true current quantity.
		c, err := s.freshCart(ctx, userID)
		if err != nil {
			return err
		}

		// Work on a copy so a rejected mutation leaves nothing behind.
		working := *c
		working.Items = make([]domain.CartItem, len(c.Items))
		copy(working.Items, c.Items)

		if err := fn(&working); err != nil {
			return err
		}

		err = s.repo.SaveItems(ctx, userID, working.Items, c.UpdatedAt)
		if err == nil {
			s.invalidate(userID)
			return nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) {
			return err
		}
		lastErr = err
		s.invalidate(userID)
	}
	return lastErr
}

func (s *Service) freshCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	c, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return &domain.Cart{UserID: userID}, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) invalidate(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func cacheGroupKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
