package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoPriceTiers means a product has no tier data to price against.
// It is a configuration problem, not a customer error.
var ErrNoPriceTiers = errors.New("product has no price tiers")

// PriceTier is a quantity-break price point: buying at least MinQuantity
// units prices every unit at Price.
type PriceTier struct {
	MinQuantity float64 `bson:"min_quantity" json:"min_quantity"`
	Price       float64 `bson:"price" json:"price"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Unit        string             `bson:"unit" json:"unit"`
	Category    string             `bson:"category" json:"category"`
	SubCategory string             `bson:"sub_category,omitempty" json:"sub_category,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	PriceTiers  []PriceTier        `bson:"price_tiers" json:"price_tiers"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ResolvePrice returns the unit price for the given quantity: among tiers
// with MinQuantity <= quantity, the one with the largest MinQuantity wins.
// Quantities below every tier fall back to the smallest-MinQuantity tier so
// that a price is always resolvable for a configured product.
func ResolvePrice(quantity float64, tiers []PriceTier) (float64, error) {
	if len(tiers) == 0 {
		return 0, ErrNoPriceTiers
	}

	var best *PriceTier
	lowest := &tiers[0]
	for i := range tiers {
		t := &tiers[i]
		if t.MinQuantity < lowest.MinQuantity {
			lowest = t
		}
		if t.MinQuantity > quantity {
			continue
		}
		if best == nil || t.MinQuantity > best.MinQuantity {
			best = t
		}
	}

	if best == nil {
		return lowest.Price, nil
	}
	return best.Price, nil
}

// PriceFor resolves the unit price against the product's own tiers.
func (p *Product) PriceFor(quantity float64) (float64, error) {
	return ResolvePrice(quantity, p.PriceTiers)
}

// MinOrderQuantity is the smallest tier threshold. A cart may not hold less
// than this total quantity of the product. Zero means no minimum configured.
func (p *Product) MinOrderQuantity() float64 {
	if len(p.PriceTiers) == 0 {
		return 0
	}
	min := p.PriceTiers[0].MinQuantity
	for _, t := range p.PriceTiers[1:] {
		if t.MinQuantity < min {
			min = t.MinQuantity
		}
	}
	return min
}
