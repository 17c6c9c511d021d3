package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    int64      `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartItem holds a denormalized UnitPrice. It is a cache of
// ResolvePrice(Quantity, product tiers) and must be recomputed whenever
// Quantity changes; it is never authoritative on its own.
type CartItem struct {
	ID        string    `bson:"item_id" json:"item_id"`
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  float64   `bson:"quantity" json:"quantity"`
	UnitPrice float64   `bson:"unit_price" json:"unit_price"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Item returns a pointer into Items for the given entry id, or nil.
func (c *Cart) Item(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemByProduct returns the entry holding the given product, or nil.
func (c *Cart) ItemByProduct(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

type SnapshotItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// CartSnapshot is the frozen cart state handed to checkout and display.
type CartSnapshot struct {
	Items       []SnapshotItem `json:"items"`
	TotalAmount float64        `json:"total_amount"`
	Currency    string         `json:"currency"`
	CapturedAt  time.Time      `json:"captured_at"`
}
