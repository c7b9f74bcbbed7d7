package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Animation marks a cart item for the client's enter/exit transitions.
// "removed" doubles as the pending-deletion flag: the item stays in the list
// until the client finalizes the removal.
type Animation string

const (
	AnimationNone    Animation = ""
	AnimationAdded   Animation = "added"
	AnimationRemoved Animation = "removed"
)

// CartItem carries a frozen copy of the product at the time it was added
// plus the requested quantity.
type CartItem struct {
	Product   Product   `json:"product" bson:"product"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	Animation Animation `json:"animation,omitempty" bson:"animation,omitempty"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
}

// Subtotal is price times quantity for this line.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.PriceDecimal().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is one browser session's item list. The whole document is rewritten
// on every mutation and rehydrated on read.
type Cart struct {
	ID        string     `json:"-" bson:"_id,omitempty"`
	SessionID string     `json:"session_id" bson:"session_id"`
	Items     []CartItem `json:"items" bson:"items"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// Count is the total number of units across all items.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Total sums price times quantity over all items.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Quantity reports how many units of a product the cart holds, zero when
// the product is absent.
func (c *Cart) Quantity(productID uuid.UUID) int {
	if item := c.Find(productID); item != nil {
		return item.Quantity
	}
	return 0
}

// Find returns a pointer into Items for in-place mutation, nil when the
// product is not in the cart.
func (c *Cart) Find(productID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
