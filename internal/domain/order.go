package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a frozen snapshot of a cart line at checkout time. It keeps
// its own copy of name, price and image so later product edits do not
// rewrite order history.
type OrderItem struct {
	ProductID uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Quantity  int       `json:"quantity"`
	Image     string    `json:"image,omitempty"`
}

// Order is written once at checkout. DisplayID is patched in immediately
// after the insert because it is derived from the generated primary key;
// the row is never mutated again.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	DisplayID   string          `json:"display_id,omitempty"`
	UserID      uuid.UUID       `json:"user_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`

	// UserEmail is populated only by the admin order browser (profile join).
	UserEmail string `json:"user_email,omitempty"`
}
