// Package checkout turns a session cart into an order row and a pre-filled
// WhatsApp message link.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunoxdev/mai-store/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty")

// OrderWriter is the slice of the order repository checkout needs.
type OrderWriter interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	SetDisplayID(ctx context.Context, id uuid.UUID, displayID string) error
}

// CartStore is the slice of the cart service checkout needs.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type Config struct {
	StoreName      string // greeting in the handoff message
	StoreTag       string // display-id prefix, e.g. "M&M"
	WhatsAppNumber string // international format without '+'
	CurrencySymbol string
}

type Service struct {
	orders OrderWriter
	cart   CartStore
	cfg    Config
}

func NewService(orders OrderWriter, cart CartStore, cfg Config) *Service {
	return &Service{
		orders: orders,
		cart:   cart,
		cfg:    cfg,
	}
}

// Confirmation is what the client needs after a successful checkout: the
// persisted identifiers and the deep link to open.
type Confirmation struct {
	OrderID     uuid.UUID       `json:"order_id"`
	DisplayID   string          `json:"display_id"`
	Total       decimal.Decimal `json:"total_amount"`
	WhatsAppURL string          `json:"whatsapp_url"`
}

// Confirm runs the checkout flow: snapshot the cart into an order row, read
// back the generated ID, patch the display ID onto the row, build the
// share link and clear the cart. A failure before the patch leaves the cart
// untouched so the user can retry.
func (s *Service) Confirm(ctx context.Context, sessionID string, userID uuid.UUID) (*Confirmation, error) {
	cart, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			Image:     item.Product.FirstImageURL(),
		})
	}

	order := &domain.Order{
		UserID:      userID,
		Items:       items,
		TotalAmount: cart.Total(),
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	displayID := s.cfg.StoreTag + "-" + order.ID.String()[:8]
	if err := s.orders.SetDisplayID(ctx, order.ID, displayID); err != nil {
		return nil, fmt.Errorf("attach display id: %w", err)
	}
	order.DisplayID = displayID

	confirmation := &Confirmation{
		OrderID:     order.ID,
		DisplayID:   displayID,
		Total:       order.TotalAmount,
		WhatsAppURL: s.shareLink(cart),
	}

	// The order is already safe at this point; a failed cart wipe only means
	// the user sees stale items on the next load.
	if err := s.cart.Clear(ctx, sessionID); err != nil {
		log.Printf("clear cart after checkout error: %v \n", err)
	}

	return confirmation, nil
}
