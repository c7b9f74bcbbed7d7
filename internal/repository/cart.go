package repository

import (
	"context"
	"errors"

	"github.com/lunoxdev/mai-store/internal/domain"
)

// CartRepository defines the interface for cart persistence.
// The cart is written as a whole document on every mutation and read back
// as a whole document.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}

var ErrCartNotFound = errors.New("cart not found")
