package cache

import (
	"context"
	"errors"

	"github.com/lunoxdev/mai-store/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")
