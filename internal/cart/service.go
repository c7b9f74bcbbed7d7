// Package cart holds the session cart store: stock-clamped adds, two-phase
// removal for exit animations, and whole-document persistence after every
// mutation.
package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lunoxdev/mai-store/internal/cache"
	"github.com/lunoxdev/mai-store/internal/domain"
	"github.com/lunoxdev/mai-store/internal/repository"
)

type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo repository.CartRepository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// Get rehydrates the session's cart, cache first. A missing cart is not an
// error, the caller gets an empty one.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) {
			return emptyCart(sessionID), nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), sessionID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// Add puts one unit of the product into the cart. An existing line grows by
// one unless that would exceed the product's stock; a new line is created
// unless the product is out of stock. Either refusal is a silent no-op.
// The returned bool tells the client to open the cart panel, which happens
// exactly when the cart changed.
func (s *Service) Add(ctx context.Context, sessionID string, product domain.Product) (*domain.Cart, bool, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	if item := cart.Find(product.ID); item != nil {
		if item.Quantity >= product.Units {
			return cart, false, nil // stock ceiling reached
		}
		item.Quantity++
		item.Animation = domain.AnimationNone
	} else {
		if product.Units <= 0 {
			return cart, false, nil // out of stock
		}
		cart.Items = append(cart.Items, domain.CartItem{
			Product:   product,
			Quantity:  1,
			Animation: domain.AnimationAdded,
			AddedAt:   time.Now(),
		})
	}

	if err := s.persist(ctx, cart); err != nil {
		return nil, false, err
	}
	return cart, true, nil
}

// UpdateQuantity stores max(1, quantity) for the line. The stock ceiling is
// deliberately not enforced here; the client disables its increment control
// at the ceiling instead. A missing line is a no-op.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	item := cart.Find(productID)
	if item == nil {
		return cart, nil
	}

	if quantity < 1 {
		quantity = 1
	}
	item.Quantity = quantity
	item.Animation = domain.AnimationNone

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Remove marks the line for removal so the client can run its exit
// animation. RemoveFinal deletes it for good.
func (s *Service) Remove(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error) {
	return s.setAnimation(ctx, sessionID, productID, domain.AnimationRemoved)
}

// ResetAnimation clears the transient marker once the client's enter
// animation has played.
func (s *Service) ResetAnimation(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error) {
	return s.setAnimation(ctx, sessionID, productID, domain.AnimationNone)
}

// RemoveFinal drops the line from the cart.
func (s *Service) RemoveFinal(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for i, item := range cart.Items {
		if item.Product.ID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			break
		}
	}

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart and deletes the persisted document. Called after a
// successful checkout.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	errDelete := s.repo.DeleteCart(ctx, sessionID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v \n", errDelete)
		return errDelete
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *Service) setAnimation(ctx context.Context, sessionID string, productID uuid.UUID, a domain.Animation) (*domain.Cart, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	item := cart.Find(productID)
	if item == nil {
		return cart, nil
	}
	item.Animation = a

	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// load reads straight from the repository so mutations never work on a
// stale cache entry.
func (s *Service) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return emptyCart(sessionID), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) persist(ctx context.Context, cart *domain.Cart) error {
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo upsert cart error: %v \n", err)
		return err
	}
	s.invalidateCache(cart.SessionID)
	return nil
}

func (s *Service) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, sessionID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}

func emptyCart(sessionID string) *domain.Cart {
	now := time.Now()
	return &domain.Cart{
		SessionID: sessionID,
		Items:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
