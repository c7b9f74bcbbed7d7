package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lunoxdev/mai-store/internal/domain"
	"github.com/lunoxdev/mai-store/internal/repository"
)

// CartStore is the cart service surface the handlers use.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Add(ctx context.Context, sessionID string, product domain.Product) (*domain.Cart, bool, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error)
	Remove(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error)
	RemoveFinal(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error)
	ResetAnimation(ctx context.Context, sessionID string, productID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// ProductGetter fetches the product being added so the cart snapshot is
// taken server-side.
type ProductGetter interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

type CartHandler struct {
	cart     CartStore
	products ProductGetter
	timeout  time.Duration
}

func NewCartHandler(cart CartStore, products ProductGetter, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:     cart,
		products: products,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Cart      *domain.Cart `json:"cart"`
	Count     int          `json:"count"`
	Total     string       `json:"total"`
	OpenPanel bool         `json:"open_panel,omitempty"`
}

func cartResponse(cart *domain.Cart, openPanel bool) *CartResponse {
	return &CartResponse{
		Cart:      cart,
		Count:     cart.Count(),
		Total:     cart.Total().String(),
		OpenPanel: openPanel,
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.cart.Get(ctx, getCartSession(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "error loading cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart, false))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a UUID")
		return
	}

	product, err := h.products.GetProductByID(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "no such product")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "catalog_unavailable", "error loading product")
		return
	}

	cart, opened, err := h.cart.Add(ctx, getCartSession(r.Context()), *product)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "error updating cart")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(cart, opened))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.cart.UpdateQuantity(ctx, getCartSession(r.Context()), productID, req.Quantity)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart, false))
}

// DELETE /api/v1/cart/items/{product_id} marks the item for removal so the
// client can play its exit animation first.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.Remove(ctx, getCartSession(r.Context()), productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart, false))
}

// POST /api/v1/cart/items/{product_id}/finalize-remove
func (h *CartHandler) FinalizeRemove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.RemoveFinal(ctx, getCartSession(r.Context()), productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart, false))
}

// POST /api/v1/cart/items/{product_id}/reset-animation
func (h *CartHandler) ResetAnimation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.ResetAnimation(ctx, getCartSession(r.Context()), productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "error updating cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart, false))
}

// POST /api/v1/cart/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Clear(ctx, getCartSession(r.Context())); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "error clearing cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func productIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "product_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
