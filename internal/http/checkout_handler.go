package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lunoxdev/mai-store/internal/auth"
	"github.com/lunoxdev/mai-store/internal/checkout"
)

// Confirmer runs the checkout flow for a session cart.
type Confirmer interface {
	Confirm(ctx context.Context, sessionID string, userID uuid.UUID) (*checkout.Confirmation, error)
}

type CheckoutHandler struct {
	checkout Confirmer
	timeout  time.Duration
}

func NewCheckoutHandler(c Confirmer, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: c,
		timeout:  timeout,
	}
}

// POST /api/v1/checkout (behind RequireUser)
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	confirmation, err := h.checkout.Confirm(ctx, getCartSession(r.Context()), userID)
	if errors.Is(err, checkout.ErrEmptyCart) {
		respondError(w, http.StatusBadRequest, "empty_cart", "cannot check out an empty cart")
		return
	}
	if err != nil {
		log.Printf("error saving order: %v", err)
		respondError(w, http.StatusInternalServerError, "checkout_failed", "error saving order")
		return
	}

	respondJSON(w, http.StatusCreated, confirmation)
}
