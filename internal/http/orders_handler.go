package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lunoxdev/mai-store/internal/auth"
	"github.com/lunoxdev/mai-store/internal/domain"
)

// OrderHistory serves the signed-in user's past orders (the sidebar's
// history tab).
type OrderHistory interface {
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderHistory
	timeout time.Duration
}

func NewOrdersHandler(orders OrderHistory, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrdersResponse struct {
	Orders []*domain.Order `json:"orders"`
}

// GET /api/v1/orders (behind RequireUser)
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "orders_unavailable", "error fetching orders")
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, &OrdersResponse{Orders: orders})
}
