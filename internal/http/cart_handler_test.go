package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunoxdev/mai-store/internal/domain"
	"github.com/lunoxdev/mai-store/internal/repository"
)

type mockCartStore struct {
	cart       *domain.Cart
	opened     bool
	err        error
	lastAction string
	sessionID  string
}

func (m *mockCartStore) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.lastAction, m.sessionID = "get", sessionID
	return m.cart, m.err
}

func (m *mockCartStore) Add(_ context.Context, sessionID string, _ domain.Product) (*domain.Cart, bool, error) {
	m.lastAction, m.sessionID = "add", sessionID
	return m.cart, m.opened, m.err
}

func (m *mockCartStore) UpdateQuantity(_ context.Context, sessionID string, _ uuid.UUID, _ int) (*domain.Cart, error) {
	m.lastAction, m.sessionID = "update", sessionID
	return m.cart, m.err
}

func (m *mockCartStore) Remove(_ context.Context, sessionID string, _ uuid.UUID) (*domain.Cart, error) {
	m.lastAction, m.sessionID = "remove", sessionID
	return m.cart, m.err
}

func (m *mockCartStore) RemoveFinal(_ context.Context, sessionID string, _ uuid.UUID) (*domain.Cart, error) {
	m.lastAction, m.sessionID = "remove-final", sessionID
	return m.cart, m.err
}

func (m *mockCartStore) ResetAnimation(_ context.Context, sessionID string, _ uuid.UUID) (*domain.Cart, error) {
	m.lastAction, m.sessionID = "reset", sessionID
	return m.cart, m.err
}

func (m *mockCartStore) Clear(_ context.Context, sessionID string) error {
	m.lastAction, m.sessionID = "clear", sessionID
	return m.err
}

type mockProductGetter struct {
	product *domain.Product
}

func (m *mockProductGetter) GetProductByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	if m.product == nil || m.product.ID != id {
		return nil, repository.ErrProductNotFound
	}
	return m.product, nil
}

func cartRouter(store *mockCartStore, products *mockProductGetter) chi.Router {
	h := NewCartHandler(store, products, 2*time.Second)
	r := chi.NewRouter()
	r.Use(CartSessionMiddleware)
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{product_id}", h.UpdateQuantity)
		r.Delete("/items/{product_id}", h.RemoveItem)
		r.Post("/items/{product_id}/finalize-remove", h.FinalizeRemove)
		r.Post("/items/{product_id}/reset-animation", h.ResetAnimation)
		r.Post("/clear", h.ClearCart)
	})
	return r
}

func cartOf(items ...domain.CartItem) *domain.Cart {
	return &domain.Cart{SessionID: "s1", Items: items}
}

func TestGetCart_UsesSessionCookie(t *testing.T) {
	product := domain.Product{ID: uuid.New(), Name: "Cheesecake", Price: "100", Units: 3}
	store := &mockCartStore{cart: cartOf(domain.CartItem{Product: product, Quantity: 2})}
	router := cartRouter(store, &mockProductGetter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart_session", Value: "existing-session"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "existing-session", store.sessionID)

	var resp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "200", resp.Total)
}

func TestGetCart_MintsCookieWhenMissing(t *testing.T) {
	store := &mockCartStore{cart: cartOf()}
	router := cartRouter(store, &mockProductGetter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "cart_session", cookies[0].Name)
	_, err := uuid.Parse(cookies[0].Value)
	assert.NoError(t, err)
	assert.Equal(t, cookies[0].Value, store.sessionID)
}

func TestAddItem(t *testing.T) {
	product := domain.Product{ID: uuid.New(), Name: "Cheesecake", Price: "100", Units: 3}
	store := &mockCartStore{
		cart:   cartOf(domain.CartItem{Product: product, Quantity: 1, Animation: domain.AnimationAdded}),
		opened: true,
	}
	router := cartRouter(store, &mockProductGetter{product: &product})

	body := fmt.Sprintf(`{"product_id":%q}`, product.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OpenPanel)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "add", store.lastAction)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	store := &mockCartStore{cart: cartOf()}
	router := cartRouter(store, &mockProductGetter{})

	body := fmt.Sprintf(`{"product_id":%q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, store.lastAction, "cart must not be touched for unknown products")
}

func TestAddItem_InvalidBody(t *testing.T) {
	router := cartRouter(&mockCartStore{cart: cartOf()}, &mockProductGetter{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateQuantity_InvalidProductID(t *testing.T) {
	router := cartRouter(&mockCartStore{cart: cartOf()}, &mockProductGetter{})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/not-a-uuid", strings.NewReader(`{"quantity":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveThenFinalize(t *testing.T) {
	product := domain.Product{ID: uuid.New(), Name: "Cheesecake", Price: "100", Units: 3}
	store := &mockCartStore{cart: cartOf(domain.CartItem{Product: product, Quantity: 1, Animation: domain.AnimationRemoved})}
	router := cartRouter(store, &mockProductGetter{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+product.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remove", store.lastAction)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/items/"+product.ID.String()+"/finalize-remove", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remove-final", store.lastAction)
}

func TestClearCart(t *testing.T) {
	store := &mockCartStore{cart: cartOf()}
	router := cartRouter(store, &mockProductGetter{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/clear", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "clear", store.lastAction)
}

func TestCartStoreError(t *testing.T) {
	store := &mockCartStore{err: fmt.Errorf("connection refused")}
	router := cartRouter(store, &mockProductGetter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
