package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lunoxdev/mai-store/internal/domain"
	"github.com/lunoxdev/mai-store/internal/repository"
)

// Catalog is the product read surface the storefront needs.
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SearchProducts(ctx context.Context, q string) ([]domain.Product, error)
	GetProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
	RelatedProducts(ctx context.Context, handle string, limit int) ([]domain.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type ProductDetailResponse struct {
	Product *domain.Product  `json:"product"`
	Related []domain.Product `json:"related"`
}

// GET /api/v1/products?q=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		products []domain.Product
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		products, err = h.catalog.SearchProducts(ctx, q)
	} else {
		products, err = h.catalog.ListProducts(ctx)
	}
	if err != nil {
		log.Printf("error fetching products: %v", err)
		respondError(w, http.StatusInternalServerError, "catalog_unavailable", "error loading products")
		return
	}

	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /api/v1/products/{handle}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	handle := chi.URLParam(r, "handle")
	product, err := h.catalog.GetProductByHandle(ctx, handle)
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "no product with that handle")
		return
	}
	if err != nil {
		log.Printf("error fetching product: %v", err)
		respondError(w, http.StatusInternalServerError, "catalog_unavailable", "error loading product")
		return
	}

	// Related products are decoration; a failure is logged, not surfaced.
	related, err := h.catalog.RelatedProducts(ctx, handle, 3)
	if err != nil {
		log.Printf("error fetching related products: %v", err)
		related = nil
	}
	if related == nil {
		related = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, &ProductDetailResponse{Product: product, Related: related})
}
