package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lunoxdev/mai-store/internal/admin"
	"github.com/lunoxdev/mai-store/internal/domain"
	"github.com/lunoxdev/mai-store/internal/repository"
)

// Console is the admin service surface.
type Console interface {
	CreateProduct(ctx context.Context, input admin.CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, input admin.UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}

type AdminHandler struct {
	console Console
	timeout time.Duration
}

func NewAdminHandler(console Console, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		console: console,
		timeout: timeout,
	}
}

const maxUploadBytes = 32 << 20

// POST /api/v1/admin/products (multipart: name, description, price, units,
// available + "images" files)
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing_name", "name is required")
		return
	}

	images, err := readImageFiles(r.MultipartForm.File["images"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_image", "could not read image upload")
		return
	}

	product, err := h.console.CreateProduct(ctx, admin.CreateProductInput{
		Name:        name,
		Description: r.FormValue("description"),
		Price:       formValueDefault(r, "price", "0"),
		Units:       formInt(r, "units"),
		Available:   formBool(r, "available", true),
		Images:      images,
	})
	if errors.Is(err, repository.ErrHandleTaken) {
		respondError(w, http.StatusConflict, "handle_taken", "a product with that handle already exists")
		return
	}
	if err != nil {
		log.Printf("error adding product: %v", err)
		respondError(w, http.StatusInternalServerError, "create_failed", "error adding product")
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// PUT /api/v1/admin/products/{product_id} (multipart: scalar fields plus
// keep_images and remove_paths JSON values and new "images" files)
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing_name", "name is required")
		return
	}

	var keep []domain.ProductImage
	if raw := r.FormValue("keep_images"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &keep); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "keep_images must be a JSON array")
			return
		}
	}
	var removePaths []string
	if raw := r.FormValue("remove_paths"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &removePaths); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "remove_paths must be a JSON array")
			return
		}
	}

	images, err := readImageFiles(r.MultipartForm.File["images"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_image", "could not read image upload")
		return
	}

	product, err := h.console.UpdateProduct(ctx, admin.UpdateProductInput{
		ID:          productID,
		Name:        name,
		Description: r.FormValue("description"),
		Price:       formValueDefault(r, "price", "0"),
		Units:       formInt(r, "units"),
		Available:   formBool(r, "available", true),
		KeepImages:  keep,
		RemovePaths: removePaths,
		NewImages:   images,
	})
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "no such product")
		return
	}
	if errors.Is(err, repository.ErrHandleTaken) {
		respondError(w, http.StatusConflict, "handle_taken", "a product with that handle already exists")
		return
	}
	if err != nil {
		log.Printf("error updating product: %v", err)
		respondError(w, http.StatusInternalServerError, "update_failed", "error updating product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// DELETE /api/v1/admin/products/{product_id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	err := h.console.DeleteProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "no such product")
		return
	}
	if err != nil {
		log.Printf("error deleting product: %v", err)
		respondError(w, http.StatusInternalServerError, "delete_failed", "error deleting product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/admin/orders
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.console.ListOrders(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "orders_unavailable", "error fetching orders")
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, &OrdersResponse{Orders: orders})
}

func readImageFiles(headers []*multipart.FileHeader) ([]admin.NewImage, error) {
	var images []admin.NewImage
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, admin.NewImage{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return images, nil
}

func formValueDefault(r *http.Request, key, def string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return def
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.FormValue(key))
	return n
}

func formBool(r *http.Request, key string, def bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
