// Package admin implements the console operations: product CRUD with image
// uploads and the read-only order browser.
package admin

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lunoxdev/mai-store/internal/domain"
	"github.com/lunoxdev/mai-store/internal/storage"
)

// ProductStore is the slice of the product repository the console needs.
type ProductStore interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	HandleExists(ctx context.Context, handle string, excludeID uuid.UUID) (bool, error)
	InsertProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) ([]string, error)
}

// OrderBrowser lists every order for the read-only screen.
type OrderBrowser interface {
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
}

type Service struct {
	products ProductStore
	orders   OrderBrowser
	storage  storage.ObjectStorage
}

func NewService(products ProductStore, orders OrderBrowser, store storage.ObjectStorage) *Service {
	return &Service{
		products: products,
		orders:   orders,
		storage:  store,
	}
}

// NewImage is an image file received from the console, not yet in the bucket.
type NewImage struct {
	Name        string
	ContentType string
	Data        []byte
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       string
	Units       int
	Available   bool
	Images      []NewImage
}

// CreateProduct uploads the images one at a time, then inserts the row with
// a handle derived from the name. The first upload failure aborts the whole
// creation; anything already uploaded stays in the bucket as an orphan and
// is logged.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	uploaded, err := s.uploadImages(ctx, input.Name, input.Images)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        input.Name,
		Handle:      Slugify(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Units:       input.Units,
		Images:      uploaded,
		Available:   input.Available,
	}

	if err := s.products.InsertProduct(ctx, product); err != nil {
		logOrphans(uploaded)
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return product, nil
}

type UpdateProductInput struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       string
	Units       int
	Available   bool
	// KeepImages are previously uploaded images the admin retained.
	KeepImages []domain.ProductImage
	// RemovePaths are bucket paths the admin explicitly removed.
	RemovePaths []string
	NewImages   []NewImage
}

// UpdateProduct recomputes the handle when the name changed, deletes the
// explicitly removed images from the bucket, uploads the new ones and
// merges them behind the retained set.
func (s *Service) UpdateProduct(ctx context.Context, input UpdateProductInput) (*domain.Product, error) {
	current, err := s.products.GetProductByID(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch product: %w", err)
	}

	handle := current.Handle
	if input.Name != current.Name {
		handle = Slugify(input.Name)
		taken, err := s.products.HandleExists(ctx, handle, input.ID)
		if err != nil {
			return nil, fmt.Errorf("check handle: %w", err)
		}
		if taken {
			// Disambiguate with part of our own identifier.
			handle = handle + "-" + input.ID.String()[:8]
		}
	}

	kept := input.KeepImages
	for _, path := range input.RemovePaths {
		if err := s.storage.Remove(ctx, path); err != nil {
			// The object stays, so keep its record too.
			log.Printf("error deleting image from storage: %v", err)
			kept = append(kept, imageForPath(current.Images, path))
		}
	}

	uploaded, err := s.uploadImages(ctx, input.Name, input.NewImages)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:          input.ID,
		Name:        input.Name,
		Handle:      handle,
		Description: input.Description,
		Price:       input.Price,
		Units:       input.Units,
		Images:      append(kept, uploaded...),
		Available:   input.Available,
		CreatedAt:   current.CreatedAt,
	}

	if err := s.products.UpdateProduct(ctx, product); err != nil {
		logOrphans(uploaded)
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes the row only. The bucket objects are left behind
// deliberately; their paths are logged so a cleanup job can find them.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	paths, err := s.products.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if len(paths) > 0 {
		log.Printf("product %s deleted, %d image(s) left in bucket: %v", id, len(paths), paths)
	}
	return nil
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.ListAllOrders(ctx)
}

// uploadImages pushes files to the bucket one at a time. The first failure
// aborts and returns the error; completed uploads are not rolled back.
func (s *Service) uploadImages(ctx context.Context, alt string, images []NewImage) ([]domain.ProductImage, error) {
	var uploaded []domain.ProductImage
	for _, img := range images {
		path := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), img.Name)
		err := s.storage.Upload(ctx, path, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType)
		if err != nil {
			logOrphans(uploaded)
			return nil, fmt.Errorf("upload image %s: %w", img.Name, err)
		}
		uploaded = append(uploaded, domain.ProductImage{
			URL:  s.storage.PublicURL(path),
			Alt:  alt,
			Path: path,
		})
	}
	return uploaded, nil
}

func logOrphans(uploaded []domain.ProductImage) {
	if len(uploaded) == 0 {
		return
	}
	paths := make([]string, 0, len(uploaded))
	for _, img := range uploaded {
		paths = append(paths, img.Path)
	}
	log.Printf("aborted with %d orphaned upload(s) in bucket: %v", len(paths), paths)
}

func imageForPath(images []domain.ProductImage, path string) domain.ProductImage {
	for _, img := range images {
		if img.Path == path {
			return img
		}
	}
	return domain.ProductImage{Path: path}
}
