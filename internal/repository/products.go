package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lunoxdev/mai-store/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrHandleTaken     = errors.New("product handle already taken")
)

const productColumns = `id, name, handle, description, price, units, images, available, created_at, updated_at`

// ListProducts returns the whole catalog, newest first.
func (r *Postgres) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`
	return r.queryProducts(ctx, query)
}

// SearchProducts filters by case-insensitive name substring.
func (r *Postgres) SearchProducts(ctx context.Context, q string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
	          WHERE name ILIKE '%' || $1 || '%' ORDER BY created_at DESC`
	return r.queryProducts(ctx, query, q)
}

func (r *Postgres) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.queryProduct(ctx, query, id)
}

func (r *Postgres) GetProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE handle = $1`
	return r.queryProduct(ctx, query, handle)
}

// RelatedProducts returns up to limit products other than the given handle.
func (r *Postgres) RelatedProducts(ctx context.Context, handle string, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE handle <> $1 LIMIT $2`
	return r.queryProducts(ctx, query, handle, limit)
}

// HandleExists reports whether another product already owns the handle.
func (r *Postgres) HandleExists(ctx context.Context, handle string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE handle = $1 AND id <> $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, handle, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check handle: %w", err)
	}
	return exists, nil
}

func (r *Postgres) InsertProduct(ctx context.Context, p *domain.Product) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("failed to marshal product images: %w", err)
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO products (id, name, handle, description, price, units, images, available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, insertErr := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Handle, p.Description, p.Price, p.Units, imagesJSON, p.Available, p.CreatedAt, p.UpdatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrHandleTaken
		}
		return fmt.Errorf("insert product: %w", insertErr)
	}
	return nil
}

func (r *Postgres) UpdateProduct(ctx context.Context, p *domain.Product) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("failed to marshal product images: %w", err)
	}

	query := `UPDATE products
	          SET name = $2, handle = $3, description = $4, price = $5,
	              units = $6, images = $7, available = $8, updated_at = NOW()
	          WHERE id = $1`

	result, updateErr := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Handle, p.Description, p.Price, p.Units, imagesJSON, p.Available)
	if updateErr != nil {
		var pqErr *pq.Error
		if errors.As(updateErr, &pqErr) && pqErr.Code == "23505" {
			return ErrHandleTaken
		}
		return fmt.Errorf("update product: %w", updateErr)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes the row and returns the bucket paths of its images.
// The objects themselves are not deleted here; callers decide what to do
// with the paths.
func (r *Postgres) DeleteProduct(ctx context.Context, id uuid.UUID) ([]string, error) {
	var imagesJSON []byte
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM products WHERE id = $1 RETURNING images`, id).Scan(&imagesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}

	var images []domain.ProductImage
	if err := json.Unmarshal(imagesJSON, &images); err != nil {
		return nil, fmt.Errorf("unmarshal product images: %w", err)
	}

	var paths []string
	for _, img := range images {
		if img.Path != "" {
			paths = append(paths, img.Path)
		}
	}
	return paths, nil
}

func (r *Postgres) queryProduct(ctx context.Context, query string, args ...interface{}) (*domain.Product, error) {
	var p domain.Product
	var imagesJSON []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.Name, &p.Handle, &p.Description, &p.Price,
		&p.Units, &imagesJSON, &p.Available, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
		return nil, fmt.Errorf("unmarshal product images: %w", err)
	}
	return &p, nil
}

func (r *Postgres) queryProducts(ctx context.Context, query string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var imagesJSON []byte
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Handle, &p.Description, &p.Price,
			&p.Units, &imagesJSON, &p.Available, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("unmarshal product images: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}
