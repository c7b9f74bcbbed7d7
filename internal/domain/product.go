package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductImage points at an object in the image bucket. Path is the bucket
// key; it stays empty for images imported from external URLs.
type ProductImage struct {
	URL  string `json:"url" bson:"url"`
	Alt  string `json:"alt,omitempty" bson:"alt,omitempty"`
	Path string `json:"path,omitempty" bson:"path,omitempty"`
}

// Product is a catalog row. Price is kept as text and parsed on demand so
// the stored value round-trips without float drift. Available is a manual
// flag set by the admin, it is not derived from Units.
type Product struct {
	ID          uuid.UUID      `json:"id" bson:"id"`
	Name        string         `json:"name" bson:"name"`
	Handle      string         `json:"handle" bson:"handle"`
	Description string         `json:"description" bson:"description"`
	Price       string         `json:"price" bson:"price"`
	Units       int            `json:"units" bson:"units"`
	Images      []ProductImage `json:"images" bson:"images"`
	Available   bool           `json:"available" bson:"available"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

// PriceDecimal parses the stored price. Unparseable prices count as zero,
// matching how the storefront renders them.
func (p Product) PriceDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(p.Price)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FirstImageURL returns the primary image URL or "" when the product has no
// images. Order snapshots store this value.
func (p Product) FirstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}
