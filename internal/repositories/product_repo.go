package repositories

import (
	"context"
	"errors"

	"storefront/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCode is returned when a product code is already taken.
	ErrDuplicateCode = errors.New("duplicate product code")
)

// ProductSort orders a product listing by price.
type ProductSort int

const (
	SortNone ProductSort = iota
	SortPriceAsc
	SortPriceDesc
)

// ProductFilter narrows product queries. Zero fields match everything.
type ProductFilter struct {
	// Available keeps products with stock > 0 and status true.
	Available bool
	Category  string
	Code      string
	// ExcludeID drops the product with this id, used for uniqueness checks on update.
	ExcludeID string
}

// Matches reports whether p satisfies the filter.
func (f ProductFilter) Matches(p *models.Product) bool {
	if f.Available && !p.Available() {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Code != "" && p.Code != f.Code {
		return false
	}
	if f.ExcludeID != "" && p.ID == f.ExcludeID {
		return false
	}
	return true
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	FindAll(ctx context.Context, filter ProductFilter, sort ProductSort, offset, limit int) ([]models.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindOne(ctx context.Context, filter ProductFilter) (*models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
	UpdateByID(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	DeleteByID(ctx context.Context, id string) (*models.Product, error)
	// ValidID reports whether id has the identity format this store issues.
	ValidID(id string) bool
	// CanonicalID returns the single spelling of a valid id, so ids compare as
	// strings. Invalid ids come back unchanged.
	CanonicalID(id string) string
}
