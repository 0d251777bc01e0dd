package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
// The code column carries a unique index, so duplicates are rejected by the database.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func (r *GORMProductRepository) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CanonicalID renders braced, URN and upper-case UUIDs in the stored form.
func (r *GORMProductRepository) CanonicalID(id string) string {
	return canonicalUUID(id)
}

func canonicalUUID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

func (r *GORMProductRepository) query(ctx context.Context, filter ProductFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.Available {
		q = q.Where("stock > ? AND status = ?", 0, true)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Code != "" {
		q = q.Where("code = ?", filter.Code)
	}
	if filter.ExcludeID != "" {
		q = q.Where("id <> ?", filter.ExcludeID)
	}
	return q
}

// FindAll retrieves a page of products from the database.
func (r *GORMProductRepository) FindAll(ctx context.Context, filter ProductFilter, order ProductSort, offset, limit int) ([]models.Product, error) {
	q := r.query(ctx, filter)
	switch order {
	case SortPriceAsc:
		q = q.Order("price asc")
	case SortPriceDesc:
		q = q.Order("price desc")
	}
	q = q.Order("created_at asc")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	products := []models.Product{}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// Count counts the products matching filter.
func (r *GORMProductRepository) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	var n int64
	if err := r.query(ctx, filter).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// FindByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// FindOne retrieves the first product matching filter.
func (r *GORMProductRepository) FindOne(ctx context.Context, filter ProductFilter) (*models.Product, error) {
	var product models.Product
	if err := r.query(ctx, filter).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// Insert creates a new product in the database.
func (r *GORMProductRepository) Insert(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Thumbnails == nil {
		product.Thumbnails = []string{}
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product code %s: %w", product.Code, ErrDuplicateCode)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateByID loads, patches and saves the product inside one transaction.
func (r *GORMProductRepository) UpdateByID(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		patch.Apply(&product)
		return tx.Save(&product).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, fmt.Errorf("product %s: %w", id, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

// DeleteByID deletes a product by its ID and returns the removed record.
func (r *GORMProductRepository) DeleteByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return &product, nil
}
