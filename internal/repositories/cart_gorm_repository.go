package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
// Lines are stored as a JSON column so a cart is always written as one row.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *GORMCartRepository) CanonicalID(id string) string {
	return canonicalUUID(id)
}

// FindByID retrieves a cart by its ID.
func (r *GORMCartRepository) FindByID(ctx context.Context, id string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart by ID %s: %w", id, err)
	}
	if cart.Lines == nil {
		cart.Lines = []models.CartLine{}
	}
	return &cart, nil
}

// Insert creates a new cart.
func (r *GORMCartRepository) Insert(ctx context.Context, cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if cart.Lines == nil {
		cart.Lines = []models.CartLine{}
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// UpdateLines overwrites the line list inside a transaction.
func (r *GORMCartRepository) UpdateLines(ctx context.Context, id string, lines []models.CartLine) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cart, "id = ?", id).Error; err != nil {
			return err
		}
		cart.Lines = append([]models.CartLine{}, lines...)
		return tx.Save(&cart).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart with ID %s not found for update: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return &cart, nil
}

// DeleteByID deletes a cart and returns it.
func (r *GORMCartRepository) DeleteByID(ctx context.Context, id string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cart, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Cart{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart with ID %s not found for deletion: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete cart: %w", err)
	}
	return &cart, nil
}

// AutoMigrate creates or updates the product and cart tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}, &models.Cart{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
