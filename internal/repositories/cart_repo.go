package repositories

import (
	"context"

	"storefront/internal/models"
)

// CartRepository defines the interface for cart data access.
// UpdateLines is the only mutation entry point: callers fetch a cart, edit a copy
// of its lines and write the whole list back in one call.
type CartRepository interface {
	FindByID(ctx context.Context, id string) (*models.Cart, error)
	Insert(ctx context.Context, cart *models.Cart) error
	UpdateLines(ctx context.Context, id string, lines []models.CartLine) (*models.Cart, error)
	DeleteByID(ctx context.Context, id string) (*models.Cart, error)
	ValidID(id string) bool
	CanonicalID(id string) string
}
