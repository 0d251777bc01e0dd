package repositories

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"storefront/internal/models"
)

// JSONCartRepository is the cart counterpart of JSONProductRepository.
type JSONCartRepository struct {
	path   string
	carts  []models.Cart
	nextID int64
	mu     sync.RWMutex
}

// NewJSONCartRepository creates a repository backed by the file at path.
func NewJSONCartRepository(path string) (*JSONCartRepository, error) {
	r := &JSONCartRepository{path: path, nextID: 1}
	if err := loadJSON(path, &r.carts); err != nil {
		return nil, err
	}
	for _, c := range r.carts {
		if n, ok := sequentialID(c.ID); ok && n >= r.nextID {
			r.nextID = n + 1
		}
	}
	return r, nil
}

// NewMemoryCartRepository creates a repository that never touches disk.
func NewMemoryCartRepository() *JSONCartRepository {
	return &JSONCartRepository{nextID: 1}
}

func (r *JSONCartRepository) ValidID(id string) bool {
	_, ok := sequentialID(id)
	return ok
}

// CanonicalID drops leading zeros and signs.
func (r *JSONCartRepository) CanonicalID(id string) string {
	return canonicalSequentialID(id)
}

// FindByID returns a copy of the cart.
func (r *JSONCartRepository) FindByID(_ context.Context, id string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("cart with ID %s: %w", id, ErrNotFound)
	}
	c := cloneCart(r.carts[i])
	return &c, nil
}

// Insert stores a new cart and assigns its ID.
func (r *JSONCartRepository) Insert(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := cloneCart(*cart)
	stored.ID = strconv.FormatInt(r.nextID, 10)
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.carts = append(r.carts, stored)
	if err := saveJSON(r.path, r.carts); err != nil {
		r.carts = r.carts[:len(r.carts)-1]
		return fmt.Errorf("failed to create cart: %w", err)
	}
	r.nextID++
	*cart = cloneCart(stored)
	return nil
}

// UpdateLines replaces the cart's line list in a single step.
func (r *JSONCartRepository) UpdateLines(_ context.Context, id string, lines []models.CartLine) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("cart with ID %s not found for update: %w", id, ErrNotFound)
	}

	previous := r.carts[i]
	updated := previous
	updated.Lines = append([]models.CartLine{}, lines...)
	updated.UpdatedAt = time.Now().UTC()

	r.carts[i] = updated
	if err := saveJSON(r.path, r.carts); err != nil {
		r.carts[i] = previous
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	c := cloneCart(updated)
	return &c, nil
}

// DeleteByID removes a cart and returns it.
func (r *JSONCartRepository) DeleteByID(_ context.Context, id string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("cart with ID %s not found for deletion: %w", id, ErrNotFound)
	}

	removed := r.carts[i]
	remaining := make([]models.Cart, 0, len(r.carts)-1)
	remaining = append(remaining, r.carts[:i]...)
	remaining = append(remaining, r.carts[i+1:]...)

	if err := saveJSON(r.path, remaining); err != nil {
		return nil, fmt.Errorf("failed to delete cart: %w", err)
	}
	r.carts = remaining
	return &removed, nil
}

func (r *JSONCartRepository) indexOf(id string) int {
	for i := range r.carts {
		if r.carts[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneCart(c models.Cart) models.Cart {
	c.Lines = append([]models.CartLine{}, c.Lines...)
	return c
}
