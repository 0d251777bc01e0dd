package repositories

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"storefront/internal/models"
)

// JSONProductRepository keeps products in memory and, when a path is set,
// mirrors every write to a JSON file. Ids are auto-increment integers.
type JSONProductRepository struct {
	path     string
	products []models.Product
	nextID   int64
	mu       sync.RWMutex
}

// NewJSONProductRepository creates a repository backed by the file at path.
// An empty path gives a purely in-memory repository.
func NewJSONProductRepository(path string) (*JSONProductRepository, error) {
	r := &JSONProductRepository{path: path, nextID: 1}
	if err := loadJSON(path, &r.products); err != nil {
		return nil, err
	}
	for _, p := range r.products {
		if n, ok := sequentialID(p.ID); ok && n >= r.nextID {
			r.nextID = n + 1
		}
	}
	return r, nil
}

// NewMemoryProductRepository creates a repository that never touches disk.
func NewMemoryProductRepository() *JSONProductRepository {
	return &JSONProductRepository{nextID: 1}
}

// ValidID reports whether id is a positive integer.
func (r *JSONProductRepository) ValidID(id string) bool {
	_, ok := sequentialID(id)
	return ok
}

// CanonicalID drops leading zeros and signs.
func (r *JSONProductRepository) CanonicalID(id string) string {
	return canonicalSequentialID(id)
}

// FindAll returns the products matching filter, sorted and paginated.
func (r *JSONProductRepository) FindAll(_ context.Context, filter ProductFilter, order ProductSort, offset, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	for i := range r.products {
		if filter.Matches(&r.products[i]) {
			matched = append(matched, cloneProduct(r.products[i]))
		}
	}

	switch order {
	case SortPriceAsc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case SortPriceDesc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}

	if offset < 0 || offset >= len(matched) {
		return []models.Product{}, nil
	}
	end := len(matched)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// Count returns how many products match filter.
func (r *JSONProductRepository) Count(_ context.Context, filter ProductFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for i := range r.products {
		if filter.Matches(&r.products[i]) {
			n++
		}
	}
	return n, nil
}

// FindByID returns a product by its ID.
func (r *JSONProductRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	p := cloneProduct(r.products[i])
	return &p, nil
}

// FindOne returns the first product matching filter.
func (r *JSONProductRepository) FindOne(_ context.Context, filter ProductFilter) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.products {
		if filter.Matches(&r.products[i]) {
			p := cloneProduct(r.products[i])
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// Insert adds a new product and assigns its ID.
func (r *JSONProductRepository) Insert(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.codeTaken(product.Code, "") {
		return fmt.Errorf("product code %s: %w", product.Code, ErrDuplicateCode)
	}

	now := time.Now().UTC()
	stored := cloneProduct(*product)
	stored.ID = strconv.FormatInt(r.nextID, 10)
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.products = append(r.products, stored)
	if err := saveJSON(r.path, r.products); err != nil {
		r.products = r.products[:len(r.products)-1]
		return fmt.Errorf("failed to create product: %w", err)
	}
	r.nextID++
	*product = cloneProduct(stored)
	return nil
}

// UpdateByID applies patch to the product and returns the updated record.
func (r *JSONProductRepository) UpdateByID(_ context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
	}
	if patch.Code != nil && r.codeTaken(*patch.Code, id) {
		return nil, fmt.Errorf("product code %s: %w", *patch.Code, ErrDuplicateCode)
	}

	previous := r.products[i]
	updated := cloneProduct(previous)
	patch.Apply(&updated)
	updated.UpdatedAt = time.Now().UTC()

	r.products[i] = updated
	if err := saveJSON(r.path, r.products); err != nil {
		r.products[i] = previous
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	result := cloneProduct(updated)
	return &result, nil
}

// DeleteByID removes a product and returns it.
func (r *JSONProductRepository) DeleteByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}

	removed := r.products[i]
	remaining := make([]models.Product, 0, len(r.products)-1)
	remaining = append(remaining, r.products[:i]...)
	remaining = append(remaining, r.products[i+1:]...)

	if err := saveJSON(r.path, remaining); err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	r.products = remaining
	return &removed, nil
}

func (r *JSONProductRepository) indexOf(id string) int {
	for i := range r.products {
		if r.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *JSONProductRepository) codeTaken(code, exceptID string) bool {
	for i := range r.products {
		if r.products[i].Code == code && r.products[i].ID != exceptID {
			return true
		}
	}
	return false
}

func cloneProduct(p models.Product) models.Product {
	if p.Thumbnails != nil {
		p.Thumbnails = append([]string{}, p.Thumbnails...)
	} else {
		p.Thumbnails = []string{}
	}
	return p
}
