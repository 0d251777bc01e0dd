package services

import (
	"context"
	"errors"
	"log"

	"storefront/internal/apperror"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const danglingProductError = "product not found"

// CartService handles business logic related to carts.
// Every read-modify-write on a cart runs under that cart's lock.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	validate *validator.Validate
	locks    *keyedMutex
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		validate: newValidator(),
		locks:    newKeyedMutex(),
	}
}

// ValidID reports whether id is well formed for the cart store.
func (s *CartService) ValidID(id string) bool {
	return s.carts.ValidID(id)
}

// Create allocates a new empty cart.
func (s *CartService) Create(ctx context.Context) (*models.Cart, error) {
	cart := &models.Cart{Lines: []models.CartLine{}}
	if err := s.carts.Insert(ctx, cart); err != nil {
		return nil, apperror.Internal("failed to create cart", err)
	}
	log.Printf("Created cart %s", cart.ID)
	return cart, nil
}

// Get returns the cart with every line joined to its current product.
func (s *CartService) Get(ctx context.Context, id string) (*models.ResolvedCart, error) {
	id = s.carts.CanonicalID(id)
	cart, err := s.carts.FindByID(ctx, id)
	if err != nil {
		return nil, cartStoreError(id, err)
	}
	return s.resolve(ctx, cart)
}

// AddProduct adds quantity units of a product, merging into an existing line.
func (s *CartService) AddProduct(ctx context.Context, cartID, productID string, quantity int) (*models.ResolvedCart, error) {
	if quantity < 1 {
		return nil, apperror.Validation("quantity must be an integer greater than or equal to 1")
	}
	productID = s.products.CanonicalID(productID)
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, productStoreError(productID, "failed to get product", err)
	}

	return s.mutate(ctx, cartID, func(cart *models.Cart) ([]models.CartLine, error) {
		lines := cart.CloneLines()
		if i := cart.LineIndex(productID); i >= 0 {
			lines[i].Quantity += quantity
		} else {
			lines = append(lines, models.CartLine{ProductID: productID, Quantity: quantity})
		}
		return lines, nil
	})
}

// SetLineQuantity sets a line's quantity. Zero removes the line.
func (s *CartService) SetLineQuantity(ctx context.Context, cartID, productID string, quantity int) (*models.ResolvedCart, error) {
	if quantity < 0 {
		return nil, apperror.Validation("quantity must be a number greater than or equal to 0")
	}
	productID = s.products.CanonicalID(productID)

	return s.mutate(ctx, cartID, func(cart *models.Cart) ([]models.CartLine, error) {
		i := cart.LineIndex(productID)
		if i < 0 {
			return nil, lineNotFound(cartID, productID)
		}
		lines := cart.CloneLines()
		if quantity == 0 {
			return append(lines[:i], lines[i+1:]...), nil
		}
		lines[i].Quantity = quantity
		return lines, nil
	})
}

// ReplaceLines swaps the whole line list after checking that every product exists.
// Repeated products are merged so the cart keeps one line per product.
func (s *CartService) ReplaceLines(ctx context.Context, cartID string, lines []models.CartLine) (*models.ResolvedCart, error) {
	for i := range lines {
		if err := validateStruct(s.validate, lines[i]); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, cartID, func(_ *models.Cart) ([]models.CartLine, error) {
		merged := make([]models.CartLine, 0, len(lines))
		positions := make(map[string]int, len(lines))
		for _, line := range lines {
			line.ProductID = s.products.CanonicalID(line.ProductID)
			if i, ok := positions[line.ProductID]; ok {
				merged[i].Quantity += line.Quantity
				continue
			}
			if _, err := s.products.FindByID(ctx, line.ProductID); err != nil {
				return nil, productStoreError(line.ProductID, "failed to get product", err)
			}
			positions[line.ProductID] = len(merged)
			merged = append(merged, line)
		}
		return merged, nil
	})
}

// RemoveLine drops the line for productID.
func (s *CartService) RemoveLine(ctx context.Context, cartID, productID string) (*models.ResolvedCart, error) {
	productID = s.products.CanonicalID(productID)
	return s.mutate(ctx, cartID, func(cart *models.Cart) ([]models.CartLine, error) {
		i := cart.LineIndex(productID)
		if i < 0 {
			return nil, lineNotFound(cartID, productID)
		}
		lines := cart.CloneLines()
		return append(lines[:i], lines[i+1:]...), nil
	})
}

// Clear empties the cart. Clearing an empty cart succeeds.
func (s *CartService) Clear(ctx context.Context, cartID string) (*models.ResolvedCart, error) {
	return s.mutate(ctx, cartID, func(_ *models.Cart) ([]models.CartLine, error) {
		return []models.CartLine{}, nil
	})
}

// Delete permanently removes the cart.
func (s *CartService) Delete(ctx context.Context, cartID string) (*models.Cart, error) {
	cartID = s.carts.CanonicalID(cartID)
	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.DeleteByID(ctx, cartID)
	if err != nil {
		return nil, cartStoreError(cartID, err)
	}
	log.Printf("Deleted cart %s", cartID)
	return cart, nil
}

// mutate loads the cart, lets edit compute the new lines and writes them back
// while holding the cart lock. Nothing is written if edit fails.
func (s *CartService) mutate(ctx context.Context, cartID string, edit func(cart *models.Cart) ([]models.CartLine, error)) (*models.ResolvedCart, error) {
	cartID = s.carts.CanonicalID(cartID)
	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.carts.FindByID(ctx, cartID)
	if err != nil {
		return nil, cartStoreError(cartID, err)
	}
	lines, err := edit(cart)
	if err != nil {
		return nil, err
	}
	updated, err := s.carts.UpdateLines(ctx, cartID, lines)
	if err != nil {
		return nil, cartStoreError(cartID, err)
	}
	return s.resolve(ctx, updated)
}

func (s *CartService) resolve(ctx context.Context, cart *models.Cart) (*models.ResolvedCart, error) {
	resolved := &models.ResolvedCart{
		ID:        cart.ID,
		Lines:     make([]models.ResolvedLine, 0, len(cart.Lines)),
		Total:     decimal.Zero,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, line := range cart.Lines {
		rl := models.ResolvedLine{ProductID: line.ProductID, Quantity: line.Quantity, Subtotal: decimal.Zero}
		product, err := s.products.FindByID(ctx, line.ProductID)
		switch {
		case err == nil:
			rl.Product = product
			rl.Subtotal = models.LineTotal(product.Price, line.Quantity)
			resolved.Total = resolved.Total.Add(rl.Subtotal)
		case errors.Is(err, repositories.ErrNotFound):
			rl.Error = danglingProductError
		default:
			return nil, apperror.Internal("failed to resolve cart products", err)
		}
		resolved.Lines = append(resolved.Lines, rl)
	}
	return resolved, nil
}

func lineNotFound(cartID, productID string) error {
	return apperror.NotFound("product %s not found in cart %s", productID, cartID)
}

func cartStoreError(id string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound("cart %s not found", id)
	}
	return apperror.Internal("cart store failure", err)
}
