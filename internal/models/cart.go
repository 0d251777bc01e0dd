package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a single product reference inside a cart.
type CartLine struct {
	ProductID string `json:"product" validate:"notblank"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// Cart is a shopping cart. It holds at most one line per product.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Lines     []CartLine `json:"products" gorm:"serializer:json"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// LineIndex returns the position of the line for productID, or -1.
func (c *Cart) LineIndex(productID string) int {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// CloneLines returns a copy of the line list that can be mutated freely.
func (c *Cart) CloneLines() []CartLine {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}

// ResolvedLine is a cart line carrying the current product record.
// Product is nil when the referenced product no longer exists, in which case Error is set.
type ResolvedLine struct {
	ProductID string          `json:"productId"`
	Product   *Product        `json:"product"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Error     string          `json:"error,omitempty"`
}

// ResolvedCart is a cart whose lines have been joined with their products.
type ResolvedCart struct {
	ID        string          `json:"id"`
	Lines     []ResolvedLine  `json:"products"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// LineTotal returns price times quantity.
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}
