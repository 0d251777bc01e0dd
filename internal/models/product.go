package models

import "time"

// Product represents a product in the store.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Code        string    `json:"code" gorm:"uniqueIndex;type:varchar(100);not null"`
	Price       float64   `json:"price" gorm:"not null"`
	Status      bool      `json:"status" gorm:"not null"`
	Stock       int       `json:"stock" gorm:"not null"`
	Category    string    `json:"category" gorm:"index;type:varchar(100);not null"`
	Thumbnails  []string  `json:"thumbnails" gorm:"serializer:json"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Available reports whether the product can be sold right now.
func (p Product) Available() bool {
	return p.Status && p.Stock > 0
}

// ProductInput is the payload accepted when creating a product.
// Pointer fields distinguish a missing value from a zero value.
type ProductInput struct {
	Title       string   `json:"title" validate:"notblank"`
	Description string   `json:"description" validate:"notblank"`
	Code        string   `json:"code" validate:"notblank"`
	Price       *float64 `json:"price" validate:"required,gt=0"`
	Status      *bool    `json:"status"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"notblank"`
	Thumbnails  []string `json:"thumbnails"`
}

// ToProduct builds a product from the input, applying defaults.
func (in ProductInput) ToProduct() Product {
	p := Product{
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Status:      true,
		Category:    in.Category,
		Thumbnails:  []string{},
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Thumbnails != nil {
		p.Thumbnails = append(p.Thumbnails, in.Thumbnails...)
	}
	return p
}

// ProductPatch carries a partial product update. Nil fields are left untouched.
// Identity is never part of a patch.
type ProductPatch struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,notblank"`
	Description *string   `json:"description,omitempty" validate:"omitempty,notblank"`
	Code        *string   `json:"code,omitempty" validate:"omitempty,notblank"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	Status      *bool     `json:"status,omitempty"`
	Stock       *int      `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,notblank"`
	Thumbnails  *[]string `json:"thumbnails,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Code == nil && p.Price == nil &&
		p.Status == nil && p.Stock == nil && p.Category == nil && p.Thumbnails == nil
}

// Apply copies the present fields onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Title != nil {
		product.Title = *p.Title
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Code != nil {
		product.Code = *p.Code
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Status != nil {
		product.Status = *p.Status
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Thumbnails != nil {
		product.Thumbnails = append([]string{}, (*p.Thumbnails)...)
	}
}

// ProductPage is one page of a product listing together with its navigation metadata.
type ProductPage struct {
	Payload     []Product `json:"payload"`
	TotalPages  int       `json:"totalPages"`
	PrevPage    *int      `json:"prevPage"`
	NextPage    *int      `json:"nextPage"`
	Page        int       `json:"page"`
	HasPrevPage bool      `json:"hasPrevPage"`
	HasNextPage bool      `json:"hasNextPage"`
	PrevLink    *string   `json:"prevLink"`
	NextLink    *string   `json:"nextLink"`
}
