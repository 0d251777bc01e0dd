package services

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strconv"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultPageSize is the listing page size when none is given.
	DefaultPageSize = 10
	// QueryAvailable filters the listing down to products in stock and active.
	QueryAvailable = "available"

	productsBasePath = "/api/products"
)

// ListOptions shapes a product listing.
type ListOptions struct {
	Limit int
	Page  int
	// Sort is "", "asc" or "desc" by price.
	Sort string
	// Query is "available" or an exact category.
	Query string
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo         repositories.ProductRepository
	validate     *validator.Validate
	notifier     ProductNotifier
	snapshotSize int
	codeLocks    *keyedMutex
}

// NewProductService creates a new ProductService. notifier may be nil.
func NewProductService(repo repositories.ProductRepository, notifier ProductNotifier) *ProductService {
	return &ProductService{
		repo:         repo,
		validate:     newValidator(),
		notifier:     notifier,
		snapshotSize: DefaultPageSize,
		codeLocks:    newKeyedMutex(),
	}
}

// WithSnapshotSize sets how many products the post-mutation snapshot carries.
func (s *ProductService) WithSnapshotSize(n int) *ProductService {
	if n > 0 {
		s.snapshotSize = n
	}
	return s
}

// ValidID reports whether id is well formed for the underlying store.
func (s *ProductService) ValidID(id string) bool {
	return s.repo.ValidID(id)
}

// List returns one page of products plus pagination metadata.
func (s *ProductService) List(ctx context.Context, opts ListOptions) (*models.ProductPage, error) {
	if opts.Limit < 0 {
		return nil, apperror.Validation("limit must be a positive integer")
	}
	if opts.Page < 0 {
		return nil, apperror.Validation("page must be a positive integer")
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultPageSize
	}
	if opts.Page == 0 {
		opts.Page = 1
	}

	order, err := parseSort(opts.Sort)
	if err != nil {
		return nil, err
	}
	filter := listFilter(opts.Query)

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to count products", err)
	}
	totalPages := pageCount(total, opts.Limit)

	// Past the last page the offset could overflow, so skip the store.
	products := []models.Product{}
	if opts.Page <= totalPages {
		found, err := s.repo.FindAll(ctx, filter, order, (opts.Page-1)*opts.Limit, opts.Limit)
		if err != nil {
			return nil, apperror.Internal("failed to list products", err)
		}
		if found != nil {
			products = found
		}
	}

	page := &models.ProductPage{
		Payload:     products,
		TotalPages:  totalPages,
		Page:        opts.Page,
		HasPrevPage: opts.Page > 1,
		HasNextPage: opts.Page < totalPages,
	}
	if page.HasPrevPage {
		prev := opts.Page - 1
		link := pageLink(opts, prev)
		page.PrevPage = &prev
		page.PrevLink = &link
	}
	if page.HasNextPage {
		next := opts.Page + 1
		link := pageLink(opts, next)
		page.NextPage = &next
		page.NextLink = &link
	}
	return page, nil
}

// pageCount returns ceil(total/limit) without overflowing on large limits.
func pageCount(total int64, limit int) int {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}

// Get retrieves a single product by its ID.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	id = s.repo.CanonicalID(id)
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, productStoreError(id, "failed to get product", err)
	}
	return product, nil
}

// Create validates the input, enforces code uniqueness and stores the product.
func (s *ProductService) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	product, err := s.insert(ctx, in)
	if err != nil {
		return nil, err
	}
	log.Printf("Created product %s (code %s)", product.ID, product.Code)

	s.notify(ctx, ProductEvent{Type: ProductAdded, ProductID: product.ID, Product: product})
	return product, nil
}

func (s *ProductService) insert(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	unlock := s.codeLocks.Lock(in.Code)
	defer unlock()

	if err := s.ensureCodeFree(ctx, in.Code, ""); err != nil {
		return nil, err
	}
	product := in.ToProduct()
	if err := s.repo.Insert(ctx, &product); err != nil {
		return nil, productStoreError("", "failed to create product", err)
	}
	return &product, nil
}

// Update applies a partial update. Only the fields present in patch are validated.
func (s *ProductService) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if patch.Empty() {
		return nil, apperror.Validation("at least one field must be provided for update")
	}
	if err := validateStruct(s.validate, patch); err != nil {
		return nil, err
	}
	id = s.repo.CanonicalID(id)
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, productStoreError(id, "failed to get product", err)
	}

	if patch.Code != nil {
		unlock := s.codeLocks.Lock(*patch.Code)
		defer unlock()
		if err := s.ensureCodeFree(ctx, *patch.Code, id); err != nil {
			return nil, err
		}
	}

	product, err := s.repo.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, productStoreError(id, "failed to update product", err)
	}
	log.Printf("Updated product %s", id)
	return product, nil
}

// Delete removes the product and returns it.
func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	id = s.repo.CanonicalID(id)
	product, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, productStoreError(id, "failed to delete product", err)
	}
	log.Printf("Deleted product %s", id)

	s.notify(ctx, ProductEvent{Type: ProductDeleted, ProductID: id, Product: product})
	return product, nil
}

func (s *ProductService) ensureCodeFree(ctx context.Context, code, exceptID string) error {
	_, err := s.repo.FindOne(ctx, repositories.ProductFilter{Code: code, ExcludeID: exceptID})
	switch {
	case err == nil:
		return apperror.Conflict("a product with code %s already exists", code)
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return apperror.Internal("failed to check product code", err)
	}
}

func (s *ProductService) notify(ctx context.Context, event ProductEvent) {
	if s.notifier == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	page, err := s.List(ctx, ListOptions{Limit: s.snapshotSize, Page: 1})
	if err != nil {
		log.Printf("Warning: failed to build product snapshot after %s: %v", event.Type, err)
	} else {
		event.Snapshot = page.Payload
	}
	s.notifier.NotifyProductChange(ctx, event)
}

func parseSort(sort string) (repositories.ProductSort, error) {
	switch sort {
	case "":
		return repositories.SortNone, nil
	case "asc":
		return repositories.SortPriceAsc, nil
	case "desc":
		return repositories.SortPriceDesc, nil
	default:
		return repositories.SortNone, apperror.Validation("sort must be 'asc' or 'desc'")
	}
}

func listFilter(query string) repositories.ProductFilter {
	switch query {
	case "":
		return repositories.ProductFilter{}
	case QueryAvailable:
		return repositories.ProductFilter{Available: true}
	default:
		return repositories.ProductFilter{Category: query}
	}
}

// pageLink builds a listing link that keeps the active filter, sort and limit.
func pageLink(opts ListOptions, page int) string {
	params := url.Values{}
	if opts.Limit != DefaultPageSize {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Query != "" {
		params.Set("query", opts.Query)
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}
	params.Set("page", strconv.Itoa(page))
	return productsBasePath + "?" + params.Encode()
}

func productStoreError(id, message string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperror.NotFound("product %s not found", id)
	case errors.Is(err, repositories.ErrDuplicateCode):
		return apperror.Conflict("a product with this code already exists")
	default:
		return apperror.Internal(message, err)
	}
}
