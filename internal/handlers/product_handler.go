package handlers

import (
	"strconv"

	"storefront/internal/apperror"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	limiter fiber.Handler
}

// NewProductHandler creates a new ProductHandler. limiter guards the
// mutating routes and may be nil.
func NewProductHandler(service *services.ProductService, limiter fiber.Handler) *ProductHandler {
	return &ProductHandler{service: service, limiter: limiter}
}

// RegisterRoutes registers the product routes under router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	validPID := middleware.ValidateIDs(h.service.ValidID, "pid")
	limit := passThrough(h.limiter)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:pid", validPID, h.HandleGetProduct)
	productRoutes.Post("/", limit, h.HandleCreateProduct)
	productRoutes.Put("/:pid", limit, validPID, h.HandleUpdateProduct)
	productRoutes.Delete("/:pid", limit, validPID, h.HandleDeleteProduct)
}

// productListResponse flattens the page next to the status field.
type productListResponse struct {
	Status string `json:"status"`
	*models.ProductPage
}

// HandleListProducts lists products. Query: limit, page, sort, query.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(productListResponse{Status: "success", ProductPage: page})
}

func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.Get(c.UserContext(), c.Params("pid"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "", product)
}

func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var in models.ProductInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	product, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, "product created", product)
}

// HandleUpdateProduct applies a partial update. An id in the body is ignored.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var patch models.ProductPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	product, err := h.service.Update(c.UserContext(), c.Params("pid"), patch)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "product updated", product)
}

func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	product, err := h.service.Delete(c.UserContext(), c.Params("pid"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "product deleted", product)
}

func listOptions(c *fiber.Ctx) (services.ListOptions, error) {
	opts := services.ListOptions{Sort: c.Query("sort"), Query: c.Query("query")}
	var err error
	if opts.Limit, err = positiveQueryInt(c, "limit"); err != nil {
		return opts, err
	}
	if opts.Page, err = positiveQueryInt(c, "page"); err != nil {
		return opts, err
	}
	return opts, nil
}

// positiveQueryInt returns 0 when the parameter is absent.
func positiveQueryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.Validation(name + " must be a positive integer")
	}
	return n, nil
}

func passThrough(h fiber.Handler) fiber.Handler {
	if h == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return h
}
