package handlers

import (
	"storefront/internal/apperror"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for carts.
type CartHandler struct {
	service   *services.CartService
	productID func(string) bool
	limiter   fiber.Handler
}

// NewCartHandler creates a new CartHandler. validProductID checks the :pid
// parameter against the product store.
func NewCartHandler(service *services.CartService, validProductID func(string) bool, limiter fiber.Handler) *CartHandler {
	return &CartHandler{service: service, productID: validProductID, limiter: limiter}
}

// RegisterRoutes registers the cart routes under router.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	validCID := middleware.ValidateIDs(h.service.ValidID, "cid")
	validPID := middleware.ValidateIDs(h.productID, "pid")
	limit := passThrough(h.limiter)

	cartRoutes := router.Group("/carts")
	cartRoutes.Post("/", limit, h.HandleCreateCart)
	cartRoutes.Get("/:cid", validCID, h.HandleGetCart)
	cartRoutes.Put("/:cid", limit, validCID, h.HandleReplaceLines)
	cartRoutes.Delete("/:cid", limit, validCID, h.HandleClearCart)
	cartRoutes.Post("/:cid/products/:pid", limit, validCID, validPID, h.HandleAddProduct)
	cartRoutes.Post("/:cid/product/:pid", limit, validCID, validPID, h.HandleAddProduct)
	cartRoutes.Put("/:cid/products/:pid", limit, validCID, validPID, h.HandleSetQuantity)
	cartRoutes.Delete("/:cid/products/:pid", limit, validCID, validPID, h.HandleRemoveLine)
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type replaceLinesRequest struct {
	Products []models.CartLine `json:"products"`
}

func (h *CartHandler) HandleCreateCart(c *fiber.Ctx) error {
	cart, err := h.service.Create(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, "cart created", cart)
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.Get(c.UserContext(), c.Params("cid"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "", cart)
}

// HandleAddProduct adds one unit unless the body carries a quantity.
func (h *CartHandler) HandleAddProduct(c *fiber.Ctx) error {
	quantity := 1
	if len(c.Body()) > 0 {
		var req quantityRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
	}
	cart, err := h.service.AddProduct(c.UserContext(), c.Params("cid"), c.Params("pid"), quantity)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "product added to cart", cart)
}

func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	var req quantityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Quantity == nil {
		return apperror.Validation("quantity is required")
	}
	cart, err := h.service.SetLineQuantity(c.UserContext(), c.Params("cid"), c.Params("pid"), *req.Quantity)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "product quantity updated", cart)
}

func (h *CartHandler) HandleReplaceLines(c *fiber.Ctx) error {
	var req replaceLinesRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Products == nil {
		return apperror.Validation("products must be an array")
	}
	for _, line := range req.Products {
		if !h.productID(line.ProductID) {
			return apperror.Validation("invalid product id: " + line.ProductID)
		}
	}
	cart, err := h.service.ReplaceLines(c.UserContext(), c.Params("cid"), req.Products)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "cart updated", cart)
}

func (h *CartHandler) HandleRemoveLine(c *fiber.Ctx) error {
	cart, err := h.service.RemoveLine(c.UserContext(), c.Params("cid"), c.Params("pid"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "product removed from cart", cart)
}

func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	cart, err := h.service.Clear(c.UserContext(), c.Params("cid"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "cart cleared", cart)
}
