package handlers

import (
	"log"

	"storefront/internal/apperror"
	"storefront/internal/services"
	"storefront/internal/views"

	"github.com/gofiber/fiber/v2"
)

const realtimeProductsLimit = 100

// ViewHandler renders the HTML pages.
type ViewHandler struct {
	products *services.ProductService
	carts    *services.CartService
}

func NewViewHandler(products *services.ProductService, carts *services.CartService) *ViewHandler {
	return &ViewHandler{products: products, carts: carts}
}

// RegisterRoutes registers the page routes on the application root.
func (h *ViewHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/products", fiber.StatusFound)
	})
	router.Get("/products", h.HandleProductsPage)
	router.Get("/products/:pid", h.HandleProductDetailPage)
	router.Get("/carts/:cid", h.HandleCartPage)
	router.Get("/realtimeproducts", h.HandleRealtimeProductsPage)
}

func (h *ViewHandler) HandleProductsPage(c *fiber.Ctx) error {
	bind := fiber.Map{
		"Title":        "Products",
		"CurrentQuery": c.Query("query"),
		"CurrentSort":  c.Query("sort"),
	}

	opts, err := listOptions(c)
	if err == nil {
		bind["CurrentLimit"] = effectiveLimit(opts.Limit)
		page, listErr := h.products.List(c.UserContext(), opts)
		if listErr == nil {
			bind["Products"] = page.Payload
			bind["Pagination"] = page
			return c.Render("products", bind, views.Layout)
		}
		err = listErr
	}

	log.Printf("Error rendering products page: %v", err)
	bind["Error"] = apperror.PublicMessage(err)
	if bind["CurrentLimit"] == nil {
		bind["CurrentLimit"] = services.DefaultPageSize
	}
	return c.Status(StatusOf(err)).Render("products", bind, views.Layout)
}

func (h *ViewHandler) HandleProductDetailPage(c *fiber.Ctx) error {
	pid := c.Params("pid")
	if !h.products.ValidID(pid) {
		return h.renderError(c, "Product not found", apperror.NotFound("product %s not found", pid))
	}
	product, err := h.products.Get(c.UserContext(), pid)
	if err != nil {
		return h.renderError(c, "Product not found", err)
	}
	return c.Render("productDetail", fiber.Map{
		"Title":   product.Title,
		"Product": product,
	}, views.Layout)
}

func (h *ViewHandler) HandleCartPage(c *fiber.Ctx) error {
	cid := c.Params("cid")
	if !h.carts.ValidID(cid) {
		return h.renderError(c, "Cart not found", apperror.NotFound("cart %s not found", cid))
	}
	cart, err := h.carts.Get(c.UserContext(), cid)
	if err != nil {
		return h.renderError(c, "Cart not found", err)
	}
	return c.Render("cart", fiber.Map{
		"Title": "Shopping cart",
		"Cart":  cart,
	}, views.Layout)
}

func (h *ViewHandler) HandleRealtimeProductsPage(c *fiber.Ctx) error {
	bind := fiber.Map{"Title": "Real-time products"}
	page, err := h.products.List(c.UserContext(), services.ListOptions{Limit: realtimeProductsLimit, Page: 1})
	if err != nil {
		log.Printf("Error rendering real-time products page: %v", err)
		bind["Error"] = apperror.PublicMessage(err)
		return c.Status(fiber.StatusInternalServerError).Render("realTimeProducts", bind, views.Layout)
	}
	bind["Products"] = page.Payload
	return c.Render("realTimeProducts", bind, views.Layout)
}

func (h *ViewHandler) renderError(c *fiber.Ctx, title string, err error) error {
	status := StatusOf(err)
	if status != fiber.StatusNotFound {
		log.Printf("Error rendering %s: %v", c.Path(), err)
	}
	return c.Status(status).Render("error", fiber.Map{
		"Title":   title,
		"Message": apperror.PublicMessage(err),
	}, views.Layout)
}

func effectiveLimit(limit int) int {
	if limit == 0 {
		return services.DefaultPageSize
	}
	return limit
}
