// Package views holds the embedded HTML templates.
package views

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"storefront/internal/models"

	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
)

// Layout wraps every page.
const Layout = "layouts/main"

//go:embed templates
var templates embed.FS

// NewEngine returns the template engine with the page helpers registered
// and every template parsed.
func NewEngine() (*html.Engine, error) {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("multiply", func(price float64, quantity int) string {
		return models.LineTotal(price, quantity).StringFixed(2)
	})
	engine.AddFunc("money", func(d decimal.Decimal) string {
		return d.StringFixed(2)
	})
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return engine, nil
}
