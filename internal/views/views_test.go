package views

import (
	"bytes"
	"testing"

	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineParsesTemplates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, engine.Render(&out, "error", fiber.Map{"Title": "Oops", "Message": "not found"}, Layout))
	assert.Contains(t, out.String(), "<title>Oops</title>")
	assert.Contains(t, out.String(), "not found")
}

func TestCartPageHelpers(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	cart := models.ResolvedCart{
		ID: "1",
		Lines: []models.ResolvedLine{{
			ProductID: "7",
			Product:   &models.Product{ID: "7", Title: "Lamp", Price: 10.1},
			Quantity:  3,
		}},
		Total: decimal.RequireFromString("30.3"),
	}
	var out bytes.Buffer
	require.NoError(t, engine.Render(&out, "cart", fiber.Map{"Title": "Cart", "Cart": cart}))
	assert.Contains(t, out.String(), "$30.30</td>")
	assert.Contains(t, out.String(), "Total: $30.30")
}
