package repositories_test

import (
	"context"
	"path/filepath"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCartRepository_Lifecycle(t *testing.T) {
	repo := repositories.NewMemoryCartRepository()
	ctx := context.Background()

	cart := &models.Cart{}
	require.NoError(t, repo.Insert(ctx, cart))
	assert.Equal(t, "1", cart.ID)
	assert.NotNil(t, cart.Lines)

	updated, err := repo.UpdateLines(ctx, cart.ID, []models.CartLine{{ProductID: "4", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "4", Quantity: 2}}, updated.Lines)

	updated.Lines[0].Quantity = 99
	stored, err := repo.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Lines[0].Quantity)

	_, err = repo.UpdateLines(ctx, "42", nil)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	removed, err := repo.DeleteByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, removed.ID)
	_, err = repo.FindByID(ctx, cart.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestJSONCartRepository_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carts.json")
	ctx := context.Background()

	repo, err := repositories.NewJSONCartRepository(path)
	require.NoError(t, err)
	cart := &models.Cart{}
	require.NoError(t, repo.Insert(ctx, cart))
	_, err = repo.UpdateLines(ctx, cart.ID, []models.CartLine{{ProductID: "1", Quantity: 3}})
	require.NoError(t, err)

	reopened, err := repositories.NewJSONCartRepository(path)
	require.NoError(t, err)
	got, err := reopened.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "1", Quantity: 3}}, got.Lines)

	next := &models.Cart{}
	require.NoError(t, reopened.Insert(ctx, next))
	assert.Equal(t, "2", next.ID)
}
