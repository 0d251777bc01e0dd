package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupDB opens a private in-memory sqlite database for one test.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGORMProductRepository_CRUD(t *testing.T) {
	repo := repositories.NewGORMProductRepository(setupDB(t))
	ctx := context.Background()

	p := newProduct("A1", "books", 10, 2)
	p.Thumbnails = []string{"a.png", "b.png"}
	require.NoError(t, repo.Insert(ctx, p))
	assert.True(t, repo.ValidID(p.ID))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", got.Code)
	assert.Equal(t, []string{"a.png", "b.png"}, got.Thumbnails)

	err = repo.Insert(ctx, newProduct("A1", "toys", 3, 1))
	assert.ErrorIs(t, err, repositories.ErrDuplicateCode)

	off := false
	stock := 0
	updated, err := repo.UpdateByID(ctx, p.ID, models.ProductPatch{Status: &off, Stock: &stock})
	require.NoError(t, err)
	assert.False(t, updated.Status)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, 10.0, updated.Price)

	removed, err := repo.DeleteByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, removed.ID)

	_, err = repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repo.DeleteByID(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repo.UpdateByID(ctx, p.ID, models.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMProductRepository_UpdateRejectsTakenCode(t *testing.T) {
	repo := repositories.NewGORMProductRepository(setupDB(t))
	ctx := context.Background()

	a := newProduct("A1", "books", 10, 2)
	b := newProduct("B1", "books", 10, 2)
	require.NoError(t, repo.Insert(ctx, a))
	require.NoError(t, repo.Insert(ctx, b))

	taken := "A1"
	_, err := repo.UpdateByID(ctx, b.ID, models.ProductPatch{Code: &taken})
	assert.ErrorIs(t, err, repositories.ErrDuplicateCode)
}

func TestGORMProductRepository_FilterSortAndPaginate(t *testing.T) {
	repo := repositories.NewGORMProductRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newProduct("A", "books", 30, 1)))
	require.NoError(t, repo.Insert(ctx, newProduct("B", "books", 10, 0)))
	require.NoError(t, repo.Insert(ctx, newProduct("C", "toys", 20, 4)))

	asc, err := repo.FindAll(ctx, repositories.ProductFilter{}, repositories.SortPriceAsc, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, codes(asc))

	page, err := repo.FindAll(ctx, repositories.ProductFilter{}, repositories.SortPriceDesc, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, codes(page))

	n, err := repo.Count(ctx, repositories.ProductFilter{Available: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	books, err := repo.FindAll(ctx, repositories.ProductFilter{Category: "books"}, repositories.SortNone, 0, 10)
	require.NoError(t, err)
	assert.Len(t, books, 2)

	_, err = repo.FindOne(ctx, repositories.ProductFilter{Code: "Z"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMCartRepository_Lifecycle(t *testing.T) {
	repo := repositories.NewGORMCartRepository(setupDB(t))
	ctx := context.Background()

	cart := &models.Cart{Lines: []models.CartLine{}}
	require.NoError(t, repo.Insert(ctx, cart))
	require.True(t, repo.ValidID(cart.ID))
	assert.False(t, repo.ValidID("12"))

	updated, err := repo.UpdateLines(ctx, cart.ID, []models.CartLine{{ProductID: "p1", Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "p1", Quantity: 4}}, updated.Lines)

	got, err := repo.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Lines, got.Lines)

	_, err = repo.DeleteByID(ctx, cart.ID)
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, cart.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repo.UpdateLines(ctx, cart.ID, nil)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
