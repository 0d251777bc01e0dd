package repositories_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/mongodb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// setupMongo connects to MONGO_TEST_URI and returns a throwaway database.
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	name := fmt.Sprintf("storefront_test_%d", time.Now().UnixNano())
	client, err := mongodb.Connect(mongodb.Config{URI: uri, DBName: name})
	require.NoError(t, err)

	db := client.Database(name)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = mongodb.Disconnect(client)
	})
	return db
}

func TestMongoProductRepository_CRUD(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()
	repo, err := repositories.NewMongoProductRepository(ctx, db)
	require.NoError(t, err)

	p := newProduct("A1", "books", 10, 2)
	require.NoError(t, repo.Insert(ctx, p))
	assert.True(t, repo.ValidID(p.ID))
	assert.False(t, repo.ValidID("1"))

	err = repo.Insert(ctx, newProduct("A1", "toys", 1, 1))
	assert.ErrorIs(t, err, repositories.ErrDuplicateCode)

	title := "Renamed"
	updated, err := repo.UpdateByID(ctx, p.ID, models.ProductPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "A1", updated.Code)

	require.NoError(t, repo.Insert(ctx, newProduct("B1", "books", 5, 0)))
	n, err := repo.Count(ctx, repositories.ProductFilter{Available: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	asc, err := repo.FindAll(ctx, repositories.ProductFilter{}, repositories.SortPriceAsc, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "A1"}, codes(asc))

	removed, err := repo.DeleteByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, removed.ID)
	_, err = repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMongoCartRepository_Lifecycle(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()
	repo := repositories.NewMongoCartRepository(db)

	cart := &models.Cart{}
	require.NoError(t, repo.Insert(ctx, cart))
	require.True(t, repo.ValidID(cart.ID))

	updated, err := repo.UpdateLines(ctx, cart.ID, []models.CartLine{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "p1", Quantity: 2}}, updated.Lines)

	_, err = repo.DeleteByID(ctx, cart.ID)
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, cart.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
