package testhelpers

import (
	"context"
	"testing"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string {
	return &s
}

// testProductRepository exercises the behaviour every ProductRepository must
// share. repo must start empty.
func testProductRepository(t *testing.T, repo repositories.ProductRepository) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		product := &models.Product{
			ID:          uuid.New(),
			Title:       "Notebook",
			Description: "A5 ruled",
			Price:       decimal.RequireFromString("3.25"),
			Image:       stringPtr("products/notebook.png"),
		}

		err := repo.Create(ctx, product)
		require.NoError(t, err)
		assert.False(t, product.CreatedAt.IsZero())

		created, err := repo.GetByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.Title, created.Title)
		assert.True(t, product.Price.Equal(created.Price))
		require.NotNil(t, created.Image)
		assert.Equal(t, "products/notebook.png", *created.Image)
	})

	t.Run("GetByID not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repositories.ErrProductNotFound)

		product, err := repo.FindByID(ctx, uuid.New())
		assert.NoError(t, err)
		assert.Nil(t, product)
	})

	t.Run("Update", func(t *testing.T) {
		product := &models.Product{
			ID:          uuid.New(),
			Title:       "Pen",
			Description: "Blue ink",
			Price:       decimal.RequireFromString("1.50"),
		}
		require.NoError(t, repo.Create(ctx, product))

		product.Price = decimal.RequireFromString("2.00")
		require.NoError(t, repo.Update(ctx, product))

		updated, err := repo.GetByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pen", updated.Title)
		assert.True(t, decimal.NewFromInt(2).Equal(updated.Price))
		assert.Nil(t, updated.Image)

		missing := *product
		missing.ID = uuid.New()
		assert.ErrorIs(t, repo.Update(ctx, &missing), repositories.ErrProductNotFound)
	})

	t.Run("List and ImagePaths", func(t *testing.T) {
		products, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 2)

		paths, err := repo.ImagePaths(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"products/notebook.png": {}}, paths)
	})

	t.Run("Delete", func(t *testing.T) {
		products, err := repo.List(ctx)
		require.NoError(t, err)
		for _, p := range products {
			require.NoError(t, repo.Delete(ctx, p.ID))
		}

		assert.ErrorIs(t, repo.Delete(ctx, products[0].ID), repositories.ErrProductNotFound)

		products, err = repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})
}

func TestMemoryProductRepo(t *testing.T) {
	testProductRepository(t, NewMemoryProductRepo())
}

func TestMemoryProductRepo_PriceColumn(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepo()

	product := &models.Product{ID: uuid.New(), Title: "Pen", Description: "Blue ink", Price: decimal.RequireFromString("1.999")}
	require.NoError(t, repo.Create(ctx, product))
	assert.Equal(t, "2", product.Price.String())

	stored, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(stored.Price))

	overflow := &models.Product{ID: uuid.New(), Title: "Pen", Description: "Blue ink", Price: decimal.RequireFromString("123456789")}
	assert.Error(t, repo.Create(ctx, overflow))
	assert.Equal(t, 1, repo.Len())
}

func TestProductRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup()

	testProductRepository(t, repositories.NewProductRepo(testDB.Pool))

	product := SetupTestProduct(t, testDB)
	found, err := repositories.NewProductRepo(testDB.Pool).FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Pen", found.Title)
}
