package testhelpers

import (
	"context"
	"os"
	"testing"

	"catalog/internal/models"
	"catalog/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func()
}

// SetupTestDB connects to TEST_DATABASE_URL, applies the migrations and
// empties the products table. The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	m, err := database.NewMigrator(connString)
	if err != nil {
		t.Fatalf("Failed to open migrator: %v", err)
	}
	if err := m.Up(); err != nil {
		m.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	m.Close()

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	truncate := func() {
		if _, err := pool.Exec(ctx, "TRUNCATE products"); err != nil {
			t.Fatalf("Failed to truncate products: %v", err)
		}
	}
	truncate()

	return &TestDB{
		Pool: pool,
		Cleanup: func() {
			truncate()
			pool.Close()
		},
	}
}

// SetupTestProduct inserts a product with no image.
func SetupTestProduct(t *testing.T, db *TestDB) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:          uuid.New(),
		Title:       "Pen",
		Description: "Blue ink",
		Price:       decimal.RequireFromString("1.50"),
	}

	query := `
		INSERT INTO products (id, title, description, price, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(context.Background(), query,
		product.ID, product.Title, product.Description, product.Price, product.Image,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	return product
}
