package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ProductRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      ProductRepository
	productID uuid.UUID
	now       time.Time
	context   context.Context
}

func (suite *ProductRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewProductRepo(mock)
	suite.productID = uuid.New()
	suite.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	suite.context = context.Background()
}

func (suite *ProductRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestProductRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}

func stringPtr(s string) *string {
	return &s
}

func (suite *ProductRepoTestSuite) productRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "title", "description", "price", "image", "created_at", "updated_at"})
}

func (suite *ProductRepoTestSuite) TestCreate_Success() {
	product := &models.Product{
		ID:          suite.productID,
		Title:       "Pen",
		Description: "Blue pen",
		Price:       decimal.RequireFromString("1.50"),
		Image:       stringPtr("products/abc.png"),
	}

	suite.mock.ExpectQuery(`INSERT INTO products \(id, title, description, price, image, created_at, updated_at\)`).
		WithArgs(product.ID, product.Title, product.Description, product.Price, product.Image).
		WillReturnRows(pgxmock.NewRows([]string{"price", "created_at", "updated_at"}).AddRow(decimal.RequireFromString("1.50"), suite.now, suite.now))

	err := suite.repo.Create(suite.context, product)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.now, product.CreatedAt)
	assert.Equal(suite.T(), suite.now, product.UpdatedAt)
}

func (suite *ProductRepoTestSuite) TestCreate_UsesStoredPrice() {
	product := &models.Product{
		ID:          suite.productID,
		Title:       "Pen",
		Description: "Blue pen",
		Price:       decimal.RequireFromString("1.5"),
	}

	suite.mock.ExpectQuery(`RETURNING price, created_at, updated_at`).
		WithArgs(product.ID, product.Title, product.Description, product.Price, product.Image).
		WillReturnRows(pgxmock.NewRows([]string{"price", "created_at", "updated_at"}).AddRow(decimal.RequireFromString("1.50"), suite.now, suite.now))

	require.NoError(suite.T(), suite.repo.Create(suite.context, product))
	assert.Equal(suite.T(), "1.50", product.Price.String())
}

func (suite *ProductRepoTestSuite) TestCreate_DatabaseError() {
	product := &models.Product{ID: suite.productID, Title: "Pen", Description: "Blue pen", Price: decimal.NewFromInt(1)}

	suite.mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(product.ID, product.Title, product.Description, product.Price, product.Image).
		WillReturnError(errors.New("database connection failed"))

	err := suite.repo.Create(suite.context, product)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}

func (suite *ProductRepoTestSuite) TestGetByID_Found() {
	price := decimal.RequireFromString("1.50")
	suite.mock.ExpectQuery(`SELECT id, title, description, price, image, created_at, updated_at FROM products WHERE id = \$1`).
		WithArgs(suite.productID).
		WillReturnRows(suite.productRows().AddRow(suite.productID, "Pen", "Blue pen", price, (*string)(nil), suite.now, suite.now))

	product, err := suite.repo.GetByID(suite.context, suite.productID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.productID, product.ID)
	assert.Equal(suite.T(), "Pen", product.Title)
	assert.True(suite.T(), price.Equal(product.Price))
	assert.Nil(suite.T(), product.Image)
}

func (suite *ProductRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
		WithArgs(suite.productID).
		WillReturnRows(suite.productRows())

	product, err := suite.repo.GetByID(suite.context, suite.productID)
	assert.Nil(suite.T(), product)
	assert.ErrorIs(suite.T(), err, ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestFindByID_AbsentIsNotAnError() {
	suite.mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
		WithArgs(suite.productID).
		WillReturnRows(suite.productRows())

	product, err := suite.repo.FindByID(suite.context, suite.productID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), product)
}

func (suite *ProductRepoTestSuite) TestUpdate_Success() {
	later := suite.now.Add(time.Minute)
	product := &models.Product{
		ID:          suite.productID,
		Title:       "Pen",
		Description: "Blue pen",
		Price:       decimal.RequireFromString("2.00"),
		Image:       stringPtr("products/new.png"),
	}

	suite.mock.ExpectQuery(`UPDATE products\s+SET title = \$1, description = \$2, price = \$3, image = \$4, updated_at = NOW\(\)\s+WHERE id = \$5`).
		WithArgs(product.Title, product.Description, product.Price, product.Image, product.ID).
		WillReturnRows(pgxmock.NewRows([]string{"price", "updated_at"}).AddRow(decimal.RequireFromString("2.00"), later))

	err := suite.repo.Update(suite.context, product)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), later, product.UpdatedAt)
}

func (suite *ProductRepoTestSuite) TestUpdate_MissingRow() {
	product := &models.Product{ID: suite.productID, Title: "Pen", Description: "Blue pen", Price: decimal.NewFromInt(2)}

	suite.mock.ExpectQuery(`UPDATE products`).
		WithArgs(product.Title, product.Description, product.Price, product.Image, product.ID).
		WillReturnRows(pgxmock.NewRows([]string{"price", "updated_at"}))

	err := suite.repo.Update(suite.context, product)
	assert.ErrorIs(suite.T(), err, ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestDelete() {
	suite.mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(suite.productID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(suite.T(), suite.repo.Delete(suite.context, suite.productID))
}

func (suite *ProductRepoTestSuite) TestDelete_NoRows() {
	suite.mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(suite.productID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(suite.T(), suite.repo.Delete(suite.context, suite.productID), ErrProductNotFound)
}

func (suite *ProductRepoTestSuite) TestList() {
	id2 := uuid.New()
	rows := suite.productRows().
		AddRow(suite.productID, "Pen", "Blue pen", decimal.RequireFromString("1.50"), (*string)(nil), suite.now, suite.now).
		AddRow(id2, "Mug", "Coffee mug", decimal.RequireFromString("7.25"), stringPtr("products/mug.jpg"), suite.now, suite.now)

	suite.mock.ExpectQuery(`SELECT .* FROM products ORDER BY created_at, id`).WillReturnRows(rows)

	products, err := suite.repo.List(suite.context)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), products, 2)
	assert.Equal(suite.T(), "Pen", products[0].Title)
	assert.Equal(suite.T(), id2, products[1].ID)
	assert.Equal(suite.T(), "products/mug.jpg", *products[1].Image)
}

func (suite *ProductRepoTestSuite) TestList_Empty() {
	suite.mock.ExpectQuery(`SELECT .* FROM products ORDER BY created_at, id`).WillReturnRows(suite.productRows())

	products, err := suite.repo.List(suite.context)
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), products)
	assert.Empty(suite.T(), products)
}

func (suite *ProductRepoTestSuite) TestImagePaths() {
	suite.mock.ExpectQuery(`SELECT image FROM products WHERE image IS NOT NULL`).
		WillReturnRows(pgxmock.NewRows([]string{"image"}).AddRow("products/a.png").AddRow("products/b.jpg"))

	paths, err := suite.repo.ImagePaths(suite.context)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), paths, 2)
	assert.Contains(suite.T(), paths, "products/a.png")
}
