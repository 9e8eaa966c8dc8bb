package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryProductRepo is an in-process ProductRepository for tests. Prices are
// stored the way the NUMERIC(10,2) column stores them: rounded to two places,
// and rejected when out of range.
type MemoryProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]models.Product
	now      func() time.Time
}

func NewMemoryProductRepo() *MemoryProductRepo {
	return &MemoryProductRepo{
		products: make(map[uuid.UUID]models.Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ repositories.ProductRepository = (*MemoryProductRepo)(nil)

func (r *MemoryProductRepo) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("duplicate product id %s", product.ID)
	}
	price, err := columnPrice(product)
	if err != nil {
		return err
	}
	now := r.now()
	product.Price = price
	product.CreatedAt, product.UpdatedAt = now, now
	r.products[product.ID] = copyProduct(product)
	return nil
}

func (r *MemoryProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("product %s: %w", id, repositories.ErrProductNotFound)
	}
	return product, nil
}

func (r *MemoryProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	out := copyProduct(&product)
	return &out, nil
}

func (r *MemoryProductRepo) Update(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product %s: %w", product.ID, repositories.ErrProductNotFound)
	}
	price, err := columnPrice(product)
	if err != nil {
		return err
	}
	product.Price = price
	product.UpdatedAt = r.now()
	r.products[product.ID] = copyProduct(product)
	return nil
}

func (r *MemoryProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, repositories.ErrProductNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryProductRepo) List(ctx context.Context) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := make([]*models.Product, 0, len(r.products))
	for _, p := range r.products {
		out := copyProduct(&p)
		products = append(products, &out)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID.String() < products[j].ID.String()
		}
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
	return products, nil
}

func (r *MemoryProductRepo) ImagePaths(ctx context.Context) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make(map[string]struct{})
	for _, p := range r.products {
		if p.HasImage() {
			paths[*p.Image] = struct{}{}
		}
	}
	return paths, nil
}

// Len is the number of stored products.
func (r *MemoryProductRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.products)
}

func columnPrice(p *models.Product) (decimal.Decimal, error) {
	price := p.Price.Round(models.PriceScale)
	if price.Abs().GreaterThan(models.MaxPrice) {
		return decimal.Zero, fmt.Errorf("insert product: numeric field overflow for price %s", p.Price)
	}
	return price, nil
}

func copyProduct(p *models.Product) models.Product {
	out := *p
	if p.Image != nil {
		image := *p.Image
		out.Image = &image
	}
	return out
}
