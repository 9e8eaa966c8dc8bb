package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/caching"
	"catalog/internal/metrics"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/storage"
	"catalog/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProductNamespace is the blob-store directory holding product images.
const ProductNamespace = "products"

// DefaultCacheTTL is how long Show keeps a product in the cache.
const DefaultCacheTTL = 15 * time.Minute

// ProductService implements the products resource. Validation failures are
// returned as *validation.Error and missing products wrap
// repositories.ErrProductNotFound.
type ProductService interface {
	List(ctx context.Context) ([]*models.Product, error)
	Create(ctx context.Context, input validation.ProductInput) (*models.Product, error)
	Show(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input validation.ProductInput) (*models.Product, error)
	Destroy(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo  repositories.ProductRepository
	blobStore    storage.BlobStore
	cacheService caching.CacheService
	cacheTTL     time.Duration
	log          zerolog.Logger
}

func NewProductService(productRepo repositories.ProductRepository, blobStore storage.BlobStore, cacheService caching.CacheService, cacheTTL time.Duration, log zerolog.Logger) ProductService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &productService{
		productRepo:  productRepo,
		blobStore:    blobStore,
		cacheService: cacheService,
		cacheTTL:     cacheTTL,
		log:          log.With().Str("component", "product_service").Logger(),
	}
}

func (s *productService) List(ctx context.Context) ([]*models.Product, error) {
	products, err := s.productRepo.List(ctx)
	observe("list", err)
	return products, err
}

func (s *productService) Create(ctx context.Context, input validation.ProductInput) (product *models.Product, err error) {
	defer func() { observe("create", err) }()

	changes, err := validation.ValidateCreate(input)
	if err != nil {
		return nil, err
	}

	product = &models.Product{ID: uuid.New()}
	changes.Apply(product)

	if changes.Image != nil {
		path, err := s.blobStore.Put(ctx, ProductNamespace, changes.Image)
		if err != nil {
			return nil, fmt.Errorf("store product image: %w", err)
		}
		product.Image = &path
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if product.HasImage() {
			s.discardBlob(ctx, "create", *product.Image)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log.Info().Str("product_id", product.ID.String()).Bool("image", product.HasImage()).Msg("product created")
	return product, nil
}

func (s *productService) Show(ctx context.Context, id uuid.UUID) (product *models.Product, err error) {
	defer func() { observe("show", err) }()

	if cached, err := s.cacheService.GetProduct(ctx, id); cached != nil {
		return cached, nil
	} else if err != nil {
		// Cache errors fall through to the database.
		s.log.Warn().Err(err).Str("product_id", id.String()).Msg("product cache read failed")
	}

	product, err = s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.SetProduct(ctx, product, s.cacheTTL); cacheErr != nil {
		s.log.Warn().Err(cacheErr).Str("product_id", id.String()).Msg("product cache write failed")
	}
	return product, nil
}

// Update applies the supplied fields to an existing product. When a new
// image is attached it is stored and persisted before the old blob is
// removed, so a failed write never leaves the row pointing at a deleted file.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input validation.ProductInput) (product *models.Product, err error) {
	defer func() { observe("update", err) }()

	product, err = s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes, err := validation.ValidateUpdate(input)
	if err != nil {
		return nil, err
	}

	var oldImage, newImage string
	if changes.Image != nil {
		if product.HasImage() {
			oldImage = *product.Image
		}
		newImage, err = s.blobStore.Put(ctx, ProductNamespace, changes.Image)
		if err != nil {
			return nil, fmt.Errorf("store product image: %w", err)
		}
		product.Image = &newImage
	}
	changes.Apply(product)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if newImage != "" {
			s.discardBlob(ctx, "update", newImage)
		}
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	if oldImage != "" {
		s.discardBlob(ctx, "update", oldImage)
	}
	s.invalidate(ctx, id)

	s.log.Info().Str("product_id", id.String()).Bool("image_replaced", newImage != "").Msg("product updated")
	return product, nil
}

// Destroy removes the product's image and then the row. A failed blob
// deletion is logged and does not stop the row from being deleted.
func (s *productService) Destroy(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { observe("destroy", err) }()

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if product.HasImage() {
		s.discardBlob(ctx, "destroy", *product.Image)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, id)

	s.log.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

func (s *productService) discardBlob(ctx context.Context, operation, path string) {
	if err := s.blobStore.Delete(ctx, path); err != nil {
		metrics.BlobCleanupFailures.WithLabelValues(operation).Inc()
		s.log.Warn().Err(err).Str("operation", operation).Str("path", path).Msg("failed to delete product image")
	}
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cacheService.DeleteProduct(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("product_id", id.String()).Msg("failed to invalidate product cache")
	}
}

func observe(operation string, err error) {
	metrics.ProductOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	var verr *validation.Error
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, repositories.ErrProductNotFound):
		return "not_found"
	default:
		return "error"
	}
}
