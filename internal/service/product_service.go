package service

import (
	"context"
	"fmt"

	"catfood-store/internal/metrics"
	"catfood-store/internal/model"
	"catfood-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService. Every operation that observes or
// changes a product's stock refreshes its gauge in the metrics sink; deleting
// a product removes the gauge entry instead of zeroing it.
type productService struct {
	productRepo repository.ProductRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, m *metrics.Metrics, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		metrics:     m,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products.
func (s *productService) GetAll(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	for _, p := range products {
		s.metrics.SetProductStock(p.ID.String(), p.Stock)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	s.metrics.SetProductStock(product.ID.String(), product.Stock)

	return product, nil
}

// Create adds a new product to the catalogue.
func (s *productService) Create(ctx context.Context, req *model.ProductCreateRequest) (*model.Product, error) {
	if req == nil {
		return nil, fmt.Errorf("product request is nil")
	}
	if req.Name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if req.Price.IsNegative() {
		return nil, model.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, model.ErrInvalidStock
	}

	product := &model.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.metrics.SetProductStock(product.ID.String(), product.Stock)

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Msg("product created")

	return product, nil
}

// Update applies a partial update to a product.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req *model.ProductUpdateRequest) (*model.Product, error) {
	if req == nil {
		return nil, fmt.Errorf("product update request is nil")
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, model.ErrInvalidPrice
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, model.ErrInvalidStock
	}

	product, err := s.productRepo.Update(ctx, id, req)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	s.metrics.SetProductStock(product.ID.String(), product.Stock)

	return product, nil
}

// Delete removes a product once its stock has reached zero.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.RemoveProductStock(id.String())

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}
