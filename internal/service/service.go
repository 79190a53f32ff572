package service

import (
	"context"

	"catfood-store/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations on the product catalogue.
type ProductService interface {
	// GetAll retrieves all products.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create adds a new product to the catalogue.
	Create(ctx context.Context, req *model.ProductCreateRequest) (*model.Product, error)

	// Update applies a partial update to a product.
	Update(ctx context.Context, id uuid.UUID, req *model.ProductUpdateRequest) (*model.Product, error)

	// Delete removes a product; only allowed once its stock is zero.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderService defines operations for order placement and payment.
type OrderService interface {
	// CreateOrder atomically reserves stock for every requested line,
	// snapshots unit prices and persists the order with its items.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResponse, error)

	// GetByID retrieves an order by its ID with all items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// PayOrder transitions an order from pending to paid exactly once.
	PayOrder(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)
}
