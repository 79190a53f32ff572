package repository

import (
	"context"

	"catfood-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue data access.
type ProductRepository interface {
	// GetAll retrieves all products.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns (nil, nil) when
	// the product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create inserts a new product row.
	Create(ctx context.Context, product *model.Product) error

	// Update applies a partial update and returns the updated product, or
	// (nil, nil) when the product does not exist.
	Update(ctx context.Context, id uuid.UUID, upd *model.ProductUpdateRequest) (*model.Product, error)

	// Delete removes a product. It fails with model.ErrProductHasStock when
	// stock is still positive and model.ErrProductNotFound when absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// ReserveStock atomically decrements a product's stock by quantity inside
	// the given transaction, but only if enough stock remains. It returns the
	// product with its post-decrement stock and the price to snapshot, or a
	// *model.InsufficientStockError when the product is missing or short.
	ReserveStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) (*model.Product, error)
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items. Returns
	// (nil, nil, nil) when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetItems retrieves the items belonging to an order.
	GetItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)

	// MarkPaid transitions an order from pending to paid in a single
	// compare-and-set update. It fails with model.ErrOrderNotFound when the
	// order is absent and model.ErrOrderNotPending when the transition has
	// already happened; of N concurrent callers exactly one succeeds.
	MarkPaid(ctx context.Context, id uuid.UUID) (*model.Order, error)
}
