package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catfood-store/internal/metrics"
	"catfood-store/internal/model"
	"catfood-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		metrics:     m,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder places an order: inside one transaction it reserves stock for
// each requested line in caller order, snapshots the unit price at that
// instant and accumulates the total. Either all stock decrements, the order
// row and all item rows commit together, or none of them do.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResponse, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure the transaction is rolled back on any exit before commit
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order := &model.Order{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Status:    model.OrderStatusPending,
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(req.Items))
	stockLevels := make(map[uuid.UUID]int, len(req.Items))

	// The first line that cannot be reserved aborts the whole order; the
	// rollback above undoes any decrements already applied.
	for _, line := range req.Items {
		var product *model.Product
		product, err = s.productRepo.ReserveStock(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			var stockErr *model.InsufficientStockError
			if errors.As(err, &stockErr) {
				s.logger.Warn().
					Str("product_id", line.ProductID.String()).
					Int("quantity", line.Quantity).
					Msg("order rejected: insufficient stock")
			} else {
				s.logger.Error().Err(err).Str("product_id", line.ProductID.String()).Msg("failed to reserve stock")
			}
			return nil, err
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		stockLevels[product.ID] = product.Stock

		items = append(items, model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	order.TotalAmount = total

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Post-commit observations, fire and forget. The stock gauges use the
	// post-decrement values the reservations returned, which match what the
	// commit made durable.
	s.metrics.OrderCreated(total.InexactFloat64())
	for id, stock := range stockLevels {
		s.metrics.SetProductStock(id.String(), stock)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("total_amount", total.String()).
		Int("item_count", len(items)).
		Msg("order created successfully")

	return orderResponse(order, items), nil
}

// GetByID retrieves an order by its ID with all items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return orderResponse(order, items), nil
}

// PayOrder transitions an order from pending to paid.
func (s *orderService) PayOrder(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, err := s.orderRepo.MarkPaid(ctx, id)
	if err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to pay order")
		return nil, fmt.Errorf("failed to pay order: %w", err)
	}

	s.metrics.OrderPaid()

	items, err := s.orderRepo.GetItems(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order items")
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}

	s.logger.Info().Str("order_id", id.String()).Msg("order paid")

	return orderResponse(order, items), nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return fmt.Errorf("order request is nil")
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}

	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("item %d: product ID is required", i)
		}

		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}

func orderResponse(order *model.Order, items []model.OrderItem) *model.OrderResponse {
	return &model.OrderResponse{
		ID:          order.ID,
		CreatedAt:   order.CreatedAt,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		Items:       items,
	}
}
