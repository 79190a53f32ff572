package repository

import (
	"context"
	"sync"
	"testing"

	"catfood-store/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	logger := zerolog.Nop()
	repo := NewProductRepository(pool, logger)
	ctx := context.Background()

	t.Run("Create and GetByID", func(t *testing.T) {
		p := &model.Product{
			ID:          uuid.New(),
			Name:        "Fish Feast",
			Description: "Premium cat food",
			Price:       decimal.RequireFromString("5.99"),
			Stock:       10,
		}

		require.NoError(t, repo.Create(ctx, p))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "Fish Feast", got.Name)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("5.99")), "got price %s", got.Price)
		assert.Equal(t, 10, got.Stock)
	})

	t.Run("GetByID missing product returns nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetAll sorted by name", func(t *testing.T) {
		seedProduct(t, pool, "Anchovy Mix", "3.49", 5)

		products, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(products), 2)
		assert.Equal(t, "Anchovy Mix", products[0].Name)
	})

	t.Run("Partial update keeps omitted fields", func(t *testing.T) {
		p := seedProduct(t, pool, "Tuna Bites", "7.49", 20)

		newStock := 15
		got, err := repo.Update(ctx, p.ID, &model.ProductUpdateRequest{Stock: &newStock})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 15, got.Stock)
		assert.Equal(t, "Tuna Bites", got.Name)
		assert.True(t, got.Price.Equal(p.Price))
	})

	t.Run("Update missing product returns nil", func(t *testing.T) {
		name := "Ghost"
		got, err := repo.Update(ctx, uuid.New(), &model.ProductUpdateRequest{Name: &name})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Delete requires zero stock", func(t *testing.T) {
		p := seedProduct(t, pool, "Salmon Strips", "9.99", 3)

		err := repo.Delete(ctx, p.ID)
		assert.Equal(t, model.ErrProductHasStock, err)

		zero := 0
		_, err = repo.Update(ctx, p.ID, &model.ProductUpdateRequest{Stock: &zero})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, p.ID))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Delete missing product", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New())
		assert.Equal(t, model.ErrProductNotFound, err)
	})
}

func TestProductRepository_ReserveStock(t *testing.T) {
	pool := setupTestDB(t)
	logger := zerolog.Nop()
	repo := NewProductRepository(pool, logger)
	ctx := context.Background()

	t.Run("Decrements and returns updated row", func(t *testing.T) {
		p := seedProduct(t, pool, "Fish Feast", "5.99", 10)

		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		got, err := repo.ReserveStock(ctx, tx, p.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Stock)
		assert.True(t, got.Price.Equal(p.Price))

		require.NoError(t, tx.Commit(ctx))
		assert.Equal(t, 7, productStock(t, pool, p.ID))
	})

	t.Run("Refuses short stock", func(t *testing.T) {
		p := seedProduct(t, pool, "Tuna Bites", "7.49", 2)

		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		_, err = repo.ReserveStock(ctx, tx, p.ID, 3)

		var stockErr *model.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, p.ID, stockErr.ProductID)
	})

	t.Run("Refuses unknown product", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		missing := uuid.New()
		_, err = repo.ReserveStock(ctx, tx, missing, 1)

		var stockErr *model.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, missing, stockErr.ProductID)
	})

	t.Run("Rollback restores stock", func(t *testing.T) {
		p := seedProduct(t, pool, "Salmon Strips", "9.99", 10)

		tx, err := pool.Begin(ctx)
		require.NoError(t, err)

		_, err = repo.ReserveStock(ctx, tx, p.ID, 4)
		require.NoError(t, err)

		require.NoError(t, tx.Rollback(ctx))
		assert.Equal(t, 10, productStock(t, pool, p.ID))
	})
}

// Concurrent reservations against the same product must never drive stock
// negative: with 10 units and twenty workers each wanting 6, exactly one can
// win.
func TestProductRepository_ReserveStock_Concurrent(t *testing.T) {
	pool := setupTestDB(t)
	logger := zerolog.Nop()
	repo := NewProductRepository(pool, logger)
	ctx := context.Background()

	p := seedProduct(t, pool, "Fish Feast", "5.99", 10)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			tx, err := pool.Begin(ctx)
			if err != nil {
				return
			}
			defer tx.Rollback(ctx)

			if _, err := repo.ReserveStock(ctx, tx, p.ID, 6); err != nil {
				return
			}
			if err := tx.Commit(ctx); err != nil {
				return
			}

			mu.Lock()
			successes++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 4, productStock(t, pool, p.ID))
}
