package repository

import (
	"context"
	"testing"
	"time"

	"catfood-store/internal/database"
	"catfood-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL testcontainer, applies the schema and
// returns a connection pool with the decimal codec registered.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPoolFromURL(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	t.Cleanup(func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})

	return pool
}

// seedProduct inserts one product and returns it.
func seedProduct(t *testing.T, pool *pgxpool.Pool, name, price string, stock int) *model.Product {
	t.Helper()

	p := &model.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: "test product",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
	}

	_, err := pool.Exec(context.Background(),
		"INSERT INTO products (id, name, description, price, stock) VALUES ($1, $2, $3, $4, $5)",
		p.ID, p.Name, p.Description, p.Price, p.Stock,
	)
	require.NoError(t, err)

	return p
}

// productStock reads the current stock for a product straight from the table.
func productStock(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) int {
	t.Helper()

	var stock int
	err := pool.QueryRow(context.Background(),
		"SELECT stock FROM products WHERE id = $1", id).Scan(&stock)
	require.NoError(t, err)
	return stock
}
