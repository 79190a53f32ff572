package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"catfood-store/internal/database"
	"catfood-store/internal/handler"
	"catfood-store/internal/metrics"
	"catfood-store/internal/repository"
	"catfood-store/internal/router"
	"catfood-store/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestApp is a fully wired application instance backed by a PostgreSQL
// testcontainer, exposed through an httptest server.
type TestApp struct {
	Server  *httptest.Server
	Pool    *pgxpool.Pool
	Metrics *metrics.Metrics
}

// SetupTestApp starts the database container, applies the schema and wires
// the complete HTTP stack the same way cmd/api does.
func SetupTestApp(t *testing.T) *TestApp {
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
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.NewPoolFromURL(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	logger := zerolog.Nop()
	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	m := metrics.New()

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	productService := service.NewProductService(productRepo, m, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, m, logger)

	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)

	srv := httptest.NewServer(router.New(productHandler, orderHandler, m, logger))

	t.Cleanup(func() {
		srv.Close()
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestApp{
		Server:  srv,
		Pool:    pool,
		Metrics: m,
	}
}
