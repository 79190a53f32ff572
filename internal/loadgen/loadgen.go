package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"catfood-store/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Config holds load generator settings.
type Config struct {
	BaseURL         string
	Users           int
	MinWait         time.Duration
	MaxWait         time.Duration
	DesiredProducts int
	SeedStock       int
}

// DefaultConfig returns the default traffic shape: each user waits 1-2s
// between actions, lists products at weight 1 and places single-item orders
// at weight 3.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8080",
		Users:           5,
		MinWait:         1 * time.Second,
		MaxWait:         2 * time.Second,
		DesiredProducts: 20,
		SeedStock:       5000,
	}
}

// seedPrice is the price of every synthetic product.
var seedPrice = decimal.NewFromFloat(5.99)

// Generator drives randomized traffic against the store API.
type Generator struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger

	orders   atomic.Int64
	failures atomic.Int64
}

// New creates a load generator.
func New(cfg Config, logger zerolog.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With().Str("component", "loadgen").Logger(),
	}
}

// Run seeds the catalogue and then drives concurrent users until the context
// is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	productIDs, err := g.ensureProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if len(productIDs) == 0 {
		return fmt.Errorf("no products available to order")
	}

	g.logger.Info().
		Int("users", g.cfg.Users).
		Int("products", len(productIDs)).
		Msg("starting traffic")

	var wg sync.WaitGroup
	for i := 0; i < g.cfg.Users; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.user(ctx, productIDs)
		}()
	}
	wg.Wait()

	orders, failures := g.Stats()
	g.logger.Info().
		Int64("orders", orders).
		Int64("failures", failures).
		Msg("traffic stopped")

	return nil
}

// Stats returns the number of successfully placed orders and the number of
// failed requests so far.
func (g *Generator) Stats() (orders, failures int64) {
	return g.orders.Load(), g.failures.Load()
}

// ensureProducts makes sure at least DesiredProducts exist, seeding synthetic
// ones when the catalogue is short, and returns all known product IDs.
func (g *Generator) ensureProducts(ctx context.Context) ([]uuid.UUID, error) {
	products, err := g.listProducts(ctx)
	if err != nil {
		return nil, err
	}

	for i := len(products) + 1; i <= g.cfg.DesiredProducts; i++ {
		req := model.ProductCreateRequest{
			Name:        fmt.Sprintf("Fish Feast #%d", i),
			Description: "Seeded by loadgen",
			Price:       seedPrice,
			Stock:       g.cfg.SeedStock,
		}
		if err := g.createProduct(ctx, &req); err != nil {
			g.logger.Warn().Err(err).Int("index", i).Msg("failed to create seed product")
		}
	}

	if len(products) < g.cfg.DesiredProducts {
		if products, err = g.listProducts(ctx); err != nil {
			return nil, err
		}
	}

	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// user runs one synthetic user loop until the context is cancelled.
func (g *Generator) user(ctx context.Context, productIDs []uuid.UUID) {
	for {
		wait := g.cfg.MinWait + rand.N(g.cfg.MaxWait-g.cfg.MinWait+1)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		// Weight 1 list, weight 3 order.
		if rand.IntN(4) == 0 {
			if _, err := g.listProducts(ctx); err != nil && ctx.Err() == nil {
				g.failures.Add(1)
				g.logger.Warn().Err(err).Msg("list products failed")
			}
			continue
		}

		pid := productIDs[rand.IntN(len(productIDs))]
		g.placeOrder(ctx, pid)
	}
}

// placeOrder posts a single-item order; any non-201 response is a failure.
func (g *Generator) placeOrder(ctx context.Context, productID uuid.UUID) {
	body, err := json.Marshal(model.OrderRequest{
		Items: []model.OrderItemRequest{{ProductID: productID, Quantity: 1}},
	})
	if err != nil {
		g.failures.Add(1)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		g.failures.Add(1)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			g.failures.Add(1)
			g.logger.Warn().Err(err).Msg("place order failed")
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.failures.Add(1)
		g.logger.Warn().
			Int("status", resp.StatusCode).
			Str("product_id", productID.String()).
			Str("body", string(respBody)).
			Msg("order rejected")
		return
	}

	g.orders.Add(1)
}

// listProducts fetches the current catalogue.
func (g *Generator) listProducts(ctx context.Context) ([]model.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/products", nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d listing products", resp.StatusCode)
	}

	var products []model.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// createProduct posts one synthetic product.
func (g *Generator) createProduct(ctx context.Context, p *model.ProductCreateRequest) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/products", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d creating product", resp.StatusCode)
	}
	return nil
}
