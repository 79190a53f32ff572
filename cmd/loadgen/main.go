package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catfood-store/internal/config"
	"catfood-store/internal/loadgen"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := loadgen.DefaultConfig()

	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the store API")
	flag.IntVar(&cfg.Users, "users", cfg.Users, "number of concurrent synthetic users")
	flag.IntVar(&cfg.DesiredProducts, "products", cfg.DesiredProducts, "minimum number of products to seed")
	flag.IntVar(&cfg.SeedStock, "seed-stock", cfg.SeedStock, "stock level for seeded products")
	duration := flag.Duration("duration", 0, "how long to run (0 = until interrupted)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger := config.NewLogger(config.LoggerConfig{Level: *logLevel, Format: "console"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	logger.Info().
		Str("base_url", cfg.BaseURL).
		Int("users", cfg.Users).
		Dur("duration", *duration).
		Msg("starting load generator")

	start := time.Now()
	gen := loadgen.New(cfg, logger)
	if err := gen.Run(ctx); err != nil {
		return err
	}

	orders, failures := gen.Stats()
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int64("orders", orders).
		Int64("failures", failures).
		Msg("load generator finished")

	return nil
}
