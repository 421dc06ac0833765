package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Apurer/storefront-api/internal/app/api"
	platformobservability "github.com/Apurer/storefront-api/internal/platform/observability"
)

// delivery-sweeper marks shipments delivered once they have been shipped for longer than
// DELIVERY_DELAY. It covers deliveries whose in-process timers were lost on restart.
func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	instruments, shutdown, err := platformobservability.Init(ctx, "storefront-delivery-sweeper")
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	stores, err := api.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer stores.Close()
	if !stores.Durable {
		logger.Error("POSTGRES_DSN not set or connection failed; nothing to sweep")
		os.Exit(1)
	}

	service := api.NewSalesService(cfg, stores, nil, instruments)
	cutoff := time.Now().UTC().Add(-cfg.DeliveryDelay)
	delivered, err := service.SweepDeliveries(ctx, cutoff)
	if err != nil {
		logger.Error("delivery sweep failed", slog.Int("delivered", delivered), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("delivery sweep completed", slog.Int("delivered", delivered), slog.Time("cutoff", cutoff))
}
