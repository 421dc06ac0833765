package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"

	storefrontserver "github.com/Apurer/storefront-api/go"

	"github.com/Apurer/storefront-api/internal/domains/access/adapters/http/auth"
	accessapp "github.com/Apurer/storefront-api/internal/domains/access/application"
	platformobservability "github.com/Apurer/storefront-api/internal/platform/observability"
)

const shutdownTimeout = 10 * time.Second

// Run boots the storefront HTTP API with observability, stores, and workflows wired.
// It returns once ctx is cancelled and in-flight requests have drained.
func Run(ctx context.Context) error {
	const serviceName = "storefront-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()
	if !stores.Durable {
		logger.Warn("running with in-memory stores; data is lost on restart")
	}

	deps := BuildSalesDeps(ctx, cfg, serviceName, logger)
	defer deps.Close()

	sales := NewSalesRuntime(cfg, stores, deps, instruments, func() (client.Client, error) {
		return DialTemporal(cfg, instruments, "temporal-client")
	})
	defer sales.Close()

	accessService := accessapp.NewService(stores.Roles, accessapp.WithPolicy(cfg.AccessPolicy))
	secret, err := jwtSecret(cfg, logger)
	if err != nil {
		return err
	}
	authenticator, err := auth.NewAuthenticator(secret, accessService, auth.WithLogger(logger))
	if err != nil {
		return err
	}

	handlers := storefrontserver.ApiHandleFunctions{
		OrdersAPI:    storefrontserver.NewOrdersAPI(sales.Service, sales.Placement),
		InventoryAPI: storefrontserver.NewInventoryAPI(NewInventoryService(stores, instruments), cfg.LowStockThreshold),
		RolesAPI:     storefrontserver.NewRolesAPI(accessService),
		Guard:        authenticator,
	}

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	storefrontserver.NewRouterWithGinEngine(router, handlers)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Storefront API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Storefront API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down Storefront API")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
