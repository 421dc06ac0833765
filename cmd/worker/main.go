package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/storefront-api/internal/app/api"
	salesworkflowadapters "github.com/Apurer/storefront-api/internal/domains/sales/adapters/workflows"
	platformobservability "github.com/Apurer/storefront-api/internal/platform/observability"
	salesactivities "github.com/Apurer/storefront-api/internal/platform/temporal/activities/sales"
	salesworkflows "github.com/Apurer/storefront-api/internal/platform/temporal/workflows/sales"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	const serviceName = "storefront-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg.TemporalDisabled = false

	stores, err := api.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer stores.Close()
	if !stores.Durable {
		logger.Warn("worker is using in-memory stores; orders placed here are invisible to the API")
	}

	temporalClient, err := api.DialTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	deps := api.BuildSalesDeps(ctx, cfg, serviceName, logger)
	defer deps.Close()
	deps.Scheduler = salesworkflowadapters.NewTemporalDeliveryScheduler(temporalClient)
	salesService := api.NewSalesService(cfg, stores, deps, instruments)
	activities := salesactivities.NewActivities(salesService)

	w := worker.New(temporalClient, salesworkflows.OrderPlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(salesworkflows.OrderPlacementWorkflow, workflow.RegisterOptions{Name: salesworkflows.OrderPlacementWorkflowName})
	w.RegisterWorkflowWithOptions(salesworkflows.ShipmentDeliveryWorkflow, workflow.RegisterOptions{Name: salesworkflows.ShipmentDeliveryWorkflowName})
	w.RegisterActivityWithOptions(activities.PlaceOrder, activity.RegisterOptions{Name: salesactivities.PlaceOrderActivityName})
	w.RegisterActivityWithOptions(activities.MarkDelivered, activity.RegisterOptions{Name: salesactivities.MarkDeliveredActivityName})

	logger.Info("worker listening", slog.String("taskQueue", salesworkflows.OrderPlacementTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
