package api

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"

	accessmemory "github.com/Apurer/storefront-api/internal/domains/access/adapters/memory"
	accesspostgres "github.com/Apurer/storefront-api/internal/domains/access/adapters/persistence/postgres"
	accessports "github.com/Apurer/storefront-api/internal/domains/access/ports"
	invmemory "github.com/Apurer/storefront-api/internal/domains/inventory/adapters/memory"
	invobs "github.com/Apurer/storefront-api/internal/domains/inventory/adapters/observability"
	invpostgres "github.com/Apurer/storefront-api/internal/domains/inventory/adapters/persistence/postgres"
	invapp "github.com/Apurer/storefront-api/internal/domains/inventory/application"
	invports "github.com/Apurer/storefront-api/internal/domains/inventory/ports"
	salescache "github.com/Apurer/storefront-api/internal/domains/sales/adapters/cache"
	salesevents "github.com/Apurer/storefront-api/internal/domains/sales/adapters/events"
	salesmemory "github.com/Apurer/storefront-api/internal/domains/sales/adapters/memory"
	salesobs "github.com/Apurer/storefront-api/internal/domains/sales/adapters/observability"
	salespostgres "github.com/Apurer/storefront-api/internal/domains/sales/adapters/persistence/postgres"
	salesworkflows "github.com/Apurer/storefront-api/internal/domains/sales/adapters/workflows"
	salesapp "github.com/Apurer/storefront-api/internal/domains/sales/application"
	salesports "github.com/Apurer/storefront-api/internal/domains/sales/ports"
	platformkafka "github.com/Apurer/storefront-api/internal/platform/kafka"
	"github.com/Apurer/storefront-api/internal/platform/migrations"
	platformobservability "github.com/Apurer/storefront-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/storefront-api/internal/platform/postgres"
	platformredis "github.com/Apurer/storefront-api/internal/platform/redis"
	platformtemporal "github.com/Apurer/storefront-api/internal/platform/temporal"
)

// Stores bundles the persistence adapters of every bounded context.
// Postgres backs all of them when available; otherwise they share in-memory state.
type Stores struct {
	Inventory invports.Repository
	Sales     salesports.Store
	Roles     accessports.RoleRepository
	Durable   bool

	close func()
}

func (s *Stores) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// OpenStores connects to PostgreSQL, migrates the schema and seeds default roles.
// Without a reachable database it falls back to in-memory adapters.
func OpenStores(ctx context.Context, cfg Config, logger *slog.Logger) (*Stores, error) {
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		inventory := invmemory.NewRepository()
		return &Stores{
			Inventory: inventory,
			Sales:     salesmemory.NewStore(inventory),
			Roles:     accessmemory.NewRepository(),
			close:     cleanup,
		}, nil
	}
	if err := migrations.Run(db.WithContext(ctx)); err != nil {
		cleanup()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	roles := accesspostgres.NewRepository(db)
	if err := roles.SeedDefaults(ctx, time.Now()); err != nil {
		cleanup()
		return nil, fmt.Errorf("seed roles: %w", err)
	}
	return &Stores{
		Inventory: invpostgres.NewRepository(db, invpostgres.WithStatementTimeout(cfg.DBStatementTimeout)),
		Sales:     salespostgres.NewStore(db, salespostgres.WithStatementTimeout(cfg.DBStatementTimeout)),
		Roles:     roles,
		Durable:   true,
		close:     cleanup,
	}, nil
}

// SalesDeps are the optional sales collaborators: cache, event publisher and delivery scheduler.
type SalesDeps struct {
	Cache     salesports.OrderCache
	Events    salesports.EventPublisher
	Scheduler salesports.DeliveryScheduler

	closers []func()
}

func (d *SalesDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// BuildSalesDeps connects Redis and Kafka when configured. The scheduler is left to the caller.
func BuildSalesDeps(ctx context.Context, cfg Config, producer string, logger *slog.Logger) *SalesDeps {
	deps := &SalesDeps{}

	redisClient, closeRedis := platformredis.ConnectOptional(ctx, cfg.RedisAddr, logger)
	deps.closers = append(deps.closers, closeRedis)
	if redisClient != nil {
		deps.Cache = salescache.NewOrderCache(redisClient, cfg.OrderCacheTTL)
	}

	if cfg.KafkaEnabled() {
		writer := platformkafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		deps.closers = append(deps.closers, func() {
			if err := writer.Close(); err != nil {
				logger.Warn("failed to close kafka writer", slog.String("error", err.Error()))
			}
		})
		deps.Events = salesevents.NewPublisher(writer, producer)
		logger.Info("sales events enabled", slog.String("topic", cfg.KafkaTopic))
	} else {
		logger.Warn("KAFKA_BROKERS not set, sales events disabled")
	}
	return deps
}

// NewSalesService builds the core sales service wrapped with observability.
func NewSalesService(cfg Config, stores *Stores, deps *SalesDeps, instruments *platformobservability.Instruments) salesports.Service {
	logger := instruments.Logger
	opts := []salesapp.Option{
		salesapp.WithLogger(logger),
		salesapp.WithDeliveryDelay(cfg.DeliveryDelay),
	}
	if deps != nil {
		opts = append(opts,
			salesapp.WithOrderCache(deps.Cache),
			salesapp.WithEventPublisher(deps.Events),
			salesapp.WithDeliveryScheduler(deps.Scheduler),
		)
	}
	return salesobs.New(
		salesapp.NewService(stores.Sales, opts...),
		salesobs.WithLogger(logger),
		salesobs.WithTracer(instruments.Tracer("internal.sales.application")),
		salesobs.WithMeter(instruments.Meter("internal.sales.application")),
	)
}

// SalesRuntime is the sales service together with how orders are placed and deliveries scheduled.
type SalesRuntime struct {
	Service   salesports.Service
	Placement salesports.PlacementOrchestrator
	// Temporal is true when placement and delivery run as Temporal workflows.
	Temporal bool

	closers []func()
}

func (r *SalesRuntime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// NewSalesRuntime places orders through Temporal only when the stores are durable,
// since the worker opens its own stores and in-memory state is not shared across processes.
// Otherwise, or when dial fails, orders are placed inline and deliveries run on in-process timers.
func NewSalesRuntime(cfg Config, stores *Stores, deps *SalesDeps, instruments *platformobservability.Instruments, dial func() (client.Client, error)) *SalesRuntime {
	logger := instruments.Logger
	runtime := &SalesRuntime{}

	if stores.Durable && dial != nil {
		temporalClient, err := dial()
		if err == nil {
			runtime.closers = append(runtime.closers, temporalClient.Close)
			deps.Scheduler = salesworkflows.NewTemporalDeliveryScheduler(temporalClient)
			runtime.Service = NewSalesService(cfg, stores, deps, instruments)
			runtime.Placement = salesworkflows.NewTemporalPlacement(temporalClient)
			runtime.Temporal = true
			logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
			return runtime
		}
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
	} else if !stores.Durable {
		logger.Warn("in-memory stores are not shared with the Temporal worker, placing orders inline")
	}

	inline := salesworkflows.NewInlineDeliveryScheduler(func(ctx context.Context, orderID string) error {
		_, err := runtime.Service.MarkDelivered(ctx, orderID)
		return err
	}, logger)
	runtime.closers = append(runtime.closers, inline.Stop)
	deps.Scheduler = inline
	runtime.Service = NewSalesService(cfg, stores, deps, instruments)
	runtime.Placement = salesworkflows.NewInlinePlacement(runtime.Service)
	return runtime
}

// NewInventoryService builds the inventory service wrapped with observability.
func NewInventoryService(stores *Stores, instruments *platformobservability.Instruments) invports.Service {
	return invobs.New(
		invapp.NewService(stores.Inventory),
		invobs.WithLogger(instruments.Logger),
		invobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		invobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)
}

// DialTemporal connects to Temporal using cfg.
func DialTemporal(cfg Config, instruments *platformobservability.Instruments, component string) (client.Client, error) {
	return platformtemporal.Dial(platformtemporal.ClientConfig{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Disabled:  cfg.TemporalDisabled,
	}, instruments.Tracer(component), instruments.Logger)
}

// jwtSecret returns the configured secret, or a random one for local runs.
func jwtSecret(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	logger.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	return secret, nil
}
