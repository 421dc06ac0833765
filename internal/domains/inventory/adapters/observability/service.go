package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	invdomain "github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	invports "github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

const tracerName = "github.com/Apurer/storefront-api/internal/domains/inventory/adapters/observability/service"

// Service decorates the inventory service with tracing, logging, and metrics.
type Service struct {
	inner   invports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core inventory service.
func New(inner invports.Service, opts ...Option) invports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateVariant(ctx context.Context, input invports.CreateVariantInput) (*invdomain.Variant, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.CreateVariant",
		trace.WithAttributes(attribute.String("variant.sku", input.SKU), attribute.String("variant.product_id", input.ProductID)))
	defer span.End()

	s.logInfo(ctx, "registering variant", slog.String("variant.sku", input.SKU))
	result, err := s.inner.CreateVariant(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register variant", slog.String("variant.sku", input.SKU))
	}
	s.logInfo(ctx, "variant registered", slog.String("variant.id", result.ID), slog.Int("variant.stock", result.Stock))
	return result, nil
}

func (s *Service) GetVariant(ctx context.Context, id string) (*invdomain.Variant, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetVariant", trace.WithAttributes(attribute.String("variant.id", id)))
	defer span.End()

	result, err := s.inner.GetVariant(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load variant", slog.String("variant.id", id))
	}
	return result, nil
}

func (s *Service) ListInventory(ctx context.Context) ([]*invdomain.Variant, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListInventory")
	defer span.End()

	result, err := s.inner.ListInventory(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list inventory")
	}
	span.SetAttributes(attribute.Int("inventory.variant.count", len(result)))
	return result, nil
}

func (s *Service) LowStock(ctx context.Context, threshold int) ([]*invdomain.Variant, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.LowStock", trace.WithAttributes(attribute.Int("inventory.threshold", threshold)))
	defer span.End()

	result, err := s.inner.LowStock(ctx, threshold)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to compute low stock report", slog.Int("threshold", threshold))
	}
	span.SetAttributes(attribute.Int("inventory.low_stock.count", len(result)))
	if len(result) > 0 {
		s.logInfo(ctx, "variants at or below threshold", slog.Int("threshold", threshold), slog.Int("count", len(result)))
	}
	return result, nil
}

func (s *Service) Restock(ctx context.Context, id string, quantity int) (*invdomain.Variant, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Restock",
		trace.WithAttributes(attribute.String("variant.id", id), attribute.Int("restock.quantity", quantity)))
	defer span.End()

	s.logInfo(ctx, "restocking variant", slog.String("variant.id", id), slog.Int("quantity", quantity))
	result, err := s.inner.Restock(ctx, id, quantity)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to restock variant", slog.String("variant.id", id))
	}
	s.metrics.recordRestock(ctx, quantity)
	s.logInfo(ctx, "variant restocked", slog.String("variant.id", id), slog.Int("variant.stock", result.Stock))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	restocks      metric.Int64Counter
	unitsRestored metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	restocks, _ := m.Int64Counter("inventory.restocks", metric.WithDescription("Number of restock operations"))
	units, _ := m.Int64Counter("inventory.restocked_units", metric.WithDescription("Units added through restocking"))
	return serviceMetrics{restocks: restocks, unitsRestored: units}
}

func (m serviceMetrics) recordRestock(ctx context.Context, quantity int) {
	if m.restocks != nil {
		m.restocks.Add(ctx, 1)
	}
	if m.unitsRestored != nil {
		m.unitsRestored.Add(ctx, int64(quantity))
	}
}

var _ invports.Service = (*Service)(nil)
