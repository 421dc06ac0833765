package observability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	"github.com/Apurer/storefront-api/internal/domains/sales/ports"
)

const tracerName = "github.com/Apurer/storefront-api/internal/domains/sales/adapters/observability/service"

// Service decorates the sales service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
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

// New wraps the core sales service.
func New(inner ports.Service, opts ...Option) ports.Service {
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

func (s *Service) PlaceOrder(ctx context.Context, cmd salestypes.PlaceOrderCommand) (*salestypes.PlaceOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.PlaceOrder", trace.WithAttributes(
		attribute.String("order.cashier_id", cmd.CashierID),
		attribute.String("order.channel", cmd.Channel),
		attribute.Int("order.line_count", len(cmd.Lines)),
		attribute.Bool("order.idempotent", cmd.IdempotencyKey != ""),
	))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.String("cashier.id", cmd.CashierID), slog.Int("lines", len(cmd.Lines)))
	result, err := s.inner.PlaceOrder(ctx, cmd)
	if err != nil {
		s.metrics.recordRejected(ctx, kindOf(err))
		return nil, s.handleError(ctx, span, err, "order rejected", slog.String("cashier.id", cmd.CashierID))
	}
	span.SetAttributes(attribute.String("order.id", result.Order.ID), attribute.Bool("order.replayed", result.Replayed))
	if !result.Replayed {
		s.metrics.recordPlaced(ctx, result.Order)
	}
	s.logInfo(ctx, "order placed",
		slog.String("order.id", result.Order.ID),
		slog.String("order.total", result.Order.Total.StringFixed(2)),
		slog.Bool("replayed", result.Replayed))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, query salestypes.ListOrdersQuery) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.ListOrders", trace.WithAttributes(
		attribute.String("filter.customer_id", query.CustomerID),
		attribute.String("filter.channel", query.Channel),
		attribute.Int("filter.limit", query.Limit),
	))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ProcessReturn(ctx context.Context, cmd salestypes.ProcessReturnCommand) (*domain.Return, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.ProcessReturn", trace.WithAttributes(attribute.String("order.id", cmd.OrderID)))
	defer span.End()

	s.logInfo(ctx, "processing return", slog.String("order.id", cmd.OrderID), slog.Int("lines", len(cmd.Lines)))
	result, err := s.inner.ProcessReturn(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "return rejected", slog.String("order.id", cmd.OrderID))
	}
	s.metrics.recordReturn(ctx)
	s.logInfo(ctx, "return processed",
		slog.String("order.id", cmd.OrderID),
		slog.String("return.id", result.ID),
		slog.String("refund.total", result.RefundTotal.StringFixed(2)))
	return result, nil
}

func (s *Service) ListReturns(ctx context.Context, orderID string) ([]*domain.Return, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.ListReturns", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	result, err := s.inner.ListReturns(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list returns", slog.String("order.id", orderID))
	}
	return result, nil
}

func (s *Service) GetShipment(ctx context.Context, orderID string) (*domain.Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.GetShipment", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	result, err := s.inner.GetShipment(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load shipment", slog.String("order.id", orderID))
	}
	return result, nil
}

func (s *Service) TrackShipment(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.TrackShipment", trace.WithAttributes(attribute.String("shipment.tracking_number", trackingNumber)))
	defer span.End()

	result, err := s.inner.TrackShipment(ctx, trackingNumber)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to track shipment", slog.String("tracking.number", trackingNumber))
	}
	return result, nil
}

func (s *Service) UpdateShippingStatus(ctx context.Context, cmd salestypes.UpdateShippingCommand) (*domain.Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.UpdateShippingStatus", trace.WithAttributes(
		attribute.String("order.id", cmd.OrderID),
		attribute.String("shipment.status", cmd.Status),
	))
	defer span.End()

	result, err := s.inner.UpdateShippingStatus(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update shipping status", slog.String("order.id", cmd.OrderID))
	}
	s.logInfo(ctx, "shipping status updated", slog.String("order.id", cmd.OrderID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) MarkDelivered(ctx context.Context, orderID string) (*domain.Shipment, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.MarkDelivered", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	result, err := s.inner.MarkDelivered(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark delivered", slog.String("order.id", orderID))
	}
	return result, nil
}

func (s *Service) SweepDeliveries(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "SalesService.SweepDeliveries", trace.WithAttributes(attribute.String("sweep.cutoff", cutoff.Format(time.RFC3339))))
	defer span.End()

	delivered, err := s.inner.SweepDeliveries(ctx, cutoff)
	span.SetAttributes(attribute.Int("sweep.delivered", delivered))
	if err != nil {
		return delivered, s.handleError(ctx, span, err, "delivery sweep finished with errors", slog.Int("delivered", delivered))
	}
	s.logInfo(ctx, "delivery sweep finished", slog.Int("delivered", delivered))
	return delivered, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, level slog.Level, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()), slog.String("error.kind", kindOf(err)))
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

// handleError records err on the span. Caller mistakes log at warn, infrastructure failures at error.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	level := slog.LevelWarn
	if errors.Is(err, domain.ErrInternal) || errors.Is(err, domain.ErrTransient) {
		level = slog.LevelError
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	} else if span != nil {
		span.SetAttributes(attribute.String("error.kind", kindOf(err)))
	}
	s.logError(ctx, level, msg, err, attrs...)
	return err
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}

type serviceMetrics struct {
	placed     metric.Int64Counter
	rejected   metric.Int64Counter
	returns    metric.Int64Counter
	orderTotal metric.Float64Histogram
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("sales.orders_placed", metric.WithDescription("Orders committed"))
	rejected, _ := m.Int64Counter("sales.orders_rejected", metric.WithDescription("Orders rejected, by error kind"))
	returns, _ := m.Int64Counter("sales.returns_processed", metric.WithDescription("Returns recorded"))
	total, _ := m.Float64Histogram("sales.order_total", metric.WithDescription("Order totals"), metric.WithUnit("{currency}"))
	return serviceMetrics{placed: placed, rejected: rejected, returns: returns, orderTotal: total}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, order *domain.Order) {
	attrs := metric.WithAttributes(attribute.String("channel", string(order.Channel)))
	if m.placed != nil {
		m.placed.Add(ctx, 1, attrs)
	}
	if m.orderTotal != nil {
		total, _ := order.Total.Float64()
		m.orderTotal.Record(ctx, total, attrs)
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, kind string) {
	if m.rejected != nil {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m serviceMetrics) recordReturn(ctx context.Context) {
	if m.returns != nil {
		m.returns.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
