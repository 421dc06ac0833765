package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/ports"
	salesactivities "github.com/Apurer/storefront-api/internal/platform/temporal/activities/sales"
	salesworkflows "github.com/Apurer/storefront-api/internal/platform/temporal/workflows/sales"
)

const opPlaceOrder = "place order"

var (
	_ ports.PlacementOrchestrator = (*TemporalPlacement)(nil)
	_ ports.PlacementOrchestrator = (*InlinePlacement)(nil)
	_ ports.DeliveryScheduler     = (*TemporalDeliveryScheduler)(nil)
	_ ports.DeliveryScheduler     = (*InlineDeliveryScheduler)(nil)
)

// TemporalPlacement starts order placement workflows on a Temporal cluster.
type TemporalPlacement struct {
	client    client.Client
	taskQueue string
}

// NewTemporalPlacement wires a Temporal client into the orchestrator.
func NewTemporalPlacement(c client.Client) *TemporalPlacement {
	return &TemporalPlacement{client: c, taskQueue: salesworkflows.OrderPlacementTaskQueue}
}

// PlaceOrder runs the placement workflow and waits for its result.
// Requests carrying an idempotency key map to one workflow id, so retries join the first run.
func (o *TemporalPlacement) PlaceOrder(ctx context.Context, cmd salestypes.PlaceOrderCommand) (*salestypes.PlaceOrderResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order placement not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildPlacementWorkflowID(cmd, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		salesworkflows.OrderPlacementWorkflowName,
		salesworkflows.OrderPlacementWorkflowInput{Command: cmd, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(cmd.IdempotencyKey) != "" {
			run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
		} else {
			return nil, salesactivities.DecodeError(opPlaceOrder, err)
		}
	}
	var result salestypes.PlaceOrderResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, salesactivities.DecodeError(opPlaceOrder, err)
	}
	return &result, nil
}

// InlinePlacement executes the service directly without Temporal, used in tests and as a dev fallback.
type InlinePlacement struct {
	service ports.Service
}

func NewInlinePlacement(service ports.Service) *InlinePlacement {
	return &InlinePlacement{service: service}
}

func (o *InlinePlacement) PlaceOrder(ctx context.Context, cmd salestypes.PlaceOrderCommand) (*salestypes.PlaceOrderResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order placement not configured")
	}
	return o.service.PlaceOrder(ctx, cmd)
}

// TemporalDeliveryScheduler starts one delivery workflow per order.
type TemporalDeliveryScheduler struct {
	client    client.Client
	taskQueue string
}

func NewTemporalDeliveryScheduler(c client.Client) *TemporalDeliveryScheduler {
	return &TemporalDeliveryScheduler{client: c, taskQueue: salesworkflows.OrderPlacementTaskQueue}
}

// ScheduleDelivery does not wait for the workflow. An already running workflow for the order counts as scheduled.
func (s *TemporalDeliveryScheduler) ScheduleDelivery(ctx context.Context, orderID string, delay time.Duration) error {
	if s == nil || s.client == nil {
		return errors.New("temporal delivery scheduler not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        "shipment-delivery-" + orderID,
		TaskQueue: s.taskQueue,
	}
	_, err := s.client.ExecuteWorkflow(ctx, options, salesworkflows.ShipmentDeliveryWorkflowName,
		salesworkflows.ShipmentDeliveryWorkflowInput{OrderID: orderID, Delay: delay, TraceID: workflowTraceID(ctx)})
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

// InlineDeliveryScheduler marks orders delivered from in-process timers.
// Pending timers are lost on restart; the delivery sweeper covers that gap.
type InlineDeliveryScheduler struct {
	deliver func(ctx context.Context, orderID string) error
	logger  *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewInlineDeliveryScheduler calls deliver once each delay elapses.
func NewInlineDeliveryScheduler(deliver func(ctx context.Context, orderID string) error, logger *slog.Logger) *InlineDeliveryScheduler {
	return &InlineDeliveryScheduler{deliver: deliver, logger: logger, timers: map[string]*time.Timer{}}
}

func (s *InlineDeliveryScheduler) ScheduleDelivery(ctx context.Context, orderID string, delay time.Duration) error {
	if s == nil || s.deliver == nil {
		return errors.New("inline delivery scheduler not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, pending := s.timers[orderID]; pending {
		return nil
	}
	detached := context.WithoutCancel(ctx)
	s.timers[orderID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, orderID)
		s.mu.Unlock()
		if err := s.deliver(detached, orderID); err != nil && s.logger != nil {
			s.logger.WarnContext(detached, "scheduled delivery failed", slog.String("order.id", orderID), slog.String("error", err.Error()))
		}
	})
	return nil
}

// Stop cancels every pending timer.
func (s *InlineDeliveryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending reports how many deliveries are waiting.
func (s *InlineDeliveryScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func buildPlacementWorkflowID(cmd salestypes.PlaceOrderCommand, traceComponent string) string {
	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" {
		return fmt.Sprintf("order-placement-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("order-placement-%s-%s", uuid.NewString(), traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceComponent := workflowTraceID(ctx); traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() || !spanCtx.TraceID().IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
