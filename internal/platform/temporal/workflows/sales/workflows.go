package sales

import (
	"strings"
	"time"

	"go.temporal.io/sdk/workflow"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	"github.com/Apurer/storefront-api/internal/platform/temporal/sequences"
)

const (
	// OrderPlacementWorkflowName is the public identifier for registering the placement workflow.
	OrderPlacementWorkflowName = "sales.workflows.OrderPlacement"
	// ShipmentDeliveryWorkflowName is the public identifier for registering the delivery workflow.
	ShipmentDeliveryWorkflowName = "sales.workflows.ShipmentDelivery"
	// OrderPlacementTaskQueue is the queue consumed by the worker processing sales workflows.
	OrderPlacementTaskQueue = "ORDER_PLACEMENT"
)

// OrderPlacementWorkflowInput captures the order request and the caller's trace.
type OrderPlacementWorkflowInput struct {
	Command salestypes.PlaceOrderCommand
	TraceID string
}

// OrderPlacementWorkflow places an order durably.
func OrderPlacementWorkflow(ctx workflow.Context, input OrderPlacementWorkflowInput) (*salestypes.PlaceOrderResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderPlacementWorkflow started", withTraceID(input.TraceID, "cashierId", input.Command.CashierID)...)
	cmd := input.Command
	// Activity retries after an unacknowledged commit must replay that order, not place another.
	assignedKey := strings.TrimSpace(cmd.IdempotencyKey) == ""
	if assignedKey {
		cmd.IdempotencyKey = workflow.GetInfo(ctx).WorkflowExecution.ID
	}
	result, err := sequences.RunOrderPlacementSequence(ctx, cmd)
	if err != nil {
		logger.Error("OrderPlacementWorkflow failed", withTraceID(input.TraceID, "cashierId", input.Command.CashierID, "error", err)...)
		return nil, err
	}
	if assignedKey {
		result.Replayed = false
	}
	if result.Order != nil {
		logger.Info("OrderPlacementWorkflow completed", withTraceID(input.TraceID, "orderId", result.Order.ID)...)
	}
	return result, nil
}

// ShipmentDeliveryWorkflowInput schedules delivery of one shipped order.
type ShipmentDeliveryWorkflowInput struct {
	OrderID string
	Delay   time.Duration
	TraceID string
}

// ShipmentDeliveryWorkflow sleeps for Delay and then marks the order delivered.
func ShipmentDeliveryWorkflow(ctx workflow.Context, input ShipmentDeliveryWorkflowInput) (*domain.Shipment, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ShipmentDeliveryWorkflow started", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	shipment, err := sequences.RunDeliverySequence(ctx, input.OrderID, input.Delay)
	if err != nil {
		logger.Error("ShipmentDeliveryWorkflow failed", withTraceID(input.TraceID, "orderId", input.OrderID, "error", err)...)
		return nil, err
	}
	logger.Info("ShipmentDeliveryWorkflow completed", withTraceID(input.TraceID, "orderId", input.OrderID, "status", string(shipment.Status))...)
	return shipment, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
