package sales

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	salesports "github.com/Apurer/storefront-api/internal/domains/sales/ports"
)

const (
	// PlaceOrderActivityName reserves stock and persists an order in one transaction.
	PlaceOrderActivityName = "sales.activities.PlaceOrder"
	// MarkDeliveredActivityName completes a shipped order.
	MarkDeliveredActivityName = "sales.activities.MarkDelivered"
)

// Activities groups activities that operate on the sales bounded context.
type Activities struct {
	service salesports.Service
}

// NewActivities wires the sales service into the Temporal activities bundle.
func NewActivities(service salesports.Service) *Activities {
	return &Activities{service: service}
}

// PlaceOrder runs the placement use case. Only transient failures are left retryable.
func (a *Activities) PlaceOrder(ctx context.Context, cmd salestypes.PlaceOrderCommand) (*salestypes.PlaceOrderResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("place order activity not initialized", "cashierId", cmd.CashierID)
		return nil, errors.New("place order activity not initialized")
	}
	logger.Info("PlaceOrder activity started", "cashierId", cmd.CashierID, "lines", len(cmd.Lines))
	result, err := a.service.PlaceOrder(ctx, cmd)
	if err != nil {
		logger.Warn("PlaceOrder activity failed", "cashierId", cmd.CashierID, "error", err, "retryable", domain.IsRetryable(err))
		return nil, EncodeError(err)
	}
	logger.Info("PlaceOrder activity completed", "orderId", result.Order.ID, "replayed", result.Replayed)
	return result, nil
}

// MarkDelivered moves a shipped order to Delivered. Repeated calls are harmless.
func (a *Activities) MarkDelivered(ctx context.Context, input salestypes.OrderIdentifier) (*domain.Shipment, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("mark delivered activity not initialized", "orderId", input.OrderID)
		return nil, errors.New("mark delivered activity not initialized")
	}
	shipment, err := a.service.MarkDelivered(ctx, input.OrderID)
	if err != nil {
		logger.Warn("MarkDelivered activity failed", "orderId", input.OrderID, "error", err)
		return nil, EncodeError(err)
	}
	logger.Info("MarkDelivered activity completed", "orderId", input.OrderID, "status", string(shipment.Status))
	return shipment, nil
}
