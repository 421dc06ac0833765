package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	salesactivities "github.com/Apurer/storefront-api/internal/platform/temporal/activities/sales"
)

// RunOrderPlacementSequence executes the placement activity. Only transient failures are retried.
func RunOrderPlacementSequence(ctx workflow.Context, cmd salestypes.PlaceOrderCommand) (*salestypes.PlaceOrderResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "cashierId", cmd.CashierID, "lines", len(cmd.Lines))
	placeOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: salesactivities.NonRetryableErrorTypes,
		},
	}

	var result salestypes.PlaceOrderResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, placeOptions), salesactivities.PlaceOrderActivityName, cmd).Get(ctx, &result)
	if err != nil {
		logger.Error("order placement sequence failed", "cashierId", cmd.CashierID, "error", err)
		return nil, err
	}
	if result.Order != nil {
		logger.Info("order placement sequence committed", "orderId", result.Order.ID, "replayed", result.Replayed)
	}
	return &result, nil
}

// RunDeliverySequence waits out the delivery delay, then marks the order delivered.
func RunDeliverySequence(ctx workflow.Context, orderID string, delay time.Duration) (*domain.Shipment, error) {
	logger := workflow.GetLogger(ctx)
	if delay > 0 {
		logger.Info("delivery sequence waiting", "orderId", orderID, "delay", delay.String())
		if err := workflow.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	deliverOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        10,
			NonRetryableErrorTypes: salesactivities.NonRetryableErrorTypes,
		},
	}
	var shipment domain.Shipment
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, deliverOptions), salesactivities.MarkDeliveredActivityName,
		salestypes.OrderIdentifier{OrderID: orderID}).Get(ctx, &shipment)
	if err != nil {
		logger.Error("delivery sequence failed", "orderId", orderID, "error", err)
		return nil, err
	}
	logger.Info("delivery sequence completed", "orderId", orderID, "status", string(shipment.Status))
	return &shipment, nil
}
