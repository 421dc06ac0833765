package ports

import (
	"context"
	"time"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

// Service exposes the sales use cases to transports and workflows.
type Service interface {
	PlaceOrder(ctx context.Context, cmd salestypes.PlaceOrderCommand) (*salestypes.PlaceOrderResult, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, query salestypes.ListOrdersQuery) ([]*domain.Order, error)
	ProcessReturn(ctx context.Context, cmd salestypes.ProcessReturnCommand) (*domain.Return, error)
	ListReturns(ctx context.Context, orderID string) ([]*domain.Return, error)
	GetShipment(ctx context.Context, orderID string) (*domain.Shipment, error)
	TrackShipment(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
	UpdateShippingStatus(ctx context.Context, cmd salestypes.UpdateShippingCommand) (*domain.Shipment, error)
	MarkDelivered(ctx context.Context, orderID string) (*domain.Shipment, error)
	SweepDeliveries(ctx context.Context, cutoff time.Time) (int, error)
}

// PlacementOrchestrator runs PlaceOrder either durably or inline.
type PlacementOrchestrator interface {
	PlaceOrder(ctx context.Context, cmd salestypes.PlaceOrderCommand) (*salestypes.PlaceOrderResult, error)
}
