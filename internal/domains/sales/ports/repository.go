package ports

import (
	"context"
	"errors"
	"time"

	invports "github.com/Apurer/storefront-api/internal/domains/inventory/ports"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

var (
	// ErrNotFound is returned when an order, return or shipment cannot be located.
	ErrNotFound = errors.New("sales record not found")
	// ErrDuplicateIdempotencyKey is returned when an order with the same idempotency key already exists.
	ErrDuplicateIdempotencyKey = errors.New("order idempotency key already used")
	// ErrTrackingNumberTaken is returned when a tracking number already belongs to another shipment.
	ErrTrackingNumberTaken = errors.New("tracking number already assigned")
	// ErrStaleShipment is returned when a shipment changed status between read and write.
	ErrStaleShipment = errors.New("shipment status changed concurrently")
	// ErrTransient marks storage failures that are safe to retry (timeouts, contention, lost connections).
	ErrTransient = errors.New("transient storage failure")
)

// Tx is the unit of work handed to Transactor callbacks. Every call shares one transaction.
type Tx interface {
	Stock() invports.StockLedger
	InsertOrder(ctx context.Context, order *domain.Order) error
	InsertShipment(ctx context.Context, shipment *domain.Shipment) error
	// GetOrder loads an order and holds it against concurrent returns until the transaction ends.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ReturnedQuantities(ctx context.Context, orderID string) (map[string]int, error)
	InsertReturn(ctx context.Context, ret *domain.Return) error
}

// Transactor runs fn atomically: all writes commit when fn returns nil, otherwise none do.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerID string
	CashierID  string
	Channel    domain.Channel
	Limit      int
}

// OrderReader serves committed sales.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	ListReturns(ctx context.Context, orderID string) ([]*domain.Return, error)
}

// ShipmentRepository persists shipment status changes.
type ShipmentRepository interface {
	GetShipment(ctx context.Context, orderID string) (*domain.Shipment, error)
	GetShipmentByTracking(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
	// SaveShipment writes shipment only while the stored status still equals from.
	SaveShipment(ctx context.Context, shipment *domain.Shipment, from domain.ShippingStatus) (*domain.Shipment, error)
	ListShippedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Shipment, error)
}

// Store bundles the persistence ports used by the sales service.
type Store interface {
	Transactor
	OrderReader
	ShipmentRepository
}
