package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

// LineInput is one requested order line.
type LineInput struct {
	VariantID    string          `json:"variantId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	DiscountRate decimal.Decimal `json:"discountRate"`
}

// PlaceOrderCommand carries a sale request. There is deliberately no total field.
type PlaceOrderCommand struct {
	CashierID       string                  `json:"cashierId"`
	CustomerID      string                  `json:"customerId,omitempty"`
	Channel         string                  `json:"channel"`
	PaymentMethod   string                  `json:"paymentMethod"`
	Lines           []LineInput             `json:"lines"`
	ShippingAddress *domain.ShippingAddress `json:"shippingAddress,omitempty"`
	IdempotencyKey  string                  `json:"idempotencyKey,omitempty"`
}

// PlaceOrderResult is the committed order plus whether it was replayed from an idempotency key.
type PlaceOrderResult struct {
	Order    *domain.Order    `json:"order"`
	Shipment *domain.Shipment `json:"shipment,omitempty"`
	Replayed bool             `json:"replayed"`
}

// ReturnLineInput is one requested return quantity.
type ReturnLineInput struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// ProcessReturnCommand restores stock for goods returned against an order.
type ProcessReturnCommand struct {
	OrderID   string            `json:"orderId"`
	CashierID string            `json:"cashierId"`
	Lines     []ReturnLineInput `json:"lines"`
}

// UpdateShippingCommand moves a shipment to a new status.
type UpdateShippingCommand struct {
	OrderID        string `json:"orderId"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

// ListOrdersQuery filters order listings. Limit defaults to 50 and is capped at 500.
type ListOrdersQuery struct {
	CustomerID string
	CashierID  string
	Channel    string
	Limit      int
}

// OrderIdentifier addresses a single order.
type OrderIdentifier struct {
	OrderID string `json:"orderId"`
}
