package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

// Money amounts leave the API as strings with two decimals. Requests accept numbers or strings.

// OrderLine is one requested line of a sale.
type OrderLine struct {
	VariantID    string          `json:"variantId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	DiscountRate decimal.Decimal `json:"discountRate"`
}

// ShippingAddress is the delivery destination of an online order.
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country,omitempty"`
}

// PlaceOrderRequest is the body of POST /v1/orders. The cashier is the authenticated caller.
type PlaceOrderRequest struct {
	CustomerID      string           `json:"customerId,omitempty"`
	Channel         string           `json:"channel"`
	PaymentMethod   string           `json:"paymentMethod"`
	Lines           []OrderLine      `json:"lines"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
}

type OrderLineResponse struct {
	VariantID    string `json:"variantId"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	DiscountRate string `json:"discountRate"`
	LineTotal    string `json:"lineTotal"`
}

type Order struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customerId,omitempty"`
	CashierID       string              `json:"cashierId"`
	Channel         string              `json:"channel"`
	PaymentMethod   string              `json:"paymentMethod"`
	Lines           []OrderLineResponse `json:"lines"`
	Total           string              `json:"total"`
	ShippingAddress *ShippingAddress    `json:"shippingAddress,omitempty"`
	PlacedAt        time.Time           `json:"placedAt"`
	Shipment        *Shipment           `json:"shipment,omitempty"`
	Replayed        bool                `json:"replayed,omitempty"`
}

type Shipment struct {
	OrderID        string     `json:"orderId"`
	TrackingNumber string     `json:"trackingNumber"`
	Status         string     `json:"status"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ShippingStatusRequest is the body of PUT /v1/orders/:orderId/shipping-status.
// A non-empty TrackingNumber replaces the generated one, e.g. a carrier's number on Shipped.
type ShippingStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type ReturnLine struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// ReturnRequest is the body of POST /v1/orders/:orderId/returns.
type ReturnRequest struct {
	Lines []ReturnLine `json:"lines"`
}

type ReturnLineResponse struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
	Refund    string `json:"refund"`
}

type Return struct {
	ID          string               `json:"id"`
	OrderID     string               `json:"orderId"`
	CashierID   string               `json:"cashierId"`
	Lines       []ReturnLineResponse `json:"lines"`
	RefundTotal string               `json:"refundTotal"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// ToPlaceOrderCommand builds the sale command for cashierID.
func ToPlaceOrderCommand(req PlaceOrderRequest, cashierID, idempotencyKey string) salestypes.PlaceOrderCommand {
	lines := make([]salestypes.LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, salestypes.LineInput{
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			DiscountRate: l.DiscountRate,
		})
	}
	cmd := salestypes.PlaceOrderCommand{
		CashierID:      cashierID,
		CustomerID:     req.CustomerID,
		Channel:        req.Channel,
		PaymentMethod:  req.PaymentMethod,
		Lines:          lines,
		IdempotencyKey: idempotencyKey,
	}
	if a := req.ShippingAddress; a != nil {
		cmd.ShippingAddress = &domain.ShippingAddress{
			FullName: a.FullName,
			Address:  a.Address,
			City:     a.City,
			State:    a.State,
			ZipCode:  a.ZipCode,
			Country:  a.Country,
		}
	}
	return cmd
}

func ToReturnCommand(orderID, cashierID string, req ReturnRequest) salestypes.ProcessReturnCommand {
	lines := make([]salestypes.ReturnLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, salestypes.ReturnLineInput{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	return salestypes.ProcessReturnCommand{OrderID: orderID, CashierID: cashierID, Lines: lines}
}

func FromPlaceOrderResult(result *salestypes.PlaceOrderResult) Order {
	if result == nil {
		return Order{}
	}
	out := FromOrder(result.Order)
	out.Shipment = FromShipment(result.Shipment)
	out.Replayed = result.Replayed
	return out
}

func FromOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		CashierID:     order.CashierID,
		Channel:       string(order.Channel),
		PaymentMethod: string(order.PaymentMethod),
		Lines:         make([]OrderLineResponse, 0, len(order.Lines)),
		Total:         order.Total.StringFixed(2),
		PlacedAt:      order.PlacedAt,
	}
	for _, l := range order.Lines {
		out.Lines = append(out.Lines, OrderLineResponse{
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice.StringFixed(2),
			DiscountRate: l.DiscountRate.String(),
			LineTotal:    l.LineTotal.StringFixed(2),
		})
	}
	if a := order.ShippingAddress; a != nil {
		out.ShippingAddress = &ShippingAddress{
			FullName: a.FullName,
			Address:  a.Address,
			City:     a.City,
			State:    a.State,
			ZipCode:  a.ZipCode,
			Country:  a.Country,
		}
	}
	return out
}

func FromOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromOrder(o))
	}
	return out
}

func FromShipment(s *domain.Shipment) *Shipment {
	if s == nil {
		return nil
	}
	return &Shipment{
		OrderID:        s.OrderID,
		TrackingNumber: s.TrackingNumber,
		Status:         string(s.Status),
		ShippedAt:      s.ShippedAt,
		DeliveredAt:    s.DeliveredAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func FromReturn(ret *domain.Return) Return {
	if ret == nil {
		return Return{}
	}
	out := Return{
		ID:          ret.ID,
		OrderID:     ret.OrderID,
		CashierID:   ret.CashierID,
		Lines:       make([]ReturnLineResponse, 0, len(ret.Lines)),
		RefundTotal: ret.RefundTotal.StringFixed(2),
		CreatedAt:   ret.CreatedAt,
	}
	for _, l := range ret.Lines {
		out.Lines = append(out.Lines, ReturnLineResponse{VariantID: l.VariantID, Quantity: l.Quantity, Refund: l.Refund.StringFixed(2)})
	}
	return out
}

func FromReturns(returns []*domain.Return) []Return {
	out := make([]Return, 0, len(returns))
	for _, r := range returns {
		out = append(out, FromReturn(r))
	}
	return out
}
