package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types emitted by the sales context.
const (
	EventOrderPlaced           = "sales.order.placed"
	EventOrderReturned         = "sales.order.returned"
	EventShipmentStatusChanged = "sales.shipment.status_changed"
)

// Event is a domain fact published after commit.
type Event struct {
	Type        string
	AggregateID string
	OccurredAt  time.Time
	Payload     any
}

type OrderPlacedPayload struct {
	OrderID   string          `json:"orderId"`
	CashierID string          `json:"cashierId"`
	Channel   Channel         `json:"channel"`
	Lines     []OrderLine     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
}

type OrderReturnedPayload struct {
	ReturnID    string          `json:"returnId"`
	OrderID     string          `json:"orderId"`
	Lines       []ReturnLine    `json:"lines"`
	RefundTotal decimal.Decimal `json:"refundTotal"`
}

type ShipmentStatusChangedPayload struct {
	OrderID        string         `json:"orderId"`
	TrackingNumber string         `json:"trackingNumber"`
	Status         ShippingStatus `json:"status"`
}

// OrderPlaced builds the event for a committed order.
func OrderPlaced(o *Order) Event {
	return Event{
		Type:        EventOrderPlaced,
		AggregateID: o.ID,
		OccurredAt:  o.PlacedAt,
		Payload: OrderPlacedPayload{
			OrderID:   o.ID,
			CashierID: o.CashierID,
			Channel:   o.Channel,
			Lines:     o.Lines,
			Total:     o.Total,
		},
	}
}

// OrderReturned builds the event for a committed return.
func OrderReturned(r *Return) Event {
	return Event{
		Type:        EventOrderReturned,
		AggregateID: r.OrderID,
		OccurredAt:  r.CreatedAt,
		Payload: OrderReturnedPayload{
			ReturnID:    r.ID,
			OrderID:     r.OrderID,
			Lines:       r.Lines,
			RefundTotal: r.RefundTotal,
		},
	}
}

// ShipmentStatusChanged builds the event for a shipment transition.
func ShipmentStatusChanged(s *Shipment) Event {
	return Event{
		Type:        EventShipmentStatusChanged,
		AggregateID: s.OrderID,
		OccurredAt:  s.UpdatedAt,
		Payload: ShipmentStatusChangedPayload{
			OrderID:        s.OrderID,
			TrackingNumber: s.TrackingNumber,
			Status:         s.Status,
		},
	}
}
