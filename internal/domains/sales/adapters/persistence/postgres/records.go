package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

type orderRecord struct {
	ID              string                  `gorm:"primaryKey;column:id;size:64"`
	CustomerID      string                  `gorm:"column:customer_id;size:64;index"`
	CashierID       string                  `gorm:"column:cashier_id;size:64;not null;index"`
	Channel         string                  `gorm:"column:channel;type:varchar(16);not null"`
	PaymentMethod   string                  `gorm:"column:payment_method;type:varchar(16);not null"`
	Total           decimal.Decimal         `gorm:"column:total;type:numeric;not null"`
	ShippingAddress *domain.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	IdempotencyKey  *string                 `gorm:"column:idempotency_key;size:128;uniqueIndex:idx_orders_idempotency_key"`
	RequestHash     string                  `gorm:"column:request_hash;size:64"`
	PlacedAt        time.Time               `gorm:"column:placed_at;not null;index"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	OrderID      string          `gorm:"primaryKey;column:order_id;size:64"`
	Position     int             `gorm:"primaryKey;column:position"`
	VariantID    string          `gorm:"column:variant_id;size:64;not null;index"`
	Quantity     int             `gorm:"column:quantity;not null;check:chk_order_lines_quantity_positive,quantity > 0"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	DiscountRate decimal.Decimal `gorm:"column:discount_rate;type:numeric;not null"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric;not null"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

type returnRecord struct {
	ID          string          `gorm:"primaryKey;column:id;size:64"`
	OrderID     string          `gorm:"column:order_id;size:64;not null;index"`
	CashierID   string          `gorm:"column:cashier_id;size:64;not null"`
	RefundTotal decimal.Decimal `gorm:"column:refund_total;type:numeric;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"`
}

func (returnRecord) TableName() string { return "order_returns" }

type returnLineRecord struct {
	ReturnID     string          `gorm:"primaryKey;column:return_id;size:64"`
	Position     int             `gorm:"primaryKey;column:position"`
	VariantID    string          `gorm:"column:variant_id;size:64;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	DiscountRate decimal.Decimal `gorm:"column:discount_rate;type:numeric;not null"`
	Refund       decimal.Decimal `gorm:"column:refund;type:numeric;not null"`
}

func (returnLineRecord) TableName() string { return "order_return_lines" }

type shipmentRecord struct {
	OrderID        string     `gorm:"primaryKey;column:order_id;size:64"`
	TrackingNumber string     `gorm:"column:tracking_number;size:32;not null;uniqueIndex"`
	Status         string     `gorm:"column:status;type:varchar(16);not null;index:idx_shipments_status_shipped"`
	ShippedAt      *time.Time `gorm:"column:shipped_at;index:idx_shipments_status_shipped"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (shipmentRecord) TableName() string { return "shipments" }

func toOrderRecords(o *domain.Order) (orderRecord, []orderLineRecord) {
	record := orderRecord{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		CashierID:       o.CashierID,
		Channel:         string(o.Channel),
		PaymentMethod:   string(o.PaymentMethod),
		Total:           o.Total,
		ShippingAddress: o.ShippingAddress,
		RequestHash:     o.RequestHash,
		PlacedAt:        o.PlacedAt,
	}
	if o.IdempotencyKey != "" {
		key := o.IdempotencyKey
		record.IdempotencyKey = &key
	}
	lines := make([]orderLineRecord, 0, len(o.Lines))
	for i, l := range o.Lines {
		lines = append(lines, orderLineRecord{
			OrderID:      o.ID,
			Position:     i,
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			DiscountRate: l.DiscountRate,
			LineTotal:    l.LineTotal,
		})
	}
	return record, lines
}

func (r orderRecord) toDomain(lines []orderLineRecord) *domain.Order {
	order := &domain.Order{
		ID:              r.ID,
		CustomerID:      r.CustomerID,
		CashierID:       r.CashierID,
		Channel:         domain.Channel(r.Channel),
		PaymentMethod:   domain.PaymentMethod(r.PaymentMethod),
		Total:           r.Total,
		ShippingAddress: r.ShippingAddress,
		RequestHash:     r.RequestHash,
		PlacedAt:        r.PlacedAt.UTC(),
		Lines:           make([]domain.OrderLine, 0, len(lines)),
	}
	if r.IdempotencyKey != nil {
		order.IdempotencyKey = *r.IdempotencyKey
	}
	for _, l := range lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			DiscountRate: l.DiscountRate,
			LineTotal:    l.LineTotal,
		})
	}
	return order
}

func toReturnRecords(ret *domain.Return) (returnRecord, []returnLineRecord) {
	record := returnRecord{
		ID:          ret.ID,
		OrderID:     ret.OrderID,
		CashierID:   ret.CashierID,
		RefundTotal: ret.RefundTotal,
		CreatedAt:   ret.CreatedAt,
	}
	lines := make([]returnLineRecord, 0, len(ret.Lines))
	for i, l := range ret.Lines {
		lines = append(lines, returnLineRecord{
			ReturnID:     ret.ID,
			Position:     i,
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			DiscountRate: l.DiscountRate,
			Refund:       l.Refund,
		})
	}
	return record, lines
}

func (r returnRecord) toDomain(lines []returnLineRecord) *domain.Return {
	ret := &domain.Return{
		ID:          r.ID,
		OrderID:     r.OrderID,
		CashierID:   r.CashierID,
		RefundTotal: r.RefundTotal,
		CreatedAt:   r.CreatedAt.UTC(),
		Lines:       make([]domain.ReturnLine, 0, len(lines)),
	}
	for _, l := range lines {
		ret.Lines = append(ret.Lines, domain.ReturnLine{
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			DiscountRate: l.DiscountRate,
			Refund:       l.Refund,
		})
	}
	return ret
}

func toShipmentRecord(s *domain.Shipment) shipmentRecord {
	return shipmentRecord{
		OrderID:        s.OrderID,
		TrackingNumber: s.TrackingNumber,
		Status:         string(s.Status),
		ShippedAt:      s.ShippedAt,
		DeliveredAt:    s.DeliveredAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (r shipmentRecord) toDomain() *domain.Shipment {
	return &domain.Shipment{
		OrderID:        r.OrderID,
		TrackingNumber: r.TrackingNumber,
		Status:         domain.ShippingStatus(r.Status),
		ShippedAt:      utcPtr(r.ShippedAt),
		DeliveredAt:    utcPtr(r.DeliveredAt),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
