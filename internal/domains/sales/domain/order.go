package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Channel identifies where a sale happened.
type Channel string

const (
	ChannelInPerson Channel = "IN_PERSON"
	ChannelOnline   Channel = "ONLINE"
)

// PaymentMethod enumerates accepted tenders.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentWallet   PaymentMethod = "WALLET"
	PaymentOther    PaymentMethod = "OTHER"
)

// DefaultCountry is applied to shipping addresses without a country.
const DefaultCountry = "MX"

func (c Channel) Valid() bool {
	return c == ChannelInPerson || c == ChannelOnline
}

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentWallet, PaymentOther:
		return true
	default:
		return false
	}
}

// ShippingAddress is required for online sales.
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
}

func (a *ShippingAddress) validate() error {
	required := []struct{ field, value string }{
		{"shippingAddress.fullName", a.FullName},
		{"shippingAddress.address", a.Address},
		{"shippingAddress.city", a.City},
		{"shippingAddress.state", a.State},
		{"shippingAddress.zipCode", a.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return NewValidationError(r.field, "is required")
		}
	}
	return nil
}

// OrderLine is one reserved variant on a sale. Price and discount are captured at sale time.
type OrderLine struct {
	VariantID    string          `json:"variantId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
}

// LineTotal computes unitPrice × quantity × (1 − discountRate) exactly.
func LineTotal(unitPrice decimal.Decimal, quantity int, discountRate decimal.Decimal) decimal.Decimal {
	return unitPrice.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(decimal.NewFromInt(1).Sub(discountRate))
}

// Order is an immutable sale record.
type Order struct {
	ID              string           `json:"id"`
	CustomerID      string           `json:"customerId,omitempty"`
	CashierID       string           `json:"cashierId"`
	Channel         Channel          `json:"channel"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod"`
	Lines           []OrderLine      `json:"lines"`
	Total           decimal.Decimal  `json:"total"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	IdempotencyKey  string           `json:"idempotencyKey,omitempty"`
	RequestHash     string           `json:"requestHash,omitempty"`
	PlacedAt        time.Time        `json:"placedAt"`
}

// RequiresShipment reports whether the order is fulfilled through a shipment.
func (o *Order) RequiresShipment() bool {
	return o.Channel == ChannelOnline
}

// QuantitiesByVariant sums the ordered quantity per variant.
func (o *Order) QuantitiesByVariant() map[string]int {
	out := make(map[string]int, len(o.Lines))
	for _, l := range o.Lines {
		out[l.VariantID] += l.Quantity
	}
	return out
}

// LinesFor returns the lines for variantID in order.
func (o *Order) LinesFor(variantID string) []OrderLine {
	var out []OrderLine
	for _, l := range o.Lines {
		if l.VariantID == variantID {
			out = append(out, l)
		}
	}
	return out
}

// LineDraft is a requested line before reservation.
type LineDraft struct {
	VariantID    string
	Quantity     int
	UnitPrice    decimal.Decimal
	DiscountRate decimal.Decimal
}

// Draft is an unvalidated order request. Any client total is not part of it.
type Draft struct {
	CashierID       string
	CustomerID      string
	Channel         Channel
	PaymentMethod   PaymentMethod
	Lines           []LineDraft
	ShippingAddress *ShippingAddress
}

// Validate checks a draft fail-fast: items first, then per-line values, then the header.
func (d Draft) Validate() error {
	if len(d.Lines) == 0 {
		return NewValidationError("lines", "no items")
	}
	one := decimal.NewFromInt(1)
	for i, l := range d.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if l.Quantity < 1 {
			return NewValidationError(field+".quantity", "must be at least 1")
		}
		if l.DiscountRate.IsNegative() || l.DiscountRate.GreaterThan(one) {
			return NewValidationError(field+".discountRate", "must be between 0 and 1")
		}
		if l.UnitPrice.IsNegative() {
			return NewValidationError(field+".unitPrice", "must not be negative")
		}
		if strings.TrimSpace(l.VariantID) == "" {
			return NewValidationError(field+".variantId", "is required")
		}
	}
	if strings.TrimSpace(d.CashierID) == "" {
		return NewValidationError("cashierId", "is required")
	}
	if !d.Channel.Valid() {
		return NewValidationError("channel", fmt.Sprintf("unknown channel %q", d.Channel))
	}
	if !d.PaymentMethod.Valid() {
		return NewValidationError("paymentMethod", fmt.Sprintf("unknown payment method %q", d.PaymentMethod))
	}
	if d.Channel == ChannelOnline {
		if d.ShippingAddress == nil {
			return NewValidationError("shippingAddress", "is required for online orders")
		}
		if err := d.ShippingAddress.validate(); err != nil {
			return err
		}
	}
	return nil
}

// NewOrder validates the draft and builds the order with server-computed totals.
func NewOrder(id string, d Draft, placedAt time.Time) (*Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	order := &Order{
		ID:            id,
		CustomerID:    strings.TrimSpace(d.CustomerID),
		CashierID:     strings.TrimSpace(d.CashierID),
		Channel:       d.Channel,
		PaymentMethod: d.PaymentMethod,
		Lines:         make([]OrderLine, 0, len(d.Lines)),
		Total:         decimal.Zero,
		PlacedAt:      placedAt.UTC(),
	}
	for _, l := range d.Lines {
		total := LineTotal(l.UnitPrice, l.Quantity, l.DiscountRate)
		order.Lines = append(order.Lines, OrderLine{
			VariantID:    strings.TrimSpace(l.VariantID),
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			DiscountRate: l.DiscountRate,
			LineTotal:    total,
		})
		order.Total = order.Total.Add(total)
	}
	if d.Channel == ChannelOnline && d.ShippingAddress != nil {
		addr := *d.ShippingAddress
		if strings.TrimSpace(addr.Country) == "" {
			addr.Country = DefaultCountry
		}
		order.ShippingAddress = &addr
	}
	return order, nil
}
