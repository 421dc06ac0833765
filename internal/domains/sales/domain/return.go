package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReturnLine restores stock for part of an order line and refunds it at the sale price.
type ReturnLine struct {
	VariantID    string          `json:"variantId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	Refund       decimal.Decimal `json:"refund"`
}

// Return is an append-only record of goods brought back against an order.
type Return struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	CashierID   string          `json:"cashierId"`
	Lines       []ReturnLine    `json:"lines"`
	RefundTotal decimal.Decimal `json:"refundTotal"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ReturnRequestLine is one requested return quantity.
type ReturnRequestLine struct {
	VariantID string
	Quantity  int
}

// ValidateReturnRequest checks the request shape before any lookup.
func ValidateReturnRequest(cashierID string, lines []ReturnRequestLine) error {
	if len(lines) == 0 {
		return NewValidationError("lines", "no items")
	}
	for i, l := range lines {
		field := fmt.Sprintf("lines[%d]", i)
		if strings.TrimSpace(l.VariantID) == "" {
			return NewValidationError(field+".variantId", "is required")
		}
		if l.Quantity < 1 {
			return NewValidationError(field+".quantity", "must be at least 1")
		}
	}
	if strings.TrimSpace(cashierID) == "" {
		return NewValidationError("cashierId", "is required")
	}
	return nil
}

// NewReturn prices the requested lines against order and checks that the
// returned quantity per variant never exceeds sold minus already returned.
// Units are consumed from the order's lines for a variant in line order, so a
// variant sold on several lines is refunded at each line's own price and discount.
func NewReturn(id string, order *Order, cashierID string, lines []ReturnRequestLine, alreadyReturned map[string]int, now time.Time) (*Return, error) {
	if err := ValidateReturnRequest(cashierID, lines); err != nil {
		return nil, err
	}
	sold := order.QuantitiesByVariant()
	consumed := make(map[string]int, len(alreadyReturned))
	for variantID, qty := range alreadyReturned {
		consumed[variantID] = qty
	}
	ret := &Return{
		ID:          id,
		OrderID:     order.ID,
		CashierID:   strings.TrimSpace(cashierID),
		Lines:       make([]ReturnLine, 0, len(lines)),
		RefundTotal: decimal.Zero,
		CreatedAt:   now.UTC(),
	}
	for i, l := range lines {
		variantID := strings.TrimSpace(l.VariantID)
		orderLines := order.LinesFor(variantID)
		if len(orderLines) == 0 {
			return nil, NewValidationError(fmt.Sprintf("lines[%d].variantId", i), fmt.Sprintf("variant %s is not on order %s", variantID, order.ID))
		}
		if remaining := sold[variantID] - consumed[variantID]; l.Quantity > remaining {
			return nil, NewValidationError(fmt.Sprintf("lines[%d].quantity", i), fmt.Sprintf("only %d unit(s) of %s can still be returned", max(remaining, 0), variantID))
		}
		for _, segment := range allocateReturn(orderLines, consumed[variantID], l.Quantity) {
			ret.Lines = append(ret.Lines, segment)
			ret.RefundTotal = ret.RefundTotal.Add(segment.Refund)
		}
		consumed[variantID] += l.Quantity
	}
	return ret, nil
}

// allocateReturn takes qty units from orderLines after skipping the first skip units.
func allocateReturn(orderLines []OrderLine, skip, qty int) []ReturnLine {
	var out []ReturnLine
	for _, ol := range orderLines {
		if qty == 0 {
			break
		}
		available := ol.Quantity
		if skip >= available {
			skip -= available
			continue
		}
		available -= skip
		skip = 0
		take := min(available, qty)
		qty -= take
		out = append(out, ReturnLine{
			VariantID:    ol.VariantID,
			Quantity:     take,
			UnitPrice:    ol.UnitPrice,
			DiscountRate: ol.DiscountRate,
			Refund:       LineTotal(ol.UnitPrice, take, ol.DiscountRate),
		})
	}
	return out
}
