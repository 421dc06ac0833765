package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validDraft() Draft {
	return Draft{
		CashierID:     "cashier-1",
		Channel:       ChannelInPerson,
		PaymentMethod: PaymentCash,
		Lines: []LineDraft{
			{VariantID: "v1", Quantity: 3, UnitPrice: dec("100"), DiscountRate: dec("0.2")},
		},
	}
}

func TestNewOrder_DiscountedLineTotal(t *testing.T) {
	order, err := NewOrder("o1", validDraft(), time.Now())
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "240.00", order.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, "240.00", order.Total.StringFixed(2))
}

func TestNewOrder_TotalIsSumOfExactLineTotals(t *testing.T) {
	d := validDraft()
	d.Lines = []LineDraft{
		{VariantID: "v1", Quantity: 3, UnitPrice: dec("19.99"), DiscountRate: dec("0.15")},
		{VariantID: "v2", Quantity: 1, UnitPrice: dec("0.10"), DiscountRate: dec("0")},
		{VariantID: "v3", Quantity: 2, UnitPrice: dec("5"), DiscountRate: dec("1")},
	}
	order, err := NewOrder("o1", d, time.Now())
	require.NoError(t, err)

	expected := decimal.Zero
	for _, l := range d.Lines {
		expected = expected.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Mul(decimal.NewFromInt(1).Sub(l.DiscountRate)))
	}
	assert.True(t, expected.Equal(order.Total), "expected %s got %s", expected, order.Total)
	assert.True(t, dec("51.0745").Equal(order.Total))
}

func TestDraftValidate_Order(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Draft)
		field string
	}{
		{"no items wins over everything", func(d *Draft) { d.Lines = nil; d.Channel = "BAD"; d.CashierID = "" }, "lines"},
		{"quantity before enums", func(d *Draft) { d.Lines[0].Quantity = 0; d.Channel = "BAD" }, "lines[0].quantity"},
		{"discount above one", func(d *Draft) { d.Lines[0].DiscountRate = dec("1.01") }, "lines[0].discountRate"},
		{"negative discount", func(d *Draft) { d.Lines[0].DiscountRate = dec("-0.1") }, "lines[0].discountRate"},
		{"negative price", func(d *Draft) { d.Lines[0].UnitPrice = dec("-1") }, "lines[0].unitPrice"},
		{"missing cashier", func(d *Draft) { d.CashierID = " " }, "cashierId"},
		{"unknown channel", func(d *Draft) { d.Channel = "KIOSK" }, "channel"},
		{"unknown payment", func(d *Draft) { d.PaymentMethod = "BARTER" }, "paymentMethod"},
		{"online without address", func(d *Draft) { d.Channel = ChannelOnline }, "shippingAddress"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mut(&d)
			err := d.Validate()
			require.ErrorIs(t, err, ErrValidation)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestDraftValidate_NoItemsMessage(t *testing.T) {
	d := validDraft()
	d.Lines = nil
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no items")
}

func TestNewOrder_OnlineDefaultsCountry(t *testing.T) {
	d := validDraft()
	d.Channel = ChannelOnline
	d.ShippingAddress = &ShippingAddress{FullName: "Ana", Address: "Calle 1", City: "CDMX", State: "CDMX", ZipCode: "01000"}
	order, err := NewOrder("o1", d, time.Now())
	require.NoError(t, err)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, DefaultCountry, order.ShippingAddress.Country)
	assert.True(t, order.RequiresShipment())
}

func TestInsufficientStockError_Kinds(t *testing.T) {
	err := error(&InsufficientStockError{Shortfalls: []StockShortfall{{VariantID: "x", Requested: 1, Available: 0}}})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "x (requested 1, available 0)")

	transient := error(&TransientError{Op: "place order", Err: errors.New("timeout")})
	assert.True(t, IsRetryable(transient))
	assert.False(t, IsRetryable(err))
}
