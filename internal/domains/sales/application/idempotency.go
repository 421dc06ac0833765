package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

type normalizedPlaceOrder struct {
	CashierID       string                  `json:"cashierId"`
	CustomerID      string                  `json:"customerId"`
	Channel         string                  `json:"channel"`
	PaymentMethod   string                  `json:"paymentMethod"`
	Lines           []normalizedLine        `json:"lines"`
	ShippingAddress *domain.ShippingAddress `json:"shippingAddress"`
}

type normalizedLine struct {
	VariantID    string `json:"variantId"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	DiscountRate string `json:"discountRate"`
}

// FingerprintPlaceOrder hashes the request payload, excluding the idempotency key.
// Equivalent decimals ("100" and "100.00") hash identically.
func FingerprintPlaceOrder(cmd salestypes.PlaceOrderCommand) (string, error) {
	payload, err := json.Marshal(normalizePlaceOrder(cmd))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizePlaceOrder(cmd salestypes.PlaceOrderCommand) normalizedPlaceOrder {
	n := normalizedPlaceOrder{
		CashierID:     strings.TrimSpace(cmd.CashierID),
		CustomerID:    strings.TrimSpace(cmd.CustomerID),
		Channel:       normalizeEnum(cmd.Channel),
		PaymentMethod: normalizeEnum(cmd.PaymentMethod),
		Lines:         make([]normalizedLine, 0, len(cmd.Lines)),
	}
	for _, l := range cmd.Lines {
		n.Lines = append(n.Lines, normalizedLine{
			VariantID:    strings.TrimSpace(l.VariantID),
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice.String(),
			DiscountRate: l.DiscountRate.String(),
		})
	}
	if cmd.ShippingAddress != nil {
		addr := *cmd.ShippingAddress
		if strings.TrimSpace(addr.Country) == "" {
			addr.Country = domain.DefaultCountry
		}
		n.ShippingAddress = &addr
	}
	return n
}

func normalizeEnum(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
