package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ShippingStatus tracks fulfilment of an online order.
type ShippingStatus string

const (
	ShippingProcessing ShippingStatus = "Processing"
	ShippingShipped    ShippingStatus = "Shipped"
	ShippingDelivered  ShippingStatus = "Delivered"
	ShippingCancelled  ShippingStatus = "Cancelled"
)

// TrackingPrefix starts every generated tracking number.
const TrackingPrefix = "SS-"

var shippingTransitions = map[ShippingStatus][]ShippingStatus{
	ShippingProcessing: {ShippingShipped, ShippingCancelled},
	ShippingShipped:    {ShippingDelivered, ShippingCancelled},
}

// ParseShippingStatus accepts a status name case-insensitively.
func ParseShippingStatus(raw string) (ShippingStatus, error) {
	raw = strings.TrimSpace(raw)
	for _, s := range []ShippingStatus{ShippingProcessing, ShippingShipped, ShippingDelivered, ShippingCancelled} {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown shipping status %q", raw))
}

// Shipment is the mutable fulfilment record attached to an online order.
type Shipment struct {
	OrderID        string         `json:"orderId"`
	TrackingNumber string         `json:"trackingNumber"`
	Status         ShippingStatus `json:"status"`
	ShippedAt      *time.Time     `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time     `json:"deliveredAt,omitempty"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NewShipment starts a shipment in Processing.
func NewShipment(orderID, trackingNumber string, now time.Time) *Shipment {
	return &Shipment{
		OrderID:        orderID,
		TrackingNumber: trackingNumber,
		Status:         ShippingProcessing,
		UpdatedAt:      now.UTC(),
	}
}

// Terminal reports whether no further transitions are possible.
func (s *Shipment) Terminal() bool {
	return s.Status == ShippingDelivered || s.Status == ShippingCancelled
}

// TransitionTo moves the shipment to next, enforcing the allowed transitions.
func (s *Shipment) TransitionTo(next ShippingStatus, now time.Time) error {
	for _, allowed := range shippingTransitions[s.Status] {
		if allowed != next {
			continue
		}
		now = now.UTC()
		s.Status = next
		s.UpdatedAt = now
		switch next {
		case ShippingShipped:
			s.ShippedAt = &now
		case ShippingDelivered:
			s.DeliveredAt = &now
		}
		return nil
	}
	return NewValidationError("status", fmt.Sprintf("cannot move shipment from %s to %s", s.Status, next))
}

// NewTrackingNumber returns SS- followed by 12 random upper-case hex characters.
func NewTrackingNumber() string {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%s%012X", TrackingPrefix, time.Now().UnixMilli())
	}
	return TrackingPrefix + strings.ToUpper(hex.EncodeToString(buf[:]))
}
