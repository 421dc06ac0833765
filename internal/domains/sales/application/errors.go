package application

import (
	"context"
	"errors"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	"github.com/Apurer/storefront-api/internal/domains/sales/ports"
)

const (
	opPlaceOrder     = "place order"
	opGetOrder       = "get order"
	opListOrders     = "list orders"
	opProcessReturn  = "process return"
	opListReturns    = "list returns"
	opShipment       = "load shipment"
	opUpdateShipment = "update shipment"
	opSweep          = "sweep deliveries"
)

// classify maps an adapter error onto the sales error taxonomy. Already typed errors pass through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrTransient) ||
		errors.Is(err, domain.ErrInternal) ||
		errors.Is(err, domain.ErrIdempotencyConflict) {
		return err
	}
	if errors.Is(err, ports.ErrTransient) ||
		errors.Is(err, ports.ErrStaleShipment) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return &domain.TransientError{Op: op, Err: err}
	}
	return &domain.InternalError{Op: op, Err: err}
}

func notFound(resource, id string, err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return err
}
