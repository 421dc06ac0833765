package sales

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

// Application error types carried across the workflow boundary.
const (
	ErrTypeValidation          = "sales.Validation"
	ErrTypeNotFound            = "sales.NotFound"
	ErrTypeInsufficientStock   = "sales.InsufficientStock"
	ErrTypeIdempotencyConflict = "sales.IdempotencyConflict"
	ErrTypeTransient           = "sales.Transient"
	ErrTypeInternal            = "sales.Internal"
)

// NonRetryableErrorTypes lists the failures a retry can never fix.
var NonRetryableErrorTypes = []string{
	ErrTypeValidation,
	ErrTypeNotFound,
	ErrTypeInsufficientStock,
	ErrTypeIdempotencyConflict,
	ErrTypeInternal,
}

type errorDetail struct {
	Field      string                  `json:"field,omitempty"`
	Reason     string                  `json:"reason,omitempty"`
	Resource   string                  `json:"resource,omitempty"`
	ID         string                  `json:"id,omitempty"`
	Shortfalls []domain.StockShortfall `json:"shortfalls,omitempty"`
}

// EncodeError turns a sales error into a Temporal application error that keeps its kind.
func EncodeError(err error) error {
	if err == nil {
		return nil
	}
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		stock      *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, err,
			errorDetail{Field: validation.Field, Reason: validation.Reason})
	case errors.As(err, &notFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err,
			errorDetail{Resource: notFound.Resource, ID: notFound.ID})
	case errors.As(err, &stock):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInsufficientStock, err,
			errorDetail{Shortfalls: stock.Shortfalls})
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, err)
	case errors.Is(err, domain.ErrTransient):
		return temporal.NewApplicationErrorWithCause(err.Error(), ErrTypeTransient, err)
	default:
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInternal, err)
	}
}

// DecodeError restores the sales error kind from a workflow or activity failure.
// Failures reaching or waiting on Temporal itself come back as TransientError.
func DecodeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		if isTransientFailure(err) {
			return &domain.TransientError{Op: op, Err: err}
		}
		return &domain.InternalError{Op: op, Err: err}
	}
	var detail errorDetail
	if appErr.HasDetails() {
		if derr := appErr.Details(&detail); derr != nil {
			return &domain.InternalError{Op: op, Err: fmt.Errorf("decode %s details: %w", appErr.Type(), derr)}
		}
	}
	switch appErr.Type() {
	case ErrTypeValidation:
		return domain.NewValidationError(detail.Field, detail.Reason)
	case ErrTypeNotFound:
		return &domain.NotFoundError{Resource: detail.Resource, ID: detail.ID}
	case ErrTypeInsufficientStock:
		return &domain.InsufficientStockError{Shortfalls: detail.Shortfalls}
	case ErrTypeIdempotencyConflict:
		return fmt.Errorf("%w: %s", domain.ErrIdempotencyConflict, appErr.Message())
	case ErrTypeTransient:
		return &domain.TransientError{Op: op, Err: errors.New(appErr.Message())}
	default:
		return &domain.InternalError{Op: op, Err: errors.New(appErr.Message())}
	}
}

func isTransientFailure(err error) bool {
	var (
		timeout     *temporal.TimeoutError
		unavailable *serviceerror.Unavailable
		deadline    *serviceerror.DeadlineExceeded
		exhausted   *serviceerror.ResourceExhausted
	)
	return errors.As(err, &timeout) ||
		errors.As(err, &unavailable) ||
		errors.As(err, &deadline) ||
		errors.As(err, &exhausted) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
