package sales

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

func TestDecodeError_RoundTripsShortfalls(t *testing.T) {
	shortfall := domain.StockShortfall{VariantID: "v1", Requested: 3, Available: 1}
	encoded := EncodeError(&domain.InsufficientStockError{Shortfalls: []domain.StockShortfall{shortfall}})

	err := DecodeError("place order", encoded)

	var stock *domain.InsufficientStockError
	require.True(t, errors.As(err, &stock))
	assert.Equal(t, []domain.StockShortfall{shortfall}, stock.Shortfalls)
}

func TestDecodeError_TemporalUnreachableIsTransient(t *testing.T) {
	for name, cause := range map[string]error{
		"unavailable":      serviceerror.NewUnavailable("frontend down"),
		"rpc deadline":     serviceerror.NewDeadlineExceeded("deadline"),
		"workflow timeout": temporal.NewTimeoutError(enumspb.TIMEOUT_TYPE_START_TO_CLOSE, nil),
		"context deadline": fmt.Errorf("get result: %w", context.DeadlineExceeded),
		"caller went away": context.Canceled,
	} {
		t.Run(name, func(t *testing.T) {
			err := DecodeError("place order", cause)
			assert.ErrorIs(t, err, domain.ErrTransient)
		})
	}
}

func TestDecodeError_UnknownFailureIsInternal(t *testing.T) {
	err := DecodeError("place order", errors.New("workflow task panicked"))
	assert.ErrorIs(t, err, domain.ErrInternal)

	err = DecodeError("place order", temporal.NewApplicationError("boom", "SomethingElse"))
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestDecodeError_UndecodableDetailsAreInternal(t *testing.T) {
	malformed := temporal.NewApplicationError("lines: no items", ErrTypeValidation, "not an error detail")

	err := DecodeError("place order", malformed)

	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.NotErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), ErrTypeValidation)
}
