package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
)

var (
	// ErrInvalidInput signals the request violated a variant invariant.
	ErrInvalidInput = errors.New("invalid inventory input")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidVariantID) ||
		errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidSize) ||
		errors.Is(err, domain.ErrEmptySKU) ||
		errors.Is(err, domain.ErrNegativeStock) ||
		errors.Is(err, domain.ErrInvalidAdjustment) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
