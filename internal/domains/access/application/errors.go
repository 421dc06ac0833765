package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
)

var (
	// ErrInvalidInput signals the request violated a role invariant.
	ErrInvalidInput = errors.New("invalid role input")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidRoleID) ||
		errors.Is(err, domain.ErrInvalidRoleName) ||
		errors.Is(err, domain.ErrInvalidRing) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
