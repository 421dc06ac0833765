package ports

import (
	"context"
	"errors"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
)

var (
	// ErrNotFound is returned when a variant cannot be located.
	ErrNotFound = errors.New("variant not found")
	// ErrDuplicateSKU is returned when a variant SKU (or product/size pair) is already registered.
	ErrDuplicateSKU = errors.New("variant sku already registered")
)

// Repository abstracts variant persistence.
type Repository interface {
	Create(ctx context.Context, variant *domain.Variant) (*domain.Variant, error)
	GetByID(ctx context.Context, id string) (*domain.Variant, error)
	List(ctx context.Context) ([]*domain.Variant, error)
	ListLowStock(ctx context.Context, threshold int) ([]*domain.Variant, error)
	// Restock adds quantity to the variant's stock and returns the updated variant.
	Restock(ctx context.Context, id string, quantity int) (*domain.Variant, error)
}

// StockLedger exposes the only stock mutations allowed outside restocking.
// Implementations may be bound to a caller-owned transaction.
type StockLedger interface {
	// Available returns the current stock or ErrNotFound.
	Available(ctx context.Context, id string) (int, error)
	// TryDecrement subtracts quantity only when stock >= quantity.
	// It reports false without error when the condition does not hold.
	TryDecrement(ctx context.Context, id string, quantity int) (bool, error)
	// Increment adds quantity to stock.
	Increment(ctx context.Context, id string, quantity int) error
}
