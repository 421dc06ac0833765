package ports

import (
	"context"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
)

// CreateVariantInput carries the fields needed to register a variant.
type CreateVariantInput struct {
	ProductID    string
	Size         string
	SKU          string
	InitialStock int
}

// Service exposes inventory use cases to transport adapters.
type Service interface {
	CreateVariant(ctx context.Context, input CreateVariantInput) (*domain.Variant, error)
	GetVariant(ctx context.Context, id string) (*domain.Variant, error)
	ListInventory(ctx context.Context) ([]*domain.Variant, error)
	LowStock(ctx context.Context, threshold int) ([]*domain.Variant, error)
	Restock(ctx context.Context, id string, quantity int) (*domain.Variant, error)
}
