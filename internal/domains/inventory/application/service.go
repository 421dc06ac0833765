package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	"github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

// Service orchestrates variant registration, restocking and stock reports.
type Service struct {
	repo  ports.Repository
	newID func() string
}

// Option customizes the inventory service.
type Option func(*Service)

// WithIDGenerator overrides the variant id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) CreateVariant(ctx context.Context, input ports.CreateVariantInput) (*domain.Variant, error) {
	size, err := domain.ParseSize(input.Size)
	if err != nil {
		return nil, mapError(err)
	}
	variant, err := domain.NewVariant(s.newID(), input.ProductID, size, input.SKU, input.InitialStock)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Create(ctx, variant)
}

func (s *Service) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	if id == "" {
		return nil, mapError(domain.ErrInvalidVariantID)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListInventory(ctx context.Context) ([]*domain.Variant, error) {
	return s.repo.List(ctx)
}

// LowStock lists variants whose stock is at or below threshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]*domain.Variant, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must not be negative", ErrInvalidInput)
	}
	return s.repo.ListLowStock(ctx, threshold)
}

// Restock adds quantity to a variant. Stock is never overwritten with an absolute value.
func (s *Service) Restock(ctx context.Context, id string, quantity int) (*domain.Variant, error) {
	if id == "" {
		return nil, mapError(domain.ErrInvalidVariantID)
	}
	if err := domain.ValidateAdjustment(quantity); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Restock(ctx, id, quantity)
}

var _ ports.Service = (*Service)(nil)
