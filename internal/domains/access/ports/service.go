package ports

import (
	"context"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
)

// CreateRoleInput carries the fields needed to register a role.
type CreateRoleInput struct {
	ID      string
	Name    string
	Ring    int
	Modules []string
}

// Service exposes access checks and the role registry to transport adapters.
type Service interface {
	Authorize(ctx context.Context, principal domain.Principal, op domain.Operation) (domain.Decision, error)
	CreateRole(ctx context.Context, input CreateRoleInput) (*domain.Role, error)
	ListRoles(ctx context.Context) ([]*domain.Role, error)
}
