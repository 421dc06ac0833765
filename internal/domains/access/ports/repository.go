package ports

import (
	"context"
	"errors"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
)

var (
	// ErrNotFound is returned when a role cannot be located.
	ErrNotFound = errors.New("role not found")
	// ErrDuplicateRole is returned when a role id or name is already registered.
	ErrDuplicateRole = errors.New("role already registered")
)

// RoleRepository abstracts role persistence.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) (*domain.Role, error)
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	// List returns roles ordered by ring, then id.
	List(ctx context.Context) ([]*domain.Role, error)
}
