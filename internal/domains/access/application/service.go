package application

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
	"github.com/Apurer/storefront-api/internal/domains/access/ports"
)

// Service evaluates ring policies and manages the role registry.
type Service struct {
	roles  ports.RoleRepository
	policy domain.Policy
	now    func() time.Time
}

type Option func(*Service)

// WithPolicy replaces the default operation ceilings.
func WithPolicy(policy domain.Policy) Option {
	return func(s *Service) {
		if policy != nil {
			s.policy = policy
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(roles ports.RoleRepository, opts ...Option) *Service {
	s := &Service{roles: roles, policy: domain.DefaultPolicy(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Authorize checks principal against the ceiling configured for op.
// A principal whose role is not registered is denied rather than failed.
func (s *Service) Authorize(ctx context.Context, principal domain.Principal, op domain.Operation) (domain.Decision, error) {
	ceiling, err := s.policy.Ceiling(op)
	if err != nil {
		return domain.Decision{}, err
	}
	denied := domain.Decision{Allowed: false, Ring: -1, Ceiling: ceiling}
	if principal.RoleID == "" {
		return denied, nil
	}
	role, err := s.roles.GetByID(ctx, principal.RoleID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return denied, nil
		}
		return domain.Decision{}, err
	}
	return domain.Decision{Allowed: role.Ring.Allows(ceiling), Ring: role.Ring, Ceiling: ceiling}, nil
}

func (s *Service) CreateRole(ctx context.Context, input ports.CreateRoleInput) (*domain.Role, error) {
	role, err := domain.NewRole(input.ID, input.Name, domain.Ring(input.Ring), input.Modules)
	if err != nil {
		return nil, mapError(err)
	}
	role.CreatedAt = s.now().UTC()
	return s.roles.Create(ctx, role)
}

func (s *Service) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.List(ctx)
}

var _ ports.Service = (*Service)(nil)
