package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
	"github.com/Apurer/storefront-api/internal/domains/access/ports"
)

var _ ports.RoleRepository = (*Repository)(nil)

// Repository keeps roles in memory. It starts with the default roles.
type Repository struct {
	mu    sync.RWMutex
	roles map[string]*domain.Role
}

func NewRepository() *Repository {
	r := &Repository{roles: map[string]*domain.Role{}}
	for _, role := range domain.DefaultRoles() {
		r.roles[role.ID] = role
	}
	return r
}

func (r *Repository) Create(_ context.Context, role *domain.Role) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.roles[role.ID]; exists {
		return nil, ports.ErrDuplicateRole
	}
	for _, existing := range r.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return nil, ports.ErrDuplicateRole
		}
	}
	stored := clone(role)
	r.roles[role.ID] = stored
	return clone(stored), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clone(role), nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Role, error) {
	r.mu.RLock()
	out := make([]*domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, clone(role))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ring != out[j].Ring {
			return out[i].Ring < out[j].Ring
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func clone(role *domain.Role) *domain.Role {
	c := *role
	c.Modules = append([]string(nil), role.Modules...)
	return &c
}
