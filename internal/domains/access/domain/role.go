package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Ring is a privilege level. Lower rings hold more privilege; 0 is the administrator.
type Ring int

const (
	RingAdmin   Ring = 0
	RingManager Ring = 1
	RingCashier Ring = 2
	RingUser    Ring = 3
)

func (r Ring) Valid() bool { return r >= RingAdmin && r <= RingUser }

// Allows reports whether a holder of r may perform an operation whose ceiling is ceiling.
func (r Ring) Allows(ceiling Ring) bool { return r <= ceiling }

var (
	ErrInvalidRoleID   = errors.New("role id is required")
	ErrInvalidRoleName = errors.New("role name is required")
	ErrInvalidRing     = fmt.Errorf("ring must be between %d and %d", RingAdmin, RingUser)
)

// Role groups principals that share a ring. Modules lists the back-office panels the role sees.
type Role struct {
	ID        string
	Name      string
	Ring      Ring
	Modules   []string
	CreatedAt time.Time
}

func NewRole(id, name string, ring Ring, modules []string) (*Role, error) {
	role := &Role{
		ID:      strings.ToLower(strings.TrimSpace(id)),
		Name:    strings.TrimSpace(name),
		Ring:    ring,
		Modules: normalizeModules(modules),
	}
	if err := role.Validate(); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *Role) Validate() error {
	if r.ID == "" {
		return ErrInvalidRoleID
	}
	if r.Name == "" {
		return ErrInvalidRoleName
	}
	if !r.Ring.Valid() {
		return ErrInvalidRing
	}
	return nil
}

func normalizeModules(modules []string) []string {
	out := make([]string, 0, len(modules))
	seen := map[string]struct{}{}
	for _, m := range modules {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// DefaultRoles seeds a fresh registry.
func DefaultRoles() []*Role {
	return []*Role{
		{ID: "admin", Name: "Administrator", Ring: RingAdmin, Modules: []string{"sales", "inventory", "shipping", "roles", "reports"}},
		{ID: "manager", Name: "Manager", Ring: RingManager, Modules: []string{"sales", "inventory", "shipping", "reports"}},
		{ID: "cashier", Name: "Cashier", Ring: RingCashier, Modules: []string{"sales"}},
		{ID: "user", Name: "Customer", Ring: RingUser, Modules: []string{}},
	}
}
