package mapper

import (
	"time"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
	"github.com/Apurer/storefront-api/internal/domains/access/ports"
)

// CreateRoleRequest is the body of POST /v1/roles.
type CreateRoleRequest struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Ring    *int     `json:"ring"`
	Modules []string `json:"modules"`
}

type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Ring      int       `json:"ring"`
	Modules   []string  `json:"modules"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToCreateInput converts the request. A missing ring maps to -1 so validation rejects it.
func ToCreateInput(req CreateRoleRequest) ports.CreateRoleInput {
	ring := -1
	if req.Ring != nil {
		ring = *req.Ring
	}
	return ports.CreateRoleInput{ID: req.ID, Name: req.Name, Ring: ring, Modules: req.Modules}
}

func FromRole(r *domain.Role) Role {
	if r == nil {
		return Role{}
	}
	modules := r.Modules
	if modules == nil {
		modules = []string{}
	}
	return Role{ID: r.ID, Name: r.Name, Ring: int(r.Ring), Modules: modules, CreatedAt: r.CreatedAt}
}

func FromRoles(roles []*domain.Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, FromRole(r))
	}
	return out
}
