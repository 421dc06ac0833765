package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accesshttpmapper "github.com/Apurer/storefront-api/internal/domains/access/adapters/http/mapper"
	accessports "github.com/Apurer/storefront-api/internal/domains/access/ports"
)

// RolesAPI exposes the role registry.
type RolesAPI struct {
	service accessports.Service
}

func NewRolesAPI(service accessports.Service) RolesAPI {
	return RolesAPI{service: service}
}

// Get /v1/roles
// List roles ordered by ring
func (api *RolesAPI) ListRoles(c *gin.Context) {
	roles, err := api.service.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accesshttpmapper.FromRoles(roles))
}

// Post /v1/roles
// Register a role
func (api *RolesAPI) CreateRole(c *gin.Context) {
	var payload accesshttpmapper.CreateRoleRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	role, err := api.service.CreateRole(c.Request.Context(), accesshttpmapper.ToCreateInput(payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, accesshttpmapper.FromRole(role))
}
