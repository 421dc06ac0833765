package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	invhttpmapper "github.com/Apurer/storefront-api/internal/domains/inventory/adapters/http/mapper"
	invports "github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

// InventoryAPI wires HTTP transport with the inventory bounded context.
type InventoryAPI struct {
	service          invports.Service
	defaultThreshold int
}

// NewInventoryAPI creates an InventoryAPI. defaultThreshold applies when low-stock requests omit one.
func NewInventoryAPI(service invports.Service, defaultThreshold int) InventoryAPI {
	return InventoryAPI{service: service, defaultThreshold: defaultThreshold}
}

// Get /v1/inventory
// List every variant with its stock
func (api *InventoryAPI) ListInventory(c *gin.Context) {
	variants, err := api.service.ListInventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invhttpmapper.FromVariants(variants))
}

// Get /v1/inventory/low-stock
// Variants at or below the threshold
func (api *InventoryAPI) LowStock(c *gin.Context) {
	threshold, ok := queryInt(c, "threshold", api.defaultThreshold)
	if !ok {
		return
	}
	variants, err := api.service.LowStock(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invhttpmapper.FromVariants(variants))
}

// Post /v1/inventory/variants
// Register a product variant
func (api *InventoryAPI) CreateVariant(c *gin.Context) {
	var payload invhttpmapper.CreateVariantRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	variant, err := api.service.CreateVariant(c.Request.Context(), invhttpmapper.ToCreateInput(payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invhttpmapper.FromVariant(variant))
}

// Get /v1/inventory/variants/:variantId
// Find variant by ID
func (api *InventoryAPI) GetVariant(c *gin.Context) {
	id, ok := pathString(c, "variantId")
	if !ok {
		return
	}
	variant, err := api.service.GetVariant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invhttpmapper.FromVariant(variant))
}

// Post /v1/inventory/variants/:variantId/restock
// Add stock to a variant
func (api *InventoryAPI) Restock(c *gin.Context) {
	id, ok := pathString(c, "variantId")
	if !ok {
		return
	}
	var payload invhttpmapper.RestockRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	variant, err := api.service.Restock(c.Request.Context(), id, payload.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invhttpmapper.FromVariant(variant))
}
