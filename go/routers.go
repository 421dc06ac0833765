package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accessdomain "github.com/Apurer/storefront-api/internal/domains/access/domain"
	apierrors "github.com/Apurer/storefront-api/internal/shared/errors"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// Operation is the guarded operation; empty means the route is public.
	Operation accessdomain.Operation
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// Guard produces per-route authorization middleware.
type Guard interface {
	Authenticate() gin.HandlerFunc
	Require(op accessdomain.Operation) gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers mounted by NewRouter.
type ApiHandleFunctions struct {
	OrdersAPI    OrdersAPI
	InventoryAPI InventoryAPI
	RolesAPI     RolesAPI
	Guard        Guard
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the API routes to an existing gin engine.
// Guarded routes answer 401 when no Guard is configured.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	if handleFunctions.Guard != nil {
		router.Use(handleFunctions.Guard.Authenticate())
	}
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := make([]gin.HandlerFunc, 0, 2)
		if route.Operation != "" {
			if handleFunctions.Guard != nil {
				handlers = append(handlers, handleFunctions.Guard.Require(route.Operation))
			} else {
				handlers = append(handlers, denyUnauthenticated)
			}
		}
		handlers = append(handlers, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

// DefaultHandleFunc is the handler for routes that have no implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func denyUnauthenticated(c *gin.Context) {
	respondProblem(c, apierrors.ErrUnauthorized.WithDetail("authentication is not configured"))
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	orders := handleFunctions.OrdersAPI
	inventory := handleFunctions.InventoryAPI
	roles := handleFunctions.RolesAPI
	return []Route{
		{"Healthz", http.MethodGet, "/healthz", "", Healthz},

		{"PlaceOrder", http.MethodPost, "/v1/orders", accessdomain.OpPlaceOrder, orders.PlaceOrder},
		{"ListOrders", http.MethodGet, "/v1/orders", accessdomain.OpListOrders, orders.ListOrders},
		{"GetOrder", http.MethodGet, "/v1/orders/:orderId", accessdomain.OpReadOrder, orders.GetOrder},
		{"ProcessReturn", http.MethodPost, "/v1/orders/:orderId/returns", accessdomain.OpReturnOrder, orders.ProcessReturn},
		{"ListReturns", http.MethodGet, "/v1/orders/:orderId/returns", accessdomain.OpReadOrder, orders.ListReturns},
		{"GetShipment", http.MethodGet, "/v1/orders/:orderId/shipment", accessdomain.OpReadOrder, orders.GetShipment},
		{"UpdateShippingStatus", http.MethodPut, "/v1/orders/:orderId/shipping-status", accessdomain.OpUpdateShipping, orders.UpdateShippingStatus},
		{"TrackShipment", http.MethodGet, "/v1/shipments/:trackingNumber", "", orders.TrackShipment},

		{"ListInventory", http.MethodGet, "/v1/inventory", "", inventory.ListInventory},
		{"LowStock", http.MethodGet, "/v1/inventory/low-stock", accessdomain.OpInventoryReport, inventory.LowStock},
		{"CreateVariant", http.MethodPost, "/v1/inventory/variants", accessdomain.OpWriteInventory, inventory.CreateVariant},
		{"GetVariant", http.MethodGet, "/v1/inventory/variants/:variantId", "", inventory.GetVariant},
		{"Restock", http.MethodPost, "/v1/inventory/variants/:variantId/restock", accessdomain.OpWriteInventory, inventory.Restock},

		{"ListRoles", http.MethodGet, "/v1/roles", accessdomain.OpManageRoles, roles.ListRoles},
		{"CreateRole", http.MethodPost, "/v1/roles", accessdomain.OpManageRoles, roles.CreateRole},
	}
}
