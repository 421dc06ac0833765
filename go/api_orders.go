package storefrontserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/storefront-api/internal/domains/access/adapters/http/auth"
	saleshttpmapper "github.com/Apurer/storefront-api/internal/domains/sales/adapters/http/mapper"
	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	salesports "github.com/Apurer/storefront-api/internal/domains/sales/ports"
	apierrors "github.com/Apurer/storefront-api/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry a sale without placing it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// OrdersAPI wires HTTP transport with the sales bounded context.
type OrdersAPI struct {
	service   salesports.Service
	placement salesports.PlacementOrchestrator
}

// NewOrdersAPI creates an OrdersAPI. A nil placement runs PlaceOrder on the service directly.
func NewOrdersAPI(service salesports.Service, placement salesports.PlacementOrchestrator) OrdersAPI {
	return OrdersAPI{service: service, placement: placement}
}

// Post /v1/orders
// Place an order, reserving stock for every line atomically
func (api *OrdersAPI) PlaceOrder(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		respondProblem(c, apierrors.ErrUnauthorized)
		return
	}
	var payload saleshttpmapper.PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		badRequest(c, errors.New("Idempotency-Key must be at most 128 characters"))
		return
	}
	cmd := saleshttpmapper.ToPlaceOrderCommand(payload, principal.UserID, key)

	var (
		result *salestypes.PlaceOrderResult
		err    error
	)
	if api.placement != nil {
		result, err = api.placement.PlaceOrder(c.Request.Context(), cmd)
	} else {
		result, err = api.service.PlaceOrder(c.Request.Context(), cmd)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.Header("Location", "/v1/orders/"+result.Order.ID)
	c.JSON(status, saleshttpmapper.FromPlaceOrderResult(result))
}

// Get /v1/orders
// List orders, newest first
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	query := salestypes.ListOrdersQuery{
		CustomerID: c.Query("customerId"),
		CashierID:  c.Query("cashierId"),
		Channel:    c.Query("channel"),
		Limit:      limit,
	}
	orders, err := api.service.ListOrders(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saleshttpmapper.FromOrders(orders))
}

// Get /v1/orders/:orderId
// Find order by ID
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	id, ok := pathString(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saleshttpmapper.FromOrder(order))
}

// Post /v1/orders/:orderId/returns
// Record returned goods and restore their stock
func (api *OrdersAPI) ProcessReturn(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		respondProblem(c, apierrors.ErrUnauthorized)
		return
	}
	id, ok := pathString(c, "orderId")
	if !ok {
		return
	}
	var payload saleshttpmapper.ReturnRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	ret, err := api.service.ProcessReturn(c.Request.Context(), saleshttpmapper.ToReturnCommand(id, principal.UserID, payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saleshttpmapper.FromReturn(ret))
}

// Get /v1/orders/:orderId/returns
// List returns recorded against an order
func (api *OrdersAPI) ListReturns(c *gin.Context) {
	id, ok := pathString(c, "orderId")
	if !ok {
		return
	}
	returns, err := api.service.ListReturns(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saleshttpmapper.FromReturns(returns))
}

// Get /v1/orders/:orderId/shipment
// Shipment of an online order
func (api *OrdersAPI) GetShipment(c *gin.Context) {
	id, ok := pathString(c, "orderId")
	if !ok {
		return
	}
	shipment, err := api.service.GetShipment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saleshttpmapper.FromShipment(shipment))
}

// Put /v1/orders/:orderId/shipping-status
// Move a shipment along Processing, Shipped, Delivered or Cancelled
func (api *OrdersAPI) UpdateShippingStatus(c *gin.Context) {
	id, ok := pathString(c, "orderId")
	if !ok {
		return
	}
	var payload saleshttpmapper.ShippingStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	shipment, err := api.service.UpdateShippingStatus(c.Request.Context(), salestypes.UpdateShippingCommand{
		OrderID:        id,
		Status:         payload.Status,
		TrackingNumber: payload.TrackingNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saleshttpmapper.FromShipment(shipment))
}

// Get /v1/shipments/:trackingNumber
// Public shipment tracking
func (api *OrdersAPI) TrackShipment(c *gin.Context) {
	tracking, ok := pathString(c, "trackingNumber")
	if !ok {
		return
	}
	shipment, err := api.service.TrackShipment(c.Request.Context(), tracking)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saleshttpmapper.FromShipment(shipment))
}
