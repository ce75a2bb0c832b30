package marketserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	orderhttpmapper "github.com/Apurer/brix-market/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/brix-market/internal/domains/orders/application/types"
	orderports "github.com/Apurer/brix-market/internal/domains/orders/ports"
	apierrors "github.com/Apurer/brix-market/internal/shared/errors"
)

// IdempotencyKeyHeader lets buyers retry order placement safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders bounded context service.
type OrderAPI struct {
	service orderports.Service
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service orderports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// Post /api/orders
// Place an order for a listing
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload CreateOrderRequest
	if !bindAndValidate(c, &payload) {
		return
	}
	input := ordertypes.PlaceOrderInput{
		ListingID:       payload.ListingID,
		Quantity:        payload.Quantity,
		DeliveryAddress: payload.DeliveryAddress,
		IdempotencyKey:  strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	}
	created, err := api.service.CreateOrder(c.Request.Context(), PrincipalFrom(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "order created", orderhttpmapper.FromProjection(created))
}

// Get /api/orders/my
// List the caller's orders, excluding cancelled ones
func (api *OrderAPI) ListMyOrders(c *gin.Context) {
	orders, err := api.service.ListMyOrders(c.Request.Context(), PrincipalFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "orders listed", orderhttpmapper.FromProjectionList(orders))
}

// Get /api/orders/:orderId
// Find order by ID
func (api *OrderAPI) ViewOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := api.service.ViewOrder(c.Request.Context(), PrincipalFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "order found", orderhttpmapper.FromProjection(order))
}

// Patch /api/orders/:orderId/status
// Move an order along the lifecycle (seller or administrator)
func (api *OrderAPI) ChangeOrderStatus(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	var status string
	if err := runtime.BindQueryParameter("form", true, true, "status", c.Request.URL.Query(), &status); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	updated, err := api.service.ChangeStatus(c.Request.Context(), PrincipalFrom(c), ordertypes.ChangeStatusInput{
		OrderID: id.ID,
		Status:  status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "order status updated", orderhttpmapper.FromProjection(updated))
}

// Get /api/orders/:orderId/shipping
// Delivery details of an order
func (api *OrderAPI) GetShipping(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := api.service.GetShipping(c.Request.Context(), PrincipalFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "shipping found", orderhttpmapper.ToShippingView(order.Entity))
}

// Patch /api/orders/:orderId/cancel
// Cancel a pending or approved order (buyer only)
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	cancelled, err := api.service.CancelOrder(c.Request.Context(), PrincipalFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "order cancelled", orderhttpmapper.FromProjection(cancelled))
}

// Get /api/orders/:orderId/history
// Journal of lifecycle events for an order
func (api *OrderAPI) OrderHistory(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	events, err := api.service.OrderHistory(c.Request.Context(), PrincipalFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "order history", orderhttpmapper.FromDomainEvents(events))
}

func parseOrderID(c *gin.Context) (ordertypes.OrderIdentifier, bool) {
	var id int64
	err := runtime.BindStyledParameterWithLocation("simple", false, "orderId", runtime.ParamLocationPath, c.Param("orderId"), &id)
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return ordertypes.OrderIdentifier{}, false
	}
	return ordertypes.OrderIdentifier{ID: id}, true
}
