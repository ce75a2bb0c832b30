package marketserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Public routes skip bearer authentication.
	Public bool
}

// ApiHandleFunctions groups the API implementations mounted by the router.
type ApiHandleFunctions struct {
	// Routes for the orders part of the API
	OrderAPI OrderAPI
	// Authenticator resolves the caller for protected routes. Nil leaves routes unprotected.
	Authenticator *Authenticator
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	var auth gin.HandlerFunc
	if handleFunctions.Authenticator != nil {
		auth = handleFunctions.Authenticator.Middleware()
	}
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := []gin.HandlerFunc{route.HandlerFunc}
		if !route.Public && auth != nil {
			handlers = append([]gin.HandlerFunc{auth}, handlers...)
		}
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

// DefaultHandleFunc answers routes that have no implementation yet.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			Name:        "Healthz",
			Method:      http.MethodGet,
			Pattern:     "/healthz",
			HandlerFunc: Healthz,
			Public:      true,
		},
		{
			"CreateOrder",
			http.MethodPost,
			"/api/orders",
			handleFunctions.OrderAPI.CreateOrder,
			false,
		},
		{
			"ListMyOrders",
			http.MethodGet,
			"/api/orders/my",
			handleFunctions.OrderAPI.ListMyOrders,
			false,
		},
		{
			"ViewOrder",
			http.MethodGet,
			"/api/orders/:orderId",
			handleFunctions.OrderAPI.ViewOrder,
			false,
		},
		{
			"ChangeOrderStatus",
			http.MethodPatch,
			"/api/orders/:orderId/status",
			handleFunctions.OrderAPI.ChangeOrderStatus,
			false,
		},
		{
			"GetShipping",
			http.MethodGet,
			"/api/orders/:orderId/shipping",
			handleFunctions.OrderAPI.GetShipping,
			false,
		},
		{
			"CancelOrder",
			http.MethodPatch,
			"/api/orders/:orderId/cancel",
			handleFunctions.OrderAPI.CancelOrder,
			false,
		},
		{
			"OrderHistory",
			http.MethodGet,
			"/api/orders/:orderId/history",
			handleFunctions.OrderAPI.OrderHistory,
			false,
		},
	}
}
