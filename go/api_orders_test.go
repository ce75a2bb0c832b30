package marketserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listingmemory "github.com/Apurer/brix-market/internal/domains/listings/adapters/memory"
	listingdomain "github.com/Apurer/brix-market/internal/domains/listings/domain"
	orderhttpmapper "github.com/Apurer/brix-market/internal/domains/orders/adapters/http/mapper"
	ordermemory "github.com/Apurer/brix-market/internal/domains/orders/adapters/memory"
	orderapp "github.com/Apurer/brix-market/internal/domains/orders/application"
	"github.com/Apurer/brix-market/internal/domains/users/adapters/auth"
	usermemory "github.com/Apurer/brix-market/internal/domains/users/adapters/memory"
	userapp "github.com/Apurer/brix-market/internal/domains/users/application"
	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
	apierrors "github.com/Apurer/brix-market/internal/shared/errors"
)

type testServer struct {
	router *gin.Engine
	tokens map[string]string
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	users := usermemory.NewRepository()
	for _, u := range []userdomain.User{
		{ID: 1, Username: "admin", Role: userdomain.RoleAdmin},
		{ID: 10, Username: "farmer", Role: userdomain.RoleUser},
		{ID: 20, Username: "buyer", Role: userdomain.RoleUser},
		{ID: 30, Username: "stranger", Role: userdomain.RoleUser},
	} {
		user := u
		_, err := users.Save(ctx, &user)
		require.NoError(t, err)
	}
	codec, err := auth.NewHMACCodec("test-secret", auth.WithIssuer("brix-market"))
	require.NoError(t, err)
	userService := userapp.NewService(users, codec)

	catalog := listingmemory.NewCatalog()
	_, err = catalog.Put(ctx, &listingdomain.Listing{
		ID: 7, Title: "Jeju tangerines 5kg", Price: 25000, Quantity: 40, SellerID: 10, Grade: listingdomain.GradeSpecial,
	})
	require.NoError(t, err)

	orders := orderapp.NewService(ordermemory.NewStore(), catalog,
		orderapp.WithUnitOfWork(ordermemory.NewUnitOfWork()),
		orderapp.WithJournal(ordermemory.NewJournal()),
		orderapp.WithIdempotencyStore(ordermemory.NewIdempotencyStore()),
	)

	router := gin.New()
	router.Use(RequestIDMiddleware(), limiter.Middleware())
	NewRouterWithGinEngine(router, ApiHandleFunctions{
		OrderAPI:      NewOrderAPI(orders),
		Authenticator: NewAuthenticator(userService, nil),
	})

	tokens := map[string]string{}
	for _, name := range []string{"admin", "farmer", "buyer", "stranger"} {
		token, err := userService.IssueToken(ctx, name)
		require.NoError(t, err)
		tokens[name] = token
	}
	return &testServer{router: router, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, caller string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[caller])
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) placeOrder(t *testing.T) orderhttpmapper.Order {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/orders", "buyer", CreateOrderRequest{
		ListingID: 7, Quantity: 2, DeliveryAddress: "12 Olle-ro, Jeju",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order orderhttpmapper.Order
	decodeEnvelope(t, rec, &order)
	return order
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	assert.Contains(t, rec.Header().Get("Content-Type"), apierrors.ContentTypeProblemJSON)
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestHealthzIsPublic(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestOrderRoutesRequireBearerToken(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/orders/my", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierrors.TypeUnauthorized, decodeProblem(t, rec).Type)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = srv.do(t, http.MethodGet, "/api/orders/my", "", nil, "Authorization", "Bearer not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/orders/my", "", nil, "Authorization", "Basic Zm9vOmJhcg==")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrderWrapsResponseInEnvelope(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodPost, "/api/orders", "buyer", CreateOrderRequest{
		ListingID: 7, Quantity: 3, DeliveryAddress: "12 Olle-ro, Jeju",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order orderhttpmapper.Order
	env := decodeEnvelope(t, rec, &order)
	assert.Equal(t, http.StatusCreated, env.Status)
	assert.Equal(t, "order created", env.Message)
	assert.Positive(t, order.OrderID)
	assert.Equal(t, "PENDING", order.Status)
	assert.Equal(t, int64(20), order.BuyerID)
	assert.Equal(t, int64(10), order.SellerID)
	assert.Equal(t, int64(75000), order.TotalPrice)
	assert.Equal(t, order.OrderDate.AddDate(0, 0, 3), order.ExpectedDeliveryDate)
}

func TestCreateOrderRejectsInvalidPayload(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/orders", "buyer", map[string]any{
		"listingId": 7, "quantity": 0, "deliveryAddress": "",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	fields, ok := problem.Extensions["fields"].(map[string]any)
	require.True(t, ok, "fields extension missing: %v", problem.Extensions)
	assert.Contains(t, fields, "quantity")
	assert.Contains(t, fields, "deliveryAddress")

	rec = srv.do(t, http.MethodPost, "/api/orders", "buyer", "not an object")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeBadRequest, decodeProblem(t, rec).Type)
}

func TestCreateOrderUnknownListingIsNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodPost, "/api/orders", "buyer", CreateOrderRequest{
		ListingID: 999, Quantity: 1, DeliveryAddress: "somewhere",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, decodeProblem(t, rec).Type)
}

func TestCreateOrderHonoursIdempotencyKey(t *testing.T) {
	srv := newTestServer(t, nil)
	payload := CreateOrderRequest{ListingID: 7, Quantity: 2, DeliveryAddress: "12 Olle-ro, Jeju"}

	first := srv.do(t, http.MethodPost, "/api/orders", "buyer", payload, IdempotencyKeyHeader, "retry-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := srv.do(t, http.MethodPost, "/api/orders", "buyer", payload, IdempotencyKeyHeader, "retry-1")
	require.Equal(t, http.StatusCreated, second.Code)

	var a, b orderhttpmapper.Order
	decodeEnvelope(t, first, &a)
	decodeEnvelope(t, second, &b)
	assert.Equal(t, a.OrderID, b.OrderID)

	payload.Quantity = 5
	conflict := srv.do(t, http.MethodPost, "/api/orders", "buyer", payload, IdempotencyKeyHeader, "retry-1")
	require.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, apierrors.TypeConflict, decodeProblem(t, conflict).Type)
}

func TestSellerApprovesThenBuyerCancels(t *testing.T) {
	srv := newTestServer(t, nil)
	order := srv.placeOrder(t)
	base := fmt.Sprintf("/api/orders/%d", order.OrderID)

	rec := srv.do(t, http.MethodPatch, base+"/status?status=APPROVED", "farmer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved orderhttpmapper.Order
	decodeEnvelope(t, rec, &approved)
	assert.Equal(t, "APPROVED", approved.Status)

	rec = srv.do(t, http.MethodPatch, base+"/cancel", "buyer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cancelled orderhttpmapper.Order
	decodeEnvelope(t, rec, &cancelled)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	rec = srv.do(t, http.MethodGet, "/api/orders/my", "buyer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []orderhttpmapper.Order
	decodeEnvelope(t, rec, &mine)
	assert.Empty(t, mine)

	rec = srv.do(t, http.MethodGet, base+"/history", "farmer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []orderhttpmapper.Event
	decodeEnvelope(t, rec, &history)
	require.Len(t, history, 3)
	assert.Equal(t, "order.placed", history[0].Type)
	assert.Equal(t, "order.status_changed", history[1].Type)
	assert.Equal(t, "order.cancelled", history[2].Type)
}

func TestChangeStatusDeniedForBuyer(t *testing.T) {
	srv := newTestServer(t, nil)
	order := srv.placeOrder(t)

	rec := srv.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status?status=APPROVED", order.OrderID), "buyer", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeForbidden, problem.Type)
	assert.EqualValues(t, order.OrderID, problem.Extensions["orderId"])
	assert.Equal(t, "PENDING", problem.Extensions["status"])
	assert.NotEmpty(t, problem.Extensions["reason"])
}

func TestChangeStatusRejectsSkippedStep(t *testing.T) {
	srv := newTestServer(t, nil)
	order := srv.placeOrder(t)

	rec := srv.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status?status=DELIVERED", order.OrderID), "admin", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.TypeInvalidState, decodeProblem(t, rec).Type)

	rec = srv.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status?status=LOST", order.OrderID), "admin", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec).Type)
}

func TestChangeStatusRequiresStatusQuery(t *testing.T) {
	srv := newTestServer(t, nil)
	order := srv.placeOrder(t)

	rec := srv.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", order.OrderID), "farmer", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeBadRequest, decodeProblem(t, rec).Type)
}

func TestCancelShippedOrderIsInvalidState(t *testing.T) {
	srv := newTestServer(t, nil)
	order := srv.placeOrder(t)
	base := fmt.Sprintf("/api/orders/%d", order.OrderID)

	for _, status := range []string{"APPROVED", "SHIPPED"} {
		rec := srv.do(t, http.MethodPatch, base+"/status?status="+status, "farmer", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := srv.do(t, http.MethodPatch, base+"/cancel", "buyer", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SHIPPED", decodeProblem(t, rec).Extensions["status"])

	rec = srv.do(t, http.MethodGet, base+"/shipping", "buyer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var shipping orderhttpmapper.Shipping
	decodeEnvelope(t, rec, &shipping)
	assert.True(t, shipping.Shipped)
	assert.False(t, shipping.Delivered)
}

func TestCancelByNonOwnerIsForbidden(t *testing.T) {
	srv := newTestServer(t, nil)
	order := srv.placeOrder(t)

	for _, caller := range []string{"farmer", "stranger", "admin"} {
		rec := srv.do(t, http.MethodPatch, fmt.Sprintf("/api/orders/%d/cancel", order.OrderID), caller, nil)
		require.Equal(t, http.StatusForbidden, rec.Code, caller)
	}
}

func TestViewOrderRestrictedToParticipants(t *testing.T) {
	srv := newTestServer(t, nil)
	order := srv.placeOrder(t)
	path := fmt.Sprintf("/api/orders/%d", order.OrderID)

	for _, caller := range []string{"buyer", "farmer", "admin"} {
		rec := srv.do(t, http.MethodGet, path, caller, nil)
		require.Equal(t, http.StatusOK, rec.Code, caller)
	}
	rec := srv.do(t, http.MethodGet, path, "stranger", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/orders/4040", "buyer", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/orders/abc", "buyer", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	srv := newTestServer(t, NewRateLimiter(0.001, 1))

	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, apierrors.TypeRateLimited, decodeProblem(t, rec).Type)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/healthz", "", nil, RequestIDHeader, "req-123")
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}
