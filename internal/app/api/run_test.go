package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketserver "github.com/Apurer/brix-market/go"
	ordersapp "github.com/Apurer/brix-market/internal/domains/orders/application"
	"github.com/Apurer/brix-market/internal/domains/users/adapters/auth"
	userapp "github.com/Apurer/brix-market/internal/domains/users/application"
)

func TestBuildStoresFallsBackToMemory(t *testing.T) {
	stores, cleanup, err := BuildStores(context.Background(), Config{}, slog.Default())
	require.NoError(t, err)
	defer cleanup()
	assert.False(t, stores.Durable)
}

func TestSeededRouterPlacesOrders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	cfg := Config{Port: "0", AuthJWTSecret: "test", AuthJWTIssuer: "brix-market", OrderLeadDays: 3}

	stores, cleanup, err := BuildStores(ctx, cfg, slog.Default())
	require.NoError(t, err)
	defer cleanup()
	require.NoError(t, SeedDemoData(ctx, stores.Users, stores.Listings))
	// Seeding twice keeps a single copy of every row.
	require.NoError(t, SeedDemoData(ctx, stores.Users, stores.Listings))

	codec, err := auth.NewHMACCodec(cfg.AuthJWTSecret, auth.WithIssuer(cfg.AuthJWTIssuer))
	require.NoError(t, err)
	users := userapp.NewService(stores.Users, codec)
	orders := ordersapp.NewService(stores.Orders, stores.Listings,
		ordersapp.WithUnitOfWork(stores.UnitOfWork),
		ordersapp.WithJournal(stores.Journal),
		ordersapp.WithIdempotencyStore(stores.Idempotency),
	)
	router := NewRouter(cfg, slog.Default(), marketserver.ApiHandleFunctions{
		OrderAPI:      marketserver.NewOrderAPI(orders),
		Authenticator: marketserver.NewAuthenticator(users, slog.Default()),
	})

	token, err := users.IssueToken(ctx, "buyer-lee")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{"listingId":1,"quantity":2,"deliveryAddress":"7 Hallasan-ro, Jeju"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Data struct {
			SellerID   int64 `json:"sellerId"`
			TotalPrice int64 `json:"totalPrice"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Data.SellerID)
	assert.Equal(t, int64(50000), body.Data.TotalPrice)
	assert.NotEmpty(t, rec.Header().Get(marketserver.RequestIDHeader))
}
