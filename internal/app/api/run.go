package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	marketserver "github.com/Apurer/brix-market/go"
	ordersobs "github.com/Apurer/brix-market/internal/domains/orders/adapters/observability"
	orderworkflows "github.com/Apurer/brix-market/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/brix-market/internal/domains/orders/application"
	orderdomain "github.com/Apurer/brix-market/internal/domains/orders/domain"
	orderports "github.com/Apurer/brix-market/internal/domains/orders/ports"
	"github.com/Apurer/brix-market/internal/domains/users/adapters/auth"
	userapp "github.com/Apurer/brix-market/internal/domains/users/application"
	platformobservability "github.com/Apurer/brix-market/internal/platform/observability"
)

// ServiceName identifies the API process in telemetry.
const ServiceName = "brix-market-api"

const shutdownTimeout = 10 * time.Second

// Run boots the marketplace HTTP API with observability, stores, and event dispatch wired.
// It blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.Observability(ServiceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores, err := BuildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupStores()
	if cfg.SeedDemoData {
		if err := SeedDemoData(ctx, stores.Users, stores.Listings); err != nil {
			return err
		}
		logger.Info("demo marketplace data seeded")
	}

	codec, err := auth.NewHMACCodec(cfg.AuthJWTSecret, auth.WithIssuer(cfg.AuthJWTIssuer), auth.WithTTL(cfg.AuthTokenTTL))
	if err != nil {
		return err
	}
	userService := userapp.NewService(stores.Users, codec)

	notifier, err := BuildNotifier(cfg, logger)
	if err != nil {
		return err
	}
	var dispatcher orderports.EventDispatcher = orderworkflows.NewInlineEventDispatcher(notifier, stores.Journal)
	if temporalClient, err := ConnectTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, notifying inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		dispatcher = orderworkflows.NewTemporalEventDispatcher(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	coreOrderService := ordersapp.NewService(
		stores.Orders,
		stores.Listings,
		ordersapp.WithUnitOfWork(stores.UnitOfWork),
		ordersapp.WithJournal(stores.Journal),
		ordersapp.WithIdempotencyStore(stores.Idempotency),
		ordersapp.WithDispatcher(dispatcher),
		ordersapp.WithLeadDays(cfg.OrderLeadDays),
		ordersapp.WithDispatchErrorHandler(func(ctx context.Context, event orderdomain.Event, err error) {
			logger.LogAttrs(ctx, slog.LevelWarn, "order event left undispatched",
				slog.String("eventId", event.ID),
				slog.Int64("orderId", event.OrderID),
				slog.String("error", err.Error()),
			)
		}),
	)
	orderService := ordersobs.New(
		coreOrderService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	router := NewRouter(cfg, logger, marketserver.ApiHandleFunctions{
		OrderAPI:      marketserver.NewOrderAPI(orderService),
		Authenticator: marketserver.NewAuthenticator(userService, logger),
	})
	return serve(ctx, cfg.Addr(), router, logger)
}

// NewRouter assembles the gin engine with the middleware chain every request passes through.
func NewRouter(cfg Config, logger *slog.Logger, handlers marketserver.ApiHandleFunctions) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		marketserver.RequestIDMiddleware(),
		otelgin.Middleware(ServiceName),
		marketserver.LoggingMiddleware(logger),
		marketserver.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware(),
	)
	return marketserver.NewRouterWithGinEngine(router, handlers)
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("brix-market API listening", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("brix-market API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down brix-market API")
		return server.Shutdown(shutdownCtx)
	}
}
