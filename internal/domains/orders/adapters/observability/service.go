package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/brix-market/internal/domains/orders/application"
	ordertypes "github.com/Apurer/brix-market/internal/domains/orders/application/types"
	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
)

const tracerName = "github.com/Apurer/brix-market/internal/domains/orders/adapters/observability/service"

// Service decorates the order engine with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the engine.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, requester userdomain.Principal, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.Int64("requester.id", requester.ID),
		attribute.Int64("listing.id", input.ListingID),
		attribute.Bool("order.idempotent", input.IdempotencyKey != ""),
	))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.Int64("buyer.id", requester.ID), slog.Int64("listing.id", input.ListingID))
	result, err := s.inner.CreateOrder(ctx, requester, input)
	if err != nil {
		return nil, s.handleError(ctx, span, "CreateOrder", err, "failed to place order", slog.Int64("listing.id", input.ListingID))
	}
	span.SetAttributes(attribute.Int64("order.id", result.Entity.ID))
	s.metrics.recordPlaced(ctx)
	s.logInfo(ctx, "order placed", slog.Int64("order.id", result.Entity.ID), slog.Int64("total", result.Entity.TotalPrice()))
	return result, nil
}

func (s *Service) ChangeStatus(ctx context.Context, requester userdomain.Principal, input ordertypes.ChangeStatusInput) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ChangeStatus", trace.WithAttributes(
		attribute.Int64("requester.id", requester.ID),
		attribute.Int64("order.id", input.OrderID),
		attribute.String("order.target_status", input.Status),
	))
	defer span.End()

	s.logInfo(ctx, "changing order status", slog.Int64("order.id", input.OrderID), slog.String("target", input.Status))
	result, err := s.inner.ChangeStatus(ctx, requester, input)
	if err != nil {
		return nil, s.handleError(ctx, span, "ChangeStatus", err, "failed to change order status", slog.Int64("order.id", input.OrderID))
	}
	s.metrics.recordTransition(ctx, result.Entity.Status)
	s.logInfo(ctx, "order status changed", slog.Int64("order.id", result.Entity.ID), slog.String("status", string(result.Entity.Status)))
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(
		attribute.Int64("requester.id", requester.ID),
		attribute.Int64("order.id", id.ID),
	))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.Int64("order.id", id.ID))
	result, err := s.inner.CancelOrder(ctx, requester, id)
	if err != nil {
		return nil, s.handleError(ctx, span, "CancelOrder", err, "failed to cancel order", slog.Int64("order.id", id.ID))
	}
	s.metrics.recordTransition(ctx, result.Entity.Status)
	s.logInfo(ctx, "order cancelled", slog.Int64("order.id", id.ID))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id.ID)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, "GetOrder", err, "failed to load order", slog.Int64("order.id", id.ID))
	}
	return result, nil
}

func (s *Service) ViewOrder(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ViewOrder", trace.WithAttributes(
		attribute.Int64("requester.id", requester.ID),
		attribute.Int64("order.id", id.ID),
	))
	defer span.End()

	result, err := s.inner.ViewOrder(ctx, requester, id)
	if err != nil {
		return nil, s.handleError(ctx, span, "ViewOrder", err, "failed to view order", slog.Int64("order.id", id.ID))
	}
	return result, nil
}

func (s *Service) GetShipping(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetShipping", trace.WithAttributes(
		attribute.Int64("requester.id", requester.ID),
		attribute.Int64("order.id", id.ID),
	))
	defer span.End()

	result, err := s.inner.GetShipping(ctx, requester, id)
	if err != nil {
		return nil, s.handleError(ctx, span, "GetShipping", err, "failed to load shipping", slog.Int64("order.id", id.ID))
	}
	return result, nil
}

func (s *Service) ListMyOrders(ctx context.Context, requester userdomain.Principal) ([]*ordertypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListMyOrders", trace.WithAttributes(attribute.Int64("requester.id", requester.ID)))
	defer span.End()

	result, err := s.inner.ListMyOrders(ctx, requester)
	if err != nil {
		return nil, s.handleError(ctx, span, "ListMyOrders", err, "failed to list orders", slog.Int64("buyer.id", requester.ID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) OrderHistory(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) ([]domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.OrderHistory", trace.WithAttributes(
		attribute.Int64("requester.id", requester.ID),
		attribute.Int64("order.id", id.ID),
	))
	defer span.End()

	result, err := s.inner.OrderHistory(ctx, requester, id)
	if err != nil {
		return nil, s.handleError(ctx, span, "OrderHistory", err, "failed to load order history", slog.Int64("order.id", id.ID))
	}
	span.SetAttributes(attribute.Int("events.count", len(result)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// handleError logs rule violations at warn and everything else at error.
func (s *Service) handleError(ctx context.Context, span trace.Span, op string, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	kind := application.KindOf(err)
	attrs = append(attrs, slog.String("error", err.Error()))
	if kind == nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
		return err
	}
	span.SetAttributes(attribute.String("order.error_kind", kind.Error()))
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, append(attrs, slog.String("kind", kind.Error()))...)
	if errors.Is(err, application.ErrForbidden) || errors.Is(err, application.ErrUnauthenticated) {
		s.metrics.recordDenied(ctx, op)
	}
	return err
}

type serviceMetrics struct {
	ordersPlaced metric.Int64Counter
	transitions  metric.Int64Counter
	denials      metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders placed"))
	transitions, _ := m.Int64Counter("orders.service.status_transitions", metric.WithDescription("Number of committed order status transitions"))
	denials, _ := m.Int64Counter("orders.service.authorization_denials", metric.WithDescription("Number of operations rejected by the authorization guard"))
	return serviceMetrics{ordersPlaced: ordersPlaced, transitions: transitions, denials: denials}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

func (m serviceMetrics) recordDenied(ctx context.Context, op string) {
	if m.denials != nil {
		m.denials.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	}
}

var _ ports.Service = (*Service)(nil)
