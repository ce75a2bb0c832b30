package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	listingports "github.com/Apurer/brix-market/internal/domains/listings/ports"
	ordertypes "github.com/Apurer/brix-market/internal/domains/orders/application/types"
	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
)

// DispatchErrorHandler observes events that committed but could not be handed off.
type DispatchErrorHandler func(ctx context.Context, event domain.Event, err error)

// Service runs the order lifecycle: placement, transitions, cancellation and guarded reads.
type Service struct {
	orders          ports.Store
	listings        listingports.Reader
	uow             ports.UnitOfWork
	journal         ports.EventJournal
	dispatcher      ports.EventDispatcher
	idempotency     ports.IdempotencyStore
	validate        *validator.Validate
	now             func() time.Time
	leadDays        int
	onDispatchError DispatchErrorHandler
}

// Option customises the service.
type Option func(*Service)

// WithUnitOfWork sets the transaction boundary used for every read-modify-write.
func WithUnitOfWork(uow ports.UnitOfWork) Option {
	return func(s *Service) {
		if uow != nil {
			s.uow = uow
		}
	}
}

// WithJournal records order events next to each mutation.
func WithJournal(journal ports.EventJournal) Option {
	return func(s *Service) {
		if journal != nil {
			s.journal = journal
		}
	}
}

// WithDispatcher hands committed events to asynchronous consumers.
func WithDispatcher(dispatcher ports.EventDispatcher) Option {
	return func(s *Service) {
		if dispatcher != nil {
			s.dispatcher = dispatcher
		}
	}
}

// WithIdempotencyStore enables replay of order placements carrying an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLeadDays overrides the delivery lead time.
func WithLeadDays(days int) Option {
	return func(s *Service) {
		if days >= 0 {
			s.leadDays = days
		}
	}
}

// WithDispatchErrorHandler replaces the default warning log for failed dispatches.
func WithDispatchErrorHandler(handler DispatchErrorHandler) Option {
	return func(s *Service) {
		if handler != nil {
			s.onDispatchError = handler
		}
	}
}

// NewService wires the engine. Without a unit of work option, mutations are not isolated.
func NewService(orders ports.Store, listings listingports.Reader, opts ...Option) *Service {
	s := &Service{
		orders:     orders,
		listings:   listings,
		uow:        ports.NoopUnitOfWork,
		journal:    ports.NoopJournal,
		dispatcher: ports.NoopDispatcher,
		validate:   validator.New(),
		now:        time.Now,
		leadDays:   domain.DefaultLeadDays,
		onDispatchError: func(ctx context.Context, event domain.Event, err error) {
			slog.Default().LogAttrs(ctx, slog.LevelWarn, "order event dispatch failed",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.EventName()),
				slog.Int64("order_id", event.OrderID),
				slog.String("error", err.Error()),
			)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder places a pending order for the requester against a snapshot of the listing.
func (s *Service) CreateOrder(ctx context.Context, requester userdomain.Principal, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error) {
	if err := domain.CanCreate(requester); err != nil {
		return nil, mapError(err)
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, mapError(domain.ErrBlankAddress)
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	var requestHash string
	if key != "" && s.idempotency != nil {
		hash, err := FingerprintPlaceOrder(requester.ID, input)
		if err != nil {
			return nil, err
		}
		requestHash = hash
	}

	var (
		saved  *ordertypes.OrderProjection
		events []domain.Event
	)
	place := func(ctx context.Context) error {
		saved, events = nil, nil
		if requestHash != "" {
			existing, err := s.idempotency.Lookup(ctx, requester.ID, key)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.RequestHash != requestHash {
					return ports.ErrIdempotencyConflict
				}
				replayed, err := s.orders.FindByID(ctx, existing.OrderID)
				if err != nil {
					return mapError(err)
				}
				saved = replayed
				return nil
			}
		}

		listing, err := s.listings.GetListing(ctx, input.ListingID)
		if err != nil {
			if errors.Is(err, listingports.ErrNotFound) {
				return &OrderError{Kind: ErrNotFound, Op: "create order", ListingID: input.ListingID, BuyerID: requester.ID, Err: ErrListingNotFound}
			}
			return err
		}
		order, err := domain.NewOrder(domain.PlaceOrder{
			BuyerID: requester.ID,
			Listing: domain.ListingSnapshot{
				ListingID: listing.ID,
				Title:     listing.Title,
				UnitPrice: listing.Price,
				SellerID:  listing.SellerID,
			},
			Quantity:        input.Quantity,
			DeliveryAddress: input.DeliveryAddress,
			OrderDate:       s.now(),
			LeadDays:        s.leadDays,
		})
		if err != nil {
			return mapError(err)
		}
		saved, err = s.orders.Save(ctx, order)
		if err != nil {
			return err
		}
		event := domain.NewEvent(s.newEventID(), domain.EventOrderPlaced, "", saved.Entity, requester.ID, s.now())
		if err := s.journal.Append(ctx, event); err != nil {
			return err
		}
		events = append(events, event)

		if requestHash != "" {
			if _, err := s.idempotency.Remember(ctx, ports.IdempotencyRecord{
				BuyerID:     requester.ID,
				Key:         key,
				RequestHash: requestHash,
				OrderID:     saved.Entity.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	}
	err := s.uow.RunInTx(ctx, place)
	if errors.Is(err, ports.ErrIdempotencyKeyTaken) {
		// Another request committed the key first; this attempt rolled back, so the rerun replays or conflicts.
		err = s.uow.RunInTx(ctx, place)
	}
	if err != nil {
		return nil, mapError(err)
	}
	s.dispatch(ctx, events)
	return saved, nil
}

// ChangeStatus moves an order one step along the state machine on behalf of its seller or an administrator.
func (s *Service) ChangeStatus(ctx context.Context, requester userdomain.Principal, input ordertypes.ChangeStatusInput) (*ordertypes.OrderProjection, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	var (
		saved  *ordertypes.OrderProjection
		events []domain.Event
	)
	place := func(ctx context.Context) error {
		saved, events = nil, nil
		current, err := s.orders.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			return notFound("change status", input.OrderID, err)
		}
		order := current.Entity
		if err := domain.CanChangeStatus(requester, order); err != nil {
			return orderFailure("change status", order, "", err)
		}
		target, err := domain.ParseStatus(input.Status)
		if err != nil {
			return orderFailure("change status", order, "", err)
		}
		previous := order.Status
		if err := order.TransitionTo(target); err != nil {
			return orderFailure("change status", order, target, err)
		}
		saved, err = s.orders.Save(ctx, order)
		if err != nil {
			return err
		}
		kind := domain.EventStatusChanged
		if target == domain.StatusCancelled {
			kind = domain.EventOrderCanceled
		}
		event := domain.NewEvent(s.newEventID(), kind, previous, saved.Entity, requester.ID, s.now())
		if err := s.journal.Append(ctx, event); err != nil {
			return err
		}
		events = append(events, event)
		return nil
	}
	err := s.uow.RunInTx(ctx, place)
	if err != nil {
		return nil, mapError(err)
	}
	s.dispatch(ctx, events)
	return saved, nil
}

// CancelOrder cancels a pending or approved order on behalf of its buyer.
func (s *Service) CancelOrder(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	if err := s.validateInput(id); err != nil {
		return nil, err
	}
	var (
		saved  *ordertypes.OrderProjection
		events []domain.Event
	)
	place := func(ctx context.Context) error {
		saved, events = nil, nil
		current, err := s.orders.FindByIDForUpdate(ctx, id.ID)
		if err != nil {
			return notFound("cancel order", id.ID, err)
		}
		order := current.Entity
		if err := domain.CanCancel(requester, order); err != nil {
			return orderFailure("cancel order", order, domain.StatusCancelled, err)
		}
		previous := order.Status
		if err := order.Cancel(); err != nil {
			return orderFailure("cancel order", order, domain.StatusCancelled, err)
		}
		saved, err = s.orders.Save(ctx, order)
		if err != nil {
			return err
		}
		event := domain.NewEvent(s.newEventID(), domain.EventOrderCanceled, previous, saved.Entity, requester.ID, s.now())
		if err := s.journal.Append(ctx, event); err != nil {
			return err
		}
		events = append(events, event)
		return nil
	}
	err := s.uow.RunInTx(ctx, place)
	if err != nil {
		return nil, mapError(err)
	}
	s.dispatch(ctx, events)
	return saved, nil
}

// GetOrder reads the stored order without authorization.
func (s *Service) GetOrder(ctx context.Context, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	if err := s.validateInput(id); err != nil {
		return nil, err
	}
	projection, err := s.orders.FindByID(ctx, id.ID)
	if err != nil {
		return nil, notFound("get order", id.ID, err)
	}
	return projection, nil
}

// ViewOrder reads an order on behalf of one of its participants.
func (s *Service) ViewOrder(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	return s.guardedRead(ctx, "view order", requester, id)
}

// GetShipping returns the order whose delivery details the requester may see.
func (s *Service) GetShipping(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	return s.guardedRead(ctx, "get shipping", requester, id)
}

// ListMyOrders lists the requester's orders that were not cancelled.
func (s *Service) ListMyOrders(ctx context.Context, requester userdomain.Principal) ([]*ordertypes.OrderProjection, error) {
	if !requester.Authenticated() {
		return nil, mapError(domain.ErrUnauthenticated)
	}
	orders, err := s.orders.FindActiveByBuyer(ctx, requester.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// OrderHistory returns the journal entries of an order in occurrence order.
func (s *Service) OrderHistory(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) ([]domain.Event, error) {
	if _, err := s.guardedRead(ctx, "order history", requester, id); err != nil {
		return nil, err
	}
	events, err := s.journal.ListByOrder(ctx, id.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

func (s *Service) guardedRead(ctx context.Context, op string, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	if !requester.Authenticated() {
		return nil, mapError(domain.ErrUnauthenticated)
	}
	projection, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CanView(requester, projection.Entity); err != nil {
		return nil, orderFailure(op, projection.Entity, "", err)
	}
	return projection, nil
}

func (s *Service) validateInput(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func (s *Service) newEventID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), ulid.DefaultEntropy()).String()
}

// dispatch runs after commit; failures never roll back the order change.
func (s *Service) dispatch(ctx context.Context, events []domain.Event) {
	for _, event := range events {
		if err := s.dispatcher.Dispatch(ctx, event); err != nil {
			s.onDispatchError(ctx, event, err)
		}
	}
}

func notFound(op string, orderID int64, err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return &OrderError{Kind: ErrNotFound, Op: op, OrderID: orderID, Err: ErrOrderNotFound}
	}
	return err
}

var _ ports.Service = (*Service)(nil)
