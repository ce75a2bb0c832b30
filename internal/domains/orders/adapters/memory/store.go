package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
	"github.com/Apurer/brix-market/internal/shared/projection"
)

var _ ports.Store = (*Store)(nil)

// Store is an in-memory order store used for demos/tests.
type Store struct {
	mu     sync.RWMutex
	orders map[int64]*storedOrder
	nextID int64
	now    func() time.Time
}

type storedOrder struct {
	order    domain.Order
	metadata projection.Metadata
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		orders: map[int64]*storedOrder{},
		now:    time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Save assigns an ID on first save and keeps the creation timestamp on updates.
func (s *Store) Save(_ context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error) {
	if order == nil {
		return nil, errors.New("cannot save nil order")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *order
	var previous *projection.Metadata
	if clone.ID == 0 {
		s.nextID++
		clone.ID = s.nextID
	} else {
		entry, ok := s.orders[clone.ID]
		if !ok {
			return nil, ports.ErrNotFound
		}
		previous = &entry.metadata
	}
	metadata := projection.Stamp(s.now(), previous)
	stored := &storedOrder{order: clone, metadata: metadata}
	s.orders[clone.ID] = stored
	order.ID = clone.ID
	return stored.projection(), nil
}

// FindByID fetches an order if present.
func (s *Store) FindByID(_ context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return entry.projection(), nil
}

// FindByIDForUpdate behaves like FindByID. Isolation comes from UnitOfWork.
func (s *Store) FindByIDForUpdate(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	return s.FindByID(ctx, id)
}

// FindActiveByBuyer returns the buyer's orders that are not cancelled, newest first.
func (s *Store) FindActiveByBuyer(_ context.Context, buyerID int64) ([]*projection.Projection[*domain.Order], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*projection.Projection[*domain.Order], 0)
	for _, entry := range s.orders {
		if entry.order.BuyerID != buyerID || entry.order.Status == domain.StatusCancelled {
			continue
		}
		list = append(list, entry.projection())
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Entity, list[j].Entity
		if !a.OrderDate.Equal(b.OrderDate) {
			return a.OrderDate.After(b.OrderDate)
		}
		return a.ID > b.ID
	})
	return list, nil
}

func (o *storedOrder) projection() *projection.Projection[*domain.Order] {
	order := o.order
	return projection.New(&order, o.metadata.CreatedAt, o.metadata.UpdatedAt)
}
