package ports

import (
	"context"
	"errors"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/shared/projection"
)

var ErrNotFound = errors.New("order not found")

// Store persists orders. Calls made with a context returned by UnitOfWork.RunInTx join that transaction.
type Store interface {
	// Save creates the order when ID is zero, otherwise updates it.
	Save(ctx context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error)
	FindByID(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error)
	// FindByIDForUpdate reads the order and holds a write lock on it until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error)
	// FindActiveByBuyer excludes cancelled orders, newest first.
	FindActiveByBuyer(ctx context.Context, buyerID int64) ([]*projection.Projection[*domain.Order], error)
}

// UnitOfWork runs fn inside one transaction boundary.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopUnitOfWork runs fn directly. Suitable only for single-caller tests.
var NoopUnitOfWork UnitOfWork = noopUnitOfWork{}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
