package memory

import (
	"context"
	"sync"

	"github.com/Apurer/brix-market/internal/domains/orders/ports"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

type txKey struct{}

// UnitOfWork serializes units of work across the process. Writes are not rolled back on error.
type UnitOfWork struct {
	mu sync.Mutex
}

// NewUnitOfWork constructs a process-wide unit of work.
func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{}
}

// RunInTx runs fn while holding the lock. Nested calls join the outer unit.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == u {
		return fn(ctx)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, u))
}
