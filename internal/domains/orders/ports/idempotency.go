package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict reports a reused key whose payload differs from the first request.
var ErrIdempotencyConflict = errors.New("idempotency key reused with a different order request")

// ErrIdempotencyKeyTaken reports that another request bound the key first. The caller's
// transaction must be discarded and the placement retried so it replays the stored order.
var ErrIdempotencyKeyTaken = errors.New("idempotency key already bound")

// IdempotencyRecord binds a buyer-scoped client key to the order it created.
type IdempotencyRecord struct {
	BuyerID     int64
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
}

// IdempotencyStore remembers placement keys. Calls made inside UnitOfWork.RunInTx join the transaction.
type IdempotencyStore interface {
	// Lookup returns nil when the buyer never used the key.
	Lookup(ctx context.Context, buyerID int64, key string) (*IdempotencyRecord, error)
	// Remember binds the key. When the key is already bound it returns the stored record
	// with ErrIdempotencyKeyTaken and leaves the transaction usable.
	Remember(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
