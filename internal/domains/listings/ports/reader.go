package ports

import (
	"context"
	"errors"

	"github.com/Apurer/brix-market/internal/domains/listings/domain"
)

var ErrNotFound = errors.New("listing not found")

// Reader supplies listing facts at the instant an order is placed.
type Reader interface {
	GetListing(ctx context.Context, id int64) (*domain.Listing, error)
}

// Catalog is the write side used by seeding and tests.
type Catalog interface {
	Reader
	Put(ctx context.Context, listing *domain.Listing) (*domain.Listing, error)
}
