package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/brix-market/internal/domains/listings/domain"
	"github.com/Apurer/brix-market/internal/domains/listings/ports"
)

var _ ports.Catalog = (*Catalog)(nil)

// Catalog keeps listings in memory.
type Catalog struct {
	mu       sync.RWMutex
	listings map[int64]*domain.Listing
	nextID   int64
}

func NewCatalog() *Catalog {
	return &Catalog{listings: map[int64]*domain.Listing{}}
}

func (c *Catalog) Put(_ context.Context, listing *domain.Listing) (*domain.Listing, error) {
	if listing == nil {
		return nil, errors.New("listing is nil")
	}
	clone := *listing
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if clone.ID == 0 {
		c.nextID++
		clone.ID = c.nextID
	} else if clone.ID > c.nextID {
		c.nextID = clone.ID
	}
	c.listings[clone.ID] = &clone
	saved := clone
	return &saved, nil
}

func (c *Catalog) GetListing(_ context.Context, id int64) (*domain.Listing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	listing, ok := c.listings[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *listing
	return &clone, nil
}
