package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/brix-market/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore provides an in-memory implementation for development and tests.
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[idempotencyKey]ports.IdempotencyRecord
	now     func() time.Time
}

type idempotencyKey struct {
	buyerID int64
	key     string
}

// NewIdempotencyStore constructs an empty in-memory store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[idempotencyKey]ports.IdempotencyRecord{},
		now:     time.Now,
	}
}

// Lookup returns the record for the buyer's key, or nil when absent.
func (s *IdempotencyStore) Lookup(_ context.Context, buyerID int64, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[idempotencyKey{buyerID: buyerID, key: key}]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Remember stores the record unless the key is already bound.
func (s *IdempotencyStore) Remember(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := idempotencyKey{buyerID: record.BuyerID, key: record.Key}
	if existing, ok := s.records[k]; ok {
		return &existing, ports.ErrIdempotencyKeyTaken
	}
	record.CreatedAt = s.now().UTC()
	s.records[k] = record
	return &record, nil
}
