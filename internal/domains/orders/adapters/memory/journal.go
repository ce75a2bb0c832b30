package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
)

var _ ports.EventJournal = (*Journal)(nil)

// Journal keeps order events in memory.
type Journal struct {
	mu     sync.RWMutex
	events []domain.Event
	index  map[string]int
}

// NewJournal constructs an empty journal.
func NewJournal() *Journal {
	return &Journal{index: map[string]int{}}
}

// Append records the event. Appending an ID twice is a no-op.
func (j *Journal) Append(_ context.Context, event domain.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.index[event.ID]; ok {
		return nil
	}
	j.index[event.ID] = len(j.events)
	j.events = append(j.events, event)
	return nil
}

// ListByOrder returns the order's events in occurrence order.
func (j *Journal) ListByOrder(_ context.Context, orderID int64) ([]domain.Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []domain.Event
	for _, event := range j.events {
		if event.OrderID == orderID {
			out = append(out, cloneEvent(event))
		}
	}
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].OccurredAt.Before(out[k].OccurredAt)
	})
	return out, nil
}

// MarkDispatched stamps the event as delivered. Unknown IDs are ignored.
func (j *Journal) MarkDispatched(_ context.Context, eventID string, at time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	i, ok := j.index[eventID]
	if !ok {
		return nil
	}
	stamp := at.UTC()
	j.events[i].DispatchedAt = &stamp
	return nil
}

func cloneEvent(event domain.Event) domain.Event {
	if event.DispatchedAt != nil {
		at := *event.DispatchedAt
		event.DispatchedAt = &at
	}
	return event
}
