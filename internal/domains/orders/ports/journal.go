package ports

import (
	"context"
	"time"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
)

// EventJournal records order events alongside the order change that caused them.
type EventJournal interface {
	Append(ctx context.Context, event domain.Event) error
	ListByOrder(ctx context.Context, orderID int64) ([]domain.Event, error)
	MarkDispatched(ctx context.Context, eventID string, at time.Time) error
}

// NoopJournal discards events.
var NoopJournal EventJournal = noopJournal{}

type noopJournal struct{}

func (noopJournal) Append(context.Context, domain.Event) error { return nil }

func (noopJournal) ListByOrder(context.Context, int64) ([]domain.Event, error) { return nil, nil }

func (noopJournal) MarkDispatched(context.Context, string, time.Time) error { return nil }
