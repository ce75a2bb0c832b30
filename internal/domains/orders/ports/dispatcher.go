package ports

import (
	"context"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
)

// EventDispatcher hands committed events to asynchronous consumers.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event domain.Event) error
}

// NoopDispatcher drops events.
var NoopDispatcher EventDispatcher = noopDispatcher{}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, domain.Event) error { return nil }

// Notification is the message delivered to order participants.
type Notification struct {
	EventID    string
	OrderID    int64
	Type       domain.EventType
	Recipients []int64
	Message    string
}

// Notifier delivers notifications to order participants.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// NotificationFor addresses an event to its participants.
func NotificationFor(event domain.Event) Notification {
	return Notification{
		EventID:    event.ID,
		OrderID:    event.OrderID,
		Type:       event.Type,
		Recipients: event.Recipients(),
		Message:    event.Summary(),
	}
}
