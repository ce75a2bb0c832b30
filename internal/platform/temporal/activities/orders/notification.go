package orders

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"

	orderdomain "github.com/Apurer/brix-market/internal/domains/orders/domain"
	orderports "github.com/Apurer/brix-market/internal/domains/orders/ports"
)

const (
	// NotifyParticipantsActivityName delivers an order event to the buyer and seller.
	NotifyParticipantsActivityName = "orders.activities.NotifyParticipants"
	// MarkEventDispatchedActivityName stamps the journal entry once delivery succeeded.
	MarkEventDispatchedActivityName = "orders.activities.MarkEventDispatched"
)

// Activities groups activities that operate on committed order events.
type Activities struct {
	notifier orderports.Notifier
	journal  orderports.EventJournal
	now      func() time.Time
}

// NewActivities wires the orders collaborators into the Temporal activities bundle.
func NewActivities(notifier orderports.Notifier, journal orderports.EventJournal) *Activities {
	return &Activities{notifier: notifier, journal: journal, now: time.Now}
}

// NotifyParticipants sends the event summary to every participant of the order.
func (a *Activities) NotifyParticipants(ctx context.Context, event orderdomain.Event) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.notifier == nil {
		logger.Error("notify activity not initialized", "eventId", event.ID)
		return errors.New("notify activity not initialized")
	}
	logger.Info("NotifyParticipants activity started", "eventId", event.ID, "orderId", event.OrderID)
	if err := a.notifier.Notify(ctx, orderports.NotificationFor(event)); err != nil {
		logger.Error("NotifyParticipants activity failed", "eventId", event.ID, "error", err)
		return err
	}
	return nil
}

// MarkEventDispatched records delivery in the journal. Repeated calls keep the first timestamp.
func (a *Activities) MarkEventDispatched(ctx context.Context, eventID string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.journal == nil {
		logger.Error("mark dispatched activity not initialized", "eventId", eventID)
		return errors.New("mark dispatched activity not initialized")
	}
	if err := a.journal.MarkDispatched(ctx, eventID, a.now()); err != nil {
		logger.Error("MarkEventDispatched activity failed", "eventId", eventID, "error", err)
		return err
	}
	logger.Info("MarkEventDispatched activity completed", "eventId", eventID)
	return nil
}
