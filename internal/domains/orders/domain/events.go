package domain

import (
	"fmt"
	"time"
)

// EventType identifies what happened to an order.
type EventType string

const (
	EventOrderPlaced   EventType = "order.placed"
	EventStatusChanged EventType = "order.status_changed"
	EventOrderCanceled EventType = "order.cancelled"
)

// Event is a journal entry recorded in the same transaction as the order change.
type Event struct {
	ID             string
	OrderID        int64
	Type           EventType
	PreviousStatus Status
	CurrentStatus  Status
	ActorID        int64
	BuyerID        int64
	SellerID       int64
	OccurredAt     time.Time
	DispatchedAt   *time.Time
}

// EventName returns the event type identifier.
func (e Event) EventName() string {
	return string(e.Type)
}

// Recipients lists the users interested in the event, without duplicates.
func (e Event) Recipients() []int64 {
	if e.BuyerID == e.SellerID {
		return []int64{e.BuyerID}
	}
	return []int64{e.BuyerID, e.SellerID}
}

// NewEvent snapshots an order change for the journal.
func NewEvent(id string, kind EventType, previous Status, order *Order, actorID int64, at time.Time) Event {
	return Event{
		ID:             id,
		OrderID:        order.ID,
		Type:           kind,
		PreviousStatus: previous,
		CurrentStatus:  order.Status,
		ActorID:        actorID,
		BuyerID:        order.BuyerID,
		SellerID:       order.SellerID,
		OccurredAt:     at.UTC(),
	}
}

// Summary renders a human readable line for notifications.
func (e Event) Summary() string {
	switch e.Type {
	case EventOrderPlaced:
		return fmt.Sprintf("order #%d placed", e.OrderID)
	case EventOrderCanceled:
		return fmt.Sprintf("order #%d cancelled (was %s)", e.OrderID, e.PreviousStatus)
	default:
		return fmt.Sprintf("order #%d moved from %s to %s", e.OrderID, e.PreviousStatus, e.CurrentStatus)
	}
}
