package mapper

import (
	"time"

	ordertypes "github.com/Apurer/brix-market/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/brix-market/internal/domains/orders/domain"
)

// Order is the transport shape of an order.
type Order struct {
	OrderID              int64     `json:"orderId"`
	BuyerID              int64     `json:"buyerId"`
	SellerID             int64     `json:"sellerId"`
	ListingID            int64     `json:"listingId"`
	ListingTitle         string    `json:"listingTitle"`
	UnitPrice            int64     `json:"unitPrice"`
	Quantity             int32     `json:"quantity"`
	TotalPrice           int64     `json:"totalPrice"`
	Status               string    `json:"status"`
	OrderDate            time.Time `json:"orderDate"`
	DeliveryAddress      string    `json:"deliveryAddress"`
	ExpectedDeliveryDate time.Time `json:"expectedDeliveryDate"`
	UpdatedAt            time.Time `json:"updatedAt,omitempty"`
}

// Shipping is the delivery view of an order.
type Shipping struct {
	OrderID              int64     `json:"orderId"`
	Status               string    `json:"status"`
	DeliveryAddress      string    `json:"deliveryAddress"`
	ExpectedDeliveryDate time.Time `json:"expectedDeliveryDate"`
	Shipped              bool      `json:"shipped"`
	Delivered            bool      `json:"delivered"`
}

// Event is the transport shape of a journal entry.
type Event struct {
	EventID        string     `json:"eventId"`
	Type           string     `json:"type"`
	PreviousStatus string     `json:"previousStatus,omitempty"`
	CurrentStatus  string     `json:"currentStatus"`
	ActorID        int64      `json:"actorId"`
	OccurredAt     time.Time  `json:"occurredAt"`
	DispatchedAt   *time.Time `json:"dispatchedAt,omitempty"`
}

// FromDomainOrder renders an order. A nil order renders the zero value.
func FromDomainOrder(order *orderdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	return Order{
		OrderID:              order.ID,
		BuyerID:              order.BuyerID,
		SellerID:             order.SellerID,
		ListingID:            order.ListingID,
		ListingTitle:         order.ListingTitle,
		UnitPrice:            order.UnitPrice,
		Quantity:             order.Quantity,
		TotalPrice:           order.TotalPrice(),
		Status:               string(order.Status),
		OrderDate:            order.OrderDate.UTC(),
		DeliveryAddress:      order.DeliveryAddress,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate.UTC(),
	}
}

// FromProjection renders an order together with its last update time.
func FromProjection(projection *ordertypes.OrderProjection) Order {
	if projection == nil {
		return Order{}
	}
	out := FromDomainOrder(projection.Entity)
	out.UpdatedAt = projection.Metadata.UpdatedAt.UTC()
	return out
}

// FromProjectionList renders a list, never returning nil so it encodes as [].
func FromProjectionList(projections []*ordertypes.OrderProjection) []Order {
	out := make([]Order, 0, len(projections))
	for _, p := range projections {
		if p == nil {
			continue
		}
		out = append(out, FromProjection(p))
	}
	return out
}

// ToShippingView renders the delivery details of an order.
func ToShippingView(order *orderdomain.Order) Shipping {
	if order == nil {
		return Shipping{}
	}
	return Shipping{
		OrderID:              order.ID,
		Status:               string(order.Status),
		DeliveryAddress:      order.DeliveryAddress,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate.UTC(),
		Shipped:              order.Status == orderdomain.StatusShipped || order.Status == orderdomain.StatusDelivered,
		Delivered:            order.Status == orderdomain.StatusDelivered,
	}
}

// FromDomainEvents renders an order history.
func FromDomainEvents(events []orderdomain.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, Event{
			EventID:        e.ID,
			Type:           e.EventName(),
			PreviousStatus: string(e.PreviousStatus),
			CurrentStatus:  string(e.CurrentStatus),
			ActorID:        e.ActorID,
			OccurredAt:     e.OccurredAt.UTC(),
			DispatchedAt:   e.DispatchedAt,
		})
	}
	return out
}
