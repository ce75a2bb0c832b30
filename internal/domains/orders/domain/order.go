package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// DefaultLeadDays is the delivery lead time applied when an order is placed.
const DefaultLeadDays = 3

var (
	ErrInvalidBuyer        = errors.New("buyer id must be greater than zero")
	ErrInvalidListingID    = errors.New("listing id must be greater than zero")
	ErrInvalidSeller       = errors.New("seller id must be greater than zero")
	ErrInvalidUnitPrice    = errors.New("unit price must be greater than zero")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrBlankAddress        = errors.New("delivery address is required")
	ErrInvalidStatus       = errors.New("order status is invalid")
	ErrInvalidLeadDays     = errors.New("lead days must not be negative")
	ErrTransitionForbidden = errors.New("order status transition is not allowed")
)

// transitions is the adjacency table of the order state machine.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusCancelled},
	StatusApproved:  {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: nil,
	StatusCancelled: nil,
}

// ParseStatus normalizes a requested status into the enum.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Valid reports whether the status is a member of the enum.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Cancellable reports whether a buyer may still cancel from this status.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TransitionError describes a rejected edge.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrTransitionForbidden }

// ListingSnapshot holds the listing facts copied into an order when it is placed.
type ListingSnapshot struct {
	ListingID int64
	Title     string
	UnitPrice int64
	SellerID  int64
}

// Order models a buyer's purchase of one listing.
type Order struct {
	ID                   int64
	BuyerID              int64
	ListingID            int64
	ListingTitle         string
	UnitPrice            int64
	SellerID             int64
	Quantity             int32
	Status               Status
	OrderDate            time.Time
	DeliveryAddress      string
	ExpectedDeliveryDate time.Time
}

// PlaceOrder carries everything needed to open a new order.
type PlaceOrder struct {
	BuyerID         int64
	Listing         ListingSnapshot
	Quantity        int32
	DeliveryAddress string
	OrderDate       time.Time
	LeadDays        int
}

// NewOrder validates and constructs a pending order from a listing snapshot.
func NewOrder(cmd PlaceOrder) (*Order, error) {
	if cmd.LeadDays < 0 {
		return nil, ErrInvalidLeadDays
	}
	orderDate := cmd.OrderDate.UTC()
	order := &Order{
		BuyerID:              cmd.BuyerID,
		ListingID:            cmd.Listing.ListingID,
		ListingTitle:         strings.TrimSpace(cmd.Listing.Title),
		UnitPrice:            cmd.Listing.UnitPrice,
		SellerID:             cmd.Listing.SellerID,
		Quantity:             cmd.Quantity,
		Status:               StatusPending,
		OrderDate:            orderDate,
		DeliveryAddress:      strings.TrimSpace(cmd.DeliveryAddress),
		ExpectedDeliveryDate: orderDate.AddDate(0, 0, cmd.LeadDays),
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if o.BuyerID <= 0 {
		return ErrInvalidBuyer
	}
	if o.ListingID <= 0 {
		return ErrInvalidListingID
	}
	if o.SellerID <= 0 {
		return ErrInvalidSeller
	}
	if o.UnitPrice <= 0 {
		return ErrInvalidUnitPrice
	}
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(o.DeliveryAddress) == "" {
		return ErrBlankAddress
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// TotalPrice is computed from the snapshotted unit price.
func (o *Order) TotalPrice() int64 {
	return o.UnitPrice * int64(o.Quantity)
}

// TransitionTo moves the order along one edge of the state machine.
func (o *Order) TransitionTo(target Status) error {
	if !target.Valid() {
		return ErrInvalidStatus
	}
	if !CanTransition(o.Status, target) {
		return &TransitionError{From: o.Status, To: target}
	}
	o.Status = target
	return nil
}

// Cancel moves a pending or approved order to cancelled.
func (o *Order) Cancel() error {
	if !o.Status.Cancellable() {
		return ErrNotCancellable
	}
	o.Status = StatusCancelled
	return nil
}
