package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
)

// Error kinds surfaced by the engine. Every failure returned by Service matches exactly one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrListingNotFound = fmt.Errorf("listing %w", ErrNotFound)
)

// OrderError carries the context of a rejected operation.
type OrderError struct {
	Kind      error
	Op        string
	OrderID   int64
	ListingID int64
	BuyerID   int64
	SellerID  int64
	Status    domain.Status
	Target    domain.Status
	Err       error
}

func (e *OrderError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.OrderID > 0 {
		fmt.Fprintf(&b, " (order %d", e.OrderID)
		if e.Status != "" {
			fmt.Fprintf(&b, ", status %s", e.Status)
		}
		b.WriteString(")")
	} else if e.ListingID > 0 {
		fmt.Fprintf(&b, " (listing %d)", e.ListingID)
	}
	return b.String()
}

func (e *OrderError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Reason returns the underlying rule violation without operation context.
func (e *OrderError) Reason() string {
	if e.Err == nil {
		if e.Kind == nil {
			return ""
		}
		return e.Kind.Error()
	}
	return e.Err.Error()
}

// KindOf classifies err into one of the engine error kinds, or nil when it is not an engine error.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrInvalidState, ErrValidation, ErrUnauthenticated, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrOrderNotFound, err)
	case errors.Is(err, ports.ErrIdempotencyConflict), errors.Is(err, ports.ErrIdempotencyKeyTaken):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, domain.ErrUnauthenticated):
		return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	case errors.Is(err, domain.ErrNotOrderOwner),
		errors.Is(err, domain.ErrNotSellerOrAdmin),
		errors.Is(err, domain.ErrNotParticipant):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, domain.ErrNotCancellable),
		errors.Is(err, domain.ErrTransitionForbidden):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case errors.Is(err, domain.ErrInvalidBuyer),
		errors.Is(err, domain.ErrInvalidListingID),
		errors.Is(err, domain.ErrInvalidSeller),
		errors.Is(err, domain.ErrInvalidUnitPrice),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrBlankAddress),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidLeadDays):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}

// orderFailure classifies a domain error and attaches the order context.
func orderFailure(op string, order *domain.Order, target domain.Status, err error) error {
	if err == nil {
		return nil
	}
	oe := &OrderError{Kind: KindOf(mapError(err)), Op: op, Target: target, Err: err}
	if order != nil {
		oe.OrderID = order.ID
		oe.ListingID = order.ListingID
		oe.BuyerID = order.BuyerID
		oe.SellerID = order.SellerID
		oe.Status = order.Status
	}
	if oe.Kind == nil {
		return err
	}
	return oe
}
