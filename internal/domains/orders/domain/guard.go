package domain

import (
	"errors"

	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
)

// Guard denials. Each names the rule that failed so callers can explain it.
var (
	ErrUnauthenticated  = errors.New("caller is not authenticated")
	ErrNotOrderOwner    = errors.New("order belongs to another buyer")
	ErrNotCancellable   = errors.New("order can no longer be cancelled")
	ErrNotSellerOrAdmin = errors.New("only the listing seller or an administrator may change the order status")
	ErrNotParticipant   = errors.New("only the buyer, the seller, or an administrator may view this order")
)

// CanCreate permits any authenticated caller to buy.
func CanCreate(requester userdomain.Principal) error {
	if !requester.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// CanCancel permits only the buyer, and only while the order is pending or approved.
// Ownership is checked before state.
func CanCancel(requester userdomain.Principal, order *Order) error {
	if !requester.Authenticated() {
		return ErrUnauthenticated
	}
	if order == nil || requester.ID != order.BuyerID {
		return ErrNotOrderOwner
	}
	if !order.Status.Cancellable() {
		return ErrNotCancellable
	}
	return nil
}

// CanChangeStatus permits administrators and the seller of the snapshotted listing.
// Buyers may only cancel, even when they also sell the listing.
func CanChangeStatus(requester userdomain.Principal, order *Order) error {
	if order == nil {
		return ErrNotSellerOrAdmin
	}
	switch requester.Role {
	case userdomain.RoleAdmin:
		if requester.ID <= 0 {
			return ErrUnauthenticated
		}
		return nil
	case userdomain.RoleUser:
		if requester.ID <= 0 {
			return ErrUnauthenticated
		}
		if requester.ID == order.BuyerID {
			return ErrNotSellerOrAdmin
		}
		if requester.ID == order.SellerID {
			return nil
		}
		return ErrNotSellerOrAdmin
	default:
		return ErrUnauthenticated
	}
}

// CanView permits the order's participants and administrators to read it.
func CanView(requester userdomain.Principal, order *Order) error {
	if !requester.Authenticated() {
		return ErrUnauthenticated
	}
	if order == nil {
		return ErrNotParticipant
	}
	if requester.IsAdmin() || requester.ID == order.BuyerID || requester.ID == order.SellerID {
		return nil
	}
	return ErrNotParticipant
}
