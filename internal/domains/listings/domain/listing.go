package domain

import (
	"errors"
	"strings"
)

// Grade is the inspection grade attached to a fruit listing.
type Grade string

const (
	GradeSpecial Grade = "SPECIAL"
	GradeFirst   Grade = "FIRST"
	GradeSecond  Grade = "SECOND"
	GradeNone    Grade = ""
)

var (
	ErrInvalidPrice  = errors.New("listing price must be greater than zero")
	ErrEmptyTitle    = errors.New("listing title is required")
	ErrInvalidSeller = errors.New("listing seller id must be greater than zero")
	ErrInvalidStock  = errors.New("listing quantity must not be negative")
)

// Listing is a seller's sellable offering. The order engine only reads it.
type Listing struct {
	ID       int64
	Title    string
	Price    int64
	Quantity int32
	SellerID int64
	Grade    Grade
}

// NewListing validates and constructs a listing.
func NewListing(id int64, title string, price int64, quantity int32, sellerID int64, grade Grade) (*Listing, error) {
	listing := &Listing{
		ID:       id,
		Title:    strings.TrimSpace(title),
		Price:    price,
		Quantity: quantity,
		SellerID: sellerID,
		Grade:    grade,
	}
	if err := listing.Validate(); err != nil {
		return nil, err
	}
	return listing, nil
}

// Validate enforces invariants on the listing.
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return ErrEmptyTitle
	}
	if l.Price <= 0 {
		return ErrInvalidPrice
	}
	if l.SellerID <= 0 {
		return ErrInvalidSeller
	}
	if l.Quantity < 0 {
		return ErrInvalidStock
	}
	return nil
}
