package types

// PlaceOrderInput captures a buyer's purchase request.
type PlaceOrderInput struct {
	ListingID       int64  `validate:"gt=0"`
	Quantity        int32  `validate:"gte=1"`
	DeliveryAddress string `validate:"required,max=512"`
	// IdempotencyKey is optional; retries with the same key and payload replay the first result.
	IdempotencyKey string `validate:"max=255"`
}

// ChangeStatusInput requests a seller or administrator transition.
type ChangeStatusInput struct {
	OrderID int64  `validate:"gt=0"`
	Status  string `validate:"required"`
}

// OrderIdentifier addresses a single order.
type OrderIdentifier struct {
	ID int64 `validate:"gt=0"`
}
