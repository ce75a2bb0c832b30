package marketserver

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	ListingID       int64  `json:"listingId" validate:"required,gt=0"`
	Quantity        int32  `json:"quantity" validate:"required,gte=1"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required,max=512"`
}
