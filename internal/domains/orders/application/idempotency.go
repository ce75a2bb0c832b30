package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ordertypes "github.com/Apurer/brix-market/internal/domains/orders/application/types"
)

type normalizedPlaceOrder struct {
	BuyerID         int64  `json:"buyerId"`
	ListingID       int64  `json:"listingId"`
	Quantity        int32  `json:"quantity"`
	DeliveryAddress string `json:"deliveryAddress"`
}

// FingerprintPlaceOrder hashes the placement payload, excluding the idempotency key itself.
func FingerprintPlaceOrder(buyerID int64, input ordertypes.PlaceOrderInput) (string, error) {
	payload, err := json.Marshal(normalizedPlaceOrder{
		BuyerID:         buyerID,
		ListingID:       input.ListingID,
		Quantity:        input.Quantity,
		DeliveryAddress: strings.Join(strings.Fields(input.DeliveryAddress), " "),
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
