package types

import (
	"time"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/shared/projection"
)

// OrderProjection transports an order together with its persistence metadata.
type OrderProjection = projection.Projection[*domain.Order]

// NewOrderProjection wraps an aggregate with persistence metadata.
func NewOrderProjection(order *domain.Order, createdAt, updatedAt time.Time) *OrderProjection {
	if order == nil {
		return nil
	}
	return projection.New(order, createdAt, updatedAt)
}

// CloneOrder deep-copies the projection so callers cannot alias stored state.
func CloneOrder(src *OrderProjection) *OrderProjection {
	if src == nil || src.Entity == nil {
		return nil
	}
	order := *src.Entity
	return NewOrderProjection(&order, src.Metadata.CreatedAt, src.Metadata.UpdatedAt)
}
