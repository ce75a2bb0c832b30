package ports

import (
	"context"

	ordertypes "github.com/Apurer/brix-market/internal/domains/orders/application/types"
	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
)

// Service exposes the order lifecycle use cases to adapters. The caller is always passed explicitly.
type Service interface {
	CreateOrder(ctx context.Context, requester userdomain.Principal, input ordertypes.PlaceOrderInput) (*ordertypes.OrderProjection, error)
	ChangeStatus(ctx context.Context, requester userdomain.Principal, input ordertypes.ChangeStatusInput) (*ordertypes.OrderProjection, error)
	CancelOrder(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error)
	GetOrder(ctx context.Context, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error)
	ViewOrder(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error)
	GetShipping(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error)
	ListMyOrders(ctx context.Context, requester userdomain.Principal) ([]*ordertypes.OrderProjection, error)
	OrderHistory(ctx context.Context, requester userdomain.Principal, id ordertypes.OrderIdentifier) ([]domain.Event, error)
}
