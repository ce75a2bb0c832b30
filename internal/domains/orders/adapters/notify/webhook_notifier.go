package notify

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/brix-market/internal/clients/http/webhook"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
)

var _ ports.Notifier = (*WebhookNotifier)(nil)

// Deliverer posts one webhook payload.
type Deliverer interface {
	Deliver(ctx context.Context, payload webhook.Payload, opts ...webhook.DeliverOption) error
}

// WebhookNotifier forwards notifications to an external HTTP receiver keyed by event id.
type WebhookNotifier struct {
	client Deliverer
	now    func() time.Time
}

func NewWebhookNotifier(client Deliverer) *WebhookNotifier {
	return &WebhookNotifier{client: client, now: time.Now}
}

// Notify treats an idempotency conflict as an earlier successful delivery.
func (n *WebhookNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	err := n.client.Deliver(ctx, webhook.Payload{
		EventID:    notification.EventID,
		EventType:  string(notification.Type),
		OrderID:    notification.OrderID,
		Recipients: notification.Recipients,
		Message:    notification.Message,
		SentAt:     n.now().UTC(),
	}, webhook.WithIdempotencyKey(notification.EventID))
	if errors.Is(err, webhook.ErrIdempotencyConflict) {
		return nil
	}
	return err
}
