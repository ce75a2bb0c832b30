package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/brix-market/internal/clients/http/webhook"
	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
)

type fakeDeliverer struct {
	payloads []webhook.Payload
	err      error
}

func (f *fakeDeliverer) Deliver(_ context.Context, payload webhook.Payload, _ ...webhook.DeliverOption) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

func sampleNotification() ports.Notification {
	return ports.Notification{
		EventID:    "01J0ORDER",
		OrderID:    42,
		Type:       domain.EventStatusChanged,
		Recipients: []int64{3, 2},
		Message:    "order #42 moved from PENDING to APPROVED",
	}
}

func TestLogNotifierWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, notifier.Notify(context.Background(), sampleNotification()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order notification", entry["msg"])
	assert.Equal(t, "order.status_changed", entry["event_type"])
	assert.EqualValues(t, 42, entry["order_id"])
}

func TestWebhookNotifierForwardsPayload(t *testing.T) {
	client := &fakeDeliverer{}
	notifier := NewWebhookNotifier(client)

	require.NoError(t, notifier.Notify(context.Background(), sampleNotification()))
	require.Len(t, client.payloads, 1)
	assert.Equal(t, "01J0ORDER", client.payloads[0].EventID)
	assert.Equal(t, "order.status_changed", client.payloads[0].EventType)
	assert.Equal(t, []int64{3, 2}, client.payloads[0].Recipients)
}

func TestWebhookNotifierAcceptsReplays(t *testing.T) {
	client := &fakeDeliverer{err: fmt.Errorf("%w: seen", webhook.ErrIdempotencyConflict)}
	require.NoError(t, NewWebhookNotifier(client).Notify(context.Background(), sampleNotification()))

	boom := errors.New("receiver down")
	client.err = boom
	require.ErrorIs(t, NewWebhookNotifier(client).Notify(context.Background(), sampleNotification()), boom)
}
