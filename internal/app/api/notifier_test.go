package api

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordernotify "github.com/Apurer/brix-market/internal/domains/orders/adapters/notify"
)

func TestBuildNotifierSelectsDelivery(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	notifier, err := BuildNotifier(Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &ordernotify.LogNotifier{}, notifier)

	notifier, err = BuildNotifier(Config{NotifyWebhookURL: "https://hooks.brix.example/orders"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &ordernotify.WebhookNotifier{}, notifier)
}
