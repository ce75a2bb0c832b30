package api

import (
	"log/slog"
	"strings"

	"github.com/Apurer/brix-market/internal/clients/http/webhook"
	ordernotify "github.com/Apurer/brix-market/internal/domains/orders/adapters/notify"
	orderports "github.com/Apurer/brix-market/internal/domains/orders/ports"
)

// BuildNotifier posts to NOTIFY_WEBHOOK_URL when configured and logs notifications otherwise.
func BuildNotifier(cfg Config, logger *slog.Logger) (orderports.Notifier, error) {
	if strings.TrimSpace(cfg.NotifyWebhookURL) == "" {
		return ordernotify.NewLogNotifier(logger), nil
	}
	client, err := webhook.NewClient(cfg.NotifyWebhookURL, nil)
	if err != nil {
		return nil, err
	}
	logger.Info("order notifications delivered by webhook", slog.String("url", cfg.NotifyWebhookURL))
	return ordernotify.NewWebhookNotifier(client), nil
}
