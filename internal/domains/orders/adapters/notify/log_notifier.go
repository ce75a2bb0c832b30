// Package notify delivers order notifications.
package notify

import (
	"context"
	"log/slog"

	"github.com/Apurer/brix-market/internal/domains/orders/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to a structured log. It stands in for a push or mail gateway.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	n.logger.LogAttrs(ctx, slog.LevelInfo, "order notification",
		slog.String("event_id", notification.EventID),
		slog.String("event_type", string(notification.Type)),
		slog.Int64("order_id", notification.OrderID),
		slog.Any("recipients", notification.Recipients),
		slog.String("message", notification.Message),
	)
	return nil
}
