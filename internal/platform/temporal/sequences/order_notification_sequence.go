package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderdomain "github.com/Apurer/brix-market/internal/domains/orders/domain"
	orderactivities "github.com/Apurer/brix-market/internal/platform/temporal/activities/orders"
)

// RunOrderNotificationSequence notifies the participants of an order event, then marks it dispatched.
func RunOrderNotificationSequence(ctx workflow.Context, event orderdomain.Event) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("order notification sequence started", "eventId", event.ID, "orderId", event.OrderID)
	notifyOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	markOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	notifyCtx := workflow.WithActivityOptions(ctx, notifyOptions)
	if err := workflow.ExecuteActivity(notifyCtx, orderactivities.NotifyParticipantsActivityName, event).Get(notifyCtx, nil); err != nil {
		logger.Error("order notification failed", "eventId", event.ID, "error", err)
		return err
	}
	markCtx := workflow.WithActivityOptions(ctx, markOptions)
	if err := workflow.ExecuteActivity(markCtx, orderactivities.MarkEventDispatchedActivityName, event.ID).Get(markCtx, nil); err != nil {
		logger.Error("marking order event dispatched failed", "eventId", event.ID, "error", err)
		return err
	}
	logger.Info("order notification sequence completed", "eventId", event.ID)
	return nil
}
