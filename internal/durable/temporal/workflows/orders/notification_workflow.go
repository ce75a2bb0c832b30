package orders

import (
	"go.temporal.io/sdk/workflow"

	orderdomain "github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/platform/temporal/sequences"
)

const (
	// OrderNotificationWorkflowName is the public identifier for registering the workflow.
	OrderNotificationWorkflowName = "orders.workflows.Notification"
	// OrderEventsTaskQueue is the queue consumed by the worker processing order events.
	OrderEventsTaskQueue = "ORDER_EVENTS"
)

// OrderNotificationWorkflowInput carries a committed order event.
type OrderNotificationWorkflowInput struct {
	Event   orderdomain.Event
	TraceID string
}

// OrderNotificationWorkflow delivers one order event to the order participants.
func OrderNotificationWorkflow(ctx workflow.Context, input OrderNotificationWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderNotificationWorkflow started", withTraceID(input.TraceID, "eventId", input.Event.ID, "type", input.Event.EventName())...)
	if err := sequences.RunOrderNotificationSequence(ctx, input.Event); err != nil {
		logger.Error("OrderNotificationWorkflow failed", withTraceID(input.TraceID, "eventId", input.Event.ID, "error", err)...)
		return err
	}
	logger.Info("OrderNotificationWorkflow completed", withTraceID(input.TraceID, "eventId", input.Event.ID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
