package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/brix-market/internal/domains/orders/domain"
	"github.com/Apurer/brix-market/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/brix-market/internal/durable/temporal/workflows/orders"
)

var (
	_ ports.EventDispatcher = (*TemporalEventDispatcher)(nil)
	_ ports.EventDispatcher = (*InlineEventDispatcher)(nil)
)

// TemporalEventDispatcher starts one notification workflow per committed order event.
type TemporalEventDispatcher struct {
	client    client.Client
	taskQueue string
}

// NewTemporalEventDispatcher wires a Temporal client into the dispatcher.
func NewTemporalEventDispatcher(c client.Client) *TemporalEventDispatcher {
	return &TemporalEventDispatcher{client: c, taskQueue: orderworkflows.OrderEventsTaskQueue}
}

// Dispatch starts the workflow without waiting for it. The workflow ID derives from the event ID,
// so dispatching an event twice starts a single execution.
func (d *TemporalEventDispatcher) Dispatch(ctx context.Context, event domain.Event) error {
	if d == nil || d.client == nil {
		return errors.New("temporal event dispatcher not configured")
	}
	options := client.StartWorkflowOptions{
		ID:                    buildEventWorkflowID(event),
		TaskQueue:             d.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := d.client.ExecuteWorkflow(ctx, options, orderworkflows.OrderNotificationWorkflowName,
		orderworkflows.OrderNotificationWorkflowInput{Event: event, TraceID: workflowTraceComponent(ctx)})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return err
	}
	return nil
}

// InlineEventDispatcher notifies synchronously without Temporal, useful for tests or dev fallbacks.
type InlineEventDispatcher struct {
	notifier ports.Notifier
	journal  ports.EventJournal
	now      func() time.Time
}

// NewInlineEventDispatcher wraps a notifier and the journal for synchronous delivery.
func NewInlineEventDispatcher(notifier ports.Notifier, journal ports.EventJournal) *InlineEventDispatcher {
	if journal == nil {
		journal = ports.NoopJournal
	}
	return &InlineEventDispatcher{notifier: notifier, journal: journal, now: time.Now}
}

// Dispatch notifies the participants and marks the event dispatched.
func (d *InlineEventDispatcher) Dispatch(ctx context.Context, event domain.Event) error {
	if d == nil || d.notifier == nil {
		return errors.New("inline event dispatcher not configured")
	}
	if err := d.notifier.Notify(ctx, ports.NotificationFor(event)); err != nil {
		return err
	}
	return d.journal.MarkDispatched(ctx, event.ID, d.now())
}

func buildEventWorkflowID(event domain.Event) string {
	return fmt.Sprintf("order-event-%d-%s", event.OrderID, event.ID)
}

func workflowTraceComponent(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() && spanCtx.TraceID().IsValid() {
		return spanCtx.TraceID().String()
	}
	return "fallback-" + uuid.NewString()
}
