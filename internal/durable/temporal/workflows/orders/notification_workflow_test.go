package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	ordermemory "github.com/Apurer/brix-market/internal/domains/orders/adapters/memory"
	orderdomain "github.com/Apurer/brix-market/internal/domains/orders/domain"
	orderports "github.com/Apurer/brix-market/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/brix-market/internal/platform/temporal/activities/orders"
)

type recordingNotifier struct {
	mu       sync.Mutex
	failures int
	sent     []orderports.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification orderports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failures > 0 {
		n.failures--
		return errors.New("gateway unavailable")
	}
	n.sent = append(n.sent, notification)
	return nil
}

func runNotificationWorkflow(t *testing.T, notifier *recordingNotifier) (*ordermemory.Journal, orderdomain.Event, error) {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	journal := ordermemory.NewJournal()
	event := orderdomain.Event{
		ID:             "01HX0000000000000000000000",
		OrderID:        42,
		Type:           orderdomain.EventStatusChanged,
		PreviousStatus: orderdomain.StatusPending,
		CurrentStatus:  orderdomain.StatusApproved,
		ActorID:        7,
		BuyerID:        3,
		SellerID:       7,
		OccurredAt:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, journal.Append(context.Background(), event))

	acts := orderactivities.NewActivities(notifier, journal)
	env.RegisterActivityWithOptions(acts.NotifyParticipants, activity.RegisterOptions{Name: orderactivities.NotifyParticipantsActivityName})
	env.RegisterActivityWithOptions(acts.MarkEventDispatched, activity.RegisterOptions{Name: orderactivities.MarkEventDispatchedActivityName})

	env.ExecuteWorkflow(OrderNotificationWorkflow, OrderNotificationWorkflowInput{Event: event, TraceID: "trace-1"})
	require.True(t, env.IsWorkflowCompleted())
	return journal, event, env.GetWorkflowError()
}

func TestOrderNotificationWorkflow_NotifiesAndMarksDispatched(t *testing.T) {
	notifier := &recordingNotifier{}
	journal, event, err := runNotificationWorkflow(t, notifier)
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.ElementsMatch(t, []int64{3, 7}, notifier.sent[0].Recipients)
	assert.Equal(t, "order #42 moved from PENDING to APPROVED", notifier.sent[0].Message)

	stored, err := journal.ListByOrder(context.Background(), event.OrderID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotNil(t, stored[0].DispatchedAt)
}

func TestOrderNotificationWorkflow_RetriesNotifier(t *testing.T) {
	notifier := &recordingNotifier{failures: 2}
	_, _, err := runNotificationWorkflow(t, notifier)
	require.NoError(t, err)
	assert.Len(t, notifier.sent, 1)
}
