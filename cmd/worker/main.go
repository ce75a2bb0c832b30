package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/brix-market/internal/app/api"
	orderworkflows "github.com/Apurer/brix-market/internal/durable/temporal/workflows/orders"
	platformobservability "github.com/Apurer/brix-market/internal/platform/observability"
	orderactivities "github.com/Apurer/brix-market/internal/platform/temporal/activities/orders"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	const serviceName = "brix-market-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.Observability(serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores, err := api.BuildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build stores", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanupStores()
	if !stores.Durable {
		logger.Warn("worker journal is in-memory; dispatch stamps will not reach the API process")
	}
	notifier, err := api.BuildNotifier(cfg, logger)
	if err != nil {
		logger.Error("failed to configure notifier", slog.String("error", err.Error()))
		os.Exit(1)
	}
	activities := orderactivities.NewActivities(notifier, stores.Journal)

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderEventsTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderNotificationWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderNotificationWorkflowName})
	w.RegisterActivityWithOptions(activities.NotifyParticipants, activity.RegisterOptions{Name: orderactivities.NotifyParticipantsActivityName})
	w.RegisterActivityWithOptions(activities.MarkEventDispatched, activity.RegisterOptions{Name: orderactivities.MarkEventDispatchedActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderEventsTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
