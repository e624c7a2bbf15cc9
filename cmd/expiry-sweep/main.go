package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/craftlane/fulfillment/internal/adapter/mailer"
	"github.com/craftlane/fulfillment/internal/app"
	"github.com/craftlane/fulfillment/internal/config"
	"github.com/craftlane/fulfillment/internal/logger"
	"github.com/craftlane/fulfillment/internal/storage/postgres"
	"github.com/craftlane/fulfillment/internal/usecase"
	"github.com/craftlane/fulfillment/internal/worker"
)

// One-shot variant of the background sweeper, for cron setups and manual
// runs. Performs a single expiry and reminder pass and exits.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runSweep(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "expiry sweep failed: %v\n", err)
		os.Exit(1)
	}
}

func runSweep(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New()

	storage, err := postgres.New(ctx, cfg.DatabaseURI, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	mail, err := mailer.NewHTTPClient(cfg.MailerAddress, log)
	if err != nil {
		return err
	}

	orders := usecase.NewOrderUseCase(storage.Orders())
	notifications := usecase.NewNotificationUseCase(storage.Notifications(), mail, cfg.MaxNotificationRetries)
	approvals := usecase.NewApprovalUseCase(storage.Approvals(), storage.Orders(), notifications, cfg.ApprovalValidity)
	queue := usecase.NewQueueUseCase(storage.Approvals(), cfg.OverdueAfter)
	facade := app.NewFulfillmentFacade(orders, approvals, notifications, queue, storage, log)

	sweeper := worker.NewSweeper(facade, cfg.SweepInterval, cfg.ReminderThresholds, log)
	report := sweeper.RunOnce(ctx)

	log.Info("expiry sweep finished",
		slog.Int("expired", report.Expired),
		slog.Int("reminded", report.Reminded),
		slog.Int("reopened", report.Reopened),
		slog.Int("failures", report.Failures))

	if report.Failures > 0 {
		return fmt.Errorf("%d of %d items failed", report.Failures,
			report.Expired+report.Reminded+report.Reopened+report.Failures)
	}
	return nil
}
