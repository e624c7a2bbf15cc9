package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/craftlane/fulfillment/internal/domain/model"
	testhelpers "github.com/craftlane/fulfillment/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSweeperRunOnceExpiresOverdueApprovals(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	facade := &testhelpers.SweeperFacadeStub{
		PendingFn: func(context.Context, time.Duration) ([]model.DesignApproval, error) {
			return []model.DesignApproval{
				{ID: 1, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-73 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
				{ID: 2, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-time.Hour), ExpiresAt: now.Add(71 * time.Hour)},
			}, nil
		},
	}

	sweeper := NewSweeper(facade, time.Minute, []time.Duration{24 * time.Hour, 48 * time.Hour}, discardLogger())
	sweeper.now = func() time.Time { return now }

	report := sweeper.RunOnce(context.Background())
	if report.Expired != 1 || report.Reminded != 0 || report.Failures != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSweeperRunOnceSendsThresholdReminders(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var reminded []int64
	facade := &testhelpers.SweeperFacadeStub{
		PendingFn: func(context.Context, time.Duration) ([]model.DesignApproval, error) {
			return []model.DesignApproval{
				// Past the first threshold, no reminder sent yet.
				{ID: 1, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-25 * time.Hour), ExpiresAt: now.Add(47 * time.Hour)},
				// Past the first threshold but that reminder already went out.
				{ID: 2, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-25 * time.Hour), ExpiresAt: now.Add(47 * time.Hour), RemindersSent: 1},
				// Past both thresholds with one reminder sent; the second is due.
				{ID: 3, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-49 * time.Hour), ExpiresAt: now.Add(23 * time.Hour), RemindersSent: 1},
				// All reminders exhausted.
				{ID: 4, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-50 * time.Hour), ExpiresAt: now.Add(22 * time.Hour), RemindersSent: 2},
				// Too young for any reminder.
				{ID: 5, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-time.Hour), ExpiresAt: now.Add(71 * time.Hour)},
			}, nil
		},
		RemindFn: func(ctx context.Context, id int64) (*model.DesignApproval, error) {
			reminded = append(reminded, id)
			return &model.DesignApproval{ID: id, Status: model.ApprovalStatusPending}, nil
		},
	}

	sweeper := NewSweeper(facade, time.Minute, []time.Duration{24 * time.Hour, 48 * time.Hour}, discardLogger())
	sweeper.now = func() time.Time { return now }

	report := sweeper.RunOnce(context.Background())
	if report.Reminded != 2 || report.Expired != 0 || report.Failures != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(reminded) != 2 || reminded[0] != 1 || reminded[1] != 3 {
		t.Fatalf("unexpected reminder targets %v", reminded)
	}
}

func TestSweeperRunOnceReopensMissingApprovals(t *testing.T) {
	// An order committed into DESIGN_PENDING whose approval request failed
	// afterwards has no open approval; the sweep re-opens it.
	facade := &testhelpers.SweeperFacadeStub{
		AwaitingFn: func(context.Context) ([]model.Order, error) {
			return []model.Order{
				{ID: 4, Number: "ORD-1004", Status: model.OrderStatusDesignPending, DesignApprovalRequired: true},
			}, nil
		},
	}
	sweeper := NewSweeper(facade, time.Minute, nil, discardLogger())

	report := sweeper.RunOnce(context.Background())
	if report.Reopened != 1 || report.Failures != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(facade.Requested) != 1 || facade.Requested[0] != 4 {
		t.Fatalf("unexpected reopen targets %v", facade.Requested)
	}
}

func TestSweeperRunOnceReopenFailureDoesNotAbortSweep(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	facade := &testhelpers.SweeperFacadeStub{
		AwaitingFn: func(context.Context) ([]model.Order, error) {
			return []model.Order{
				{ID: 4, Number: "ORD-1004", Status: model.OrderStatusDesignPending, DesignApprovalRequired: true},
			}, nil
		},
		RequestFn: func(context.Context, *model.Order) (*model.DesignApproval, error) {
			return nil, errors.New("storage hiccup")
		},
		PendingFn: func(context.Context, time.Duration) ([]model.DesignApproval, error) {
			return []model.DesignApproval{
				{ID: 1, Status: model.ApprovalStatusPending, ExpiresAt: now.Add(-time.Hour)},
			}, nil
		},
	}

	sweeper := NewSweeper(facade, time.Minute, nil, discardLogger())
	sweeper.now = func() time.Time { return now }

	report := sweeper.RunOnce(context.Background())
	if report.Reopened != 0 || report.Failures != 1 || report.Expired != 1 {
		t.Fatalf("a reopen failure must not abort the sweep: %+v", report)
	}
}

func TestSweeperRunOnceIsolatesItemFailures(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	facade := &testhelpers.SweeperFacadeStub{
		PendingFn: func(context.Context, time.Duration) ([]model.DesignApproval, error) {
			return []model.DesignApproval{
				{ID: 1, Status: model.ApprovalStatusPending, ExpiresAt: now.Add(-time.Hour)},
				{ID: 2, Status: model.ApprovalStatusPending, ExpiresAt: now.Add(-time.Hour)},
			}, nil
		},
		ExpireFn: func(ctx context.Context, id int64) (*model.DesignApproval, error) {
			if id == 1 {
				return nil, errors.New("storage hiccup")
			}
			return &model.DesignApproval{ID: id, Status: model.ApprovalStatusExpired}, nil
		},
	}

	sweeper := NewSweeper(facade, time.Minute, nil, discardLogger())
	sweeper.now = func() time.Time { return now }

	report := sweeper.RunOnce(context.Background())
	if report.Expired != 1 || report.Failures != 1 {
		t.Fatalf("one failure must not abort the sweep: %+v", report)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected the failure to be collected, got %v", report.Errors)
	}
}

func TestSweeperRunOnceFetchFailure(t *testing.T) {
	facade := &testhelpers.SweeperFacadeStub{
		PendingFn: func(context.Context, time.Duration) ([]model.DesignApproval, error) {
			return nil, errors.New("db down")
		},
	}

	sweeper := NewSweeper(facade, time.Minute, nil, discardLogger())

	report := sweeper.RunOnce(context.Background())
	if report.Failures != 1 || report.Expired != 0 || report.Reminded != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSweeperStartStop(t *testing.T) {
	facade := &testhelpers.SweeperFacadeStub{}
	sweeper := NewSweeper(facade, 5*time.Millisecond, nil, discardLogger())

	sweeper.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	sweeper.Stop()
}
