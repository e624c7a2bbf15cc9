package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/craftlane/fulfillment/internal/domain/model"
)

// ApprovalFacade exposes the subset of application functionality required by the sweeper.
type ApprovalFacade interface {
	PendingApprovalsOlderThan(ctx context.Context, age time.Duration) ([]model.DesignApproval, error)
	ExpireApproval(ctx context.Context, id int64) (*model.DesignApproval, error)
	SendApprovalReminder(ctx context.Context, id int64) (*model.DesignApproval, error)
	OrdersAwaitingApproval(ctx context.Context) ([]model.Order, error)
	RequestApproval(ctx context.Context, order *model.Order) (*model.DesignApproval, error)
}

// SweepReport aggregates the outcome of one sweep tick. Item failures are
// isolated: one broken approval never aborts the rest of the sweep.
type SweepReport struct {
	Expired  int
	Reminded int
	Reopened int
	Failures int
	Errors   []error
}

// Sweeper is the recurring background task that expires stale design
// approvals and sends threshold reminders.
type Sweeper struct {
	facade     ApprovalFacade
	interval   time.Duration
	thresholds []time.Duration
	logger     *slog.Logger
	now        func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs the approval sweeper.
func NewSweeper(facade ApprovalFacade, interval time.Duration, thresholds []time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		facade:     facade,
		interval:   interval,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(runCtx)
}

// Stop waits for the loop to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := s.RunOnce(ctx)
			if report.Failures > 0 {
				s.logger.Warn("approval sweep finished with failures",
					slog.Int("expired", report.Expired),
					slog.Int("reminded", report.Reminded),
					slog.Int("failures", report.Failures))
			}
		}
	}
}

// RunOnce performs one sweep tick: a healing pass re-opening approvals
// that never got created for DESIGN_PENDING orders, an expiry pass over
// approvals past their window, then a reminder pass over the remaining
// open ones. The reminder for a threshold is sent at most once, keyed by
// the reminder counter, not wall clock.
func (s *Sweeper) RunOnce(ctx context.Context) SweepReport {
	var report SweepReport

	awaiting, err := s.facade.OrdersAwaitingApproval(ctx)
	if err != nil {
		s.logger.Error("fetch orders awaiting approval failed", slog.String("error", err.Error()))
		report.Failures++
		report.Errors = append(report.Errors, err)
	}
	for i := range awaiting {
		if ctx.Err() != nil {
			return report
		}
		if _, err := s.facade.RequestApproval(ctx, &awaiting[i]); err != nil {
			s.logger.Error("reopen design approval failed",
				slog.String("order", awaiting[i].Number), slog.String("error", err.Error()))
			report.Failures++
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Reopened++
	}

	pending, err := s.facade.PendingApprovalsOlderThan(ctx, 0)
	if err != nil {
		s.logger.Error("fetch pending approvals failed", slog.String("error", err.Error()))
		report.Failures++
		report.Errors = append(report.Errors, err)
		return report
	}

	now := s.now()
	for _, approval := range pending {
		if ctx.Err() != nil {
			return report
		}

		if !now.Before(approval.ExpiresAt) {
			if _, err := s.facade.ExpireApproval(ctx, approval.ID); err != nil {
				s.logger.Error("expire approval failed",
					slog.Int64("approval_id", approval.ID), slog.String("error", err.Error()))
				report.Failures++
				report.Errors = append(report.Errors, err)
				continue
			}
			report.Expired++
			continue
		}

		idx := approval.RemindersSent
		if idx >= len(s.thresholds) {
			continue
		}
		if now.Sub(approval.RequestedAt) < s.thresholds[idx] {
			continue
		}
		if _, err := s.facade.SendApprovalReminder(ctx, approval.ID); err != nil {
			s.logger.Error("send approval reminder failed",
				slog.Int64("approval_id", approval.ID), slog.String("error", err.Error()))
			report.Failures++
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Reminded++
	}

	return report
}
