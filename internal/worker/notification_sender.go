package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/craftlane/fulfillment/internal/adapter/mailer"
	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
)

// NotificationFacade exposes the subset of application functionality required by the sender.
type NotificationFacade interface {
	NotificationsForSending(ctx context.Context, limit int) ([]model.Notification, error)
	RetryableNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	DeliverNotification(ctx context.Context, id int64) (*model.Notification, error)
	RetryNotification(ctx context.Context, id int64) (*model.Notification, error)
}

type sendJob struct {
	id    int64
	retry bool
}

// NotificationSender drains pending notifications and sweeps retryable
// failures through a bounded worker pool.
type NotificationSender struct {
	facade       NotificationFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan sendJob
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewNotificationSender constructs the notification worker pool.
func NewNotificationSender(facade NotificationFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *NotificationSender {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &NotificationSender{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan sendJob, batchSize*workers),
	}
}

// Start launches background processing.
func (p *NotificationSender) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *NotificationSender) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *NotificationSender) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *NotificationSender) fetchAndDispatch(ctx context.Context) {
	pending, err := p.facade.NotificationsForSending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("fetch pending notifications failed", slog.String("error", err.Error()))
	}
	retryable, err := p.facade.RetryableNotifications(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("fetch retryable notifications failed", slog.String("error", err.Error()))
	}

	for _, n := range pending {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- sendJob{id: n.ID}:
		}
	}
	for _, n := range retryable {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- sendJob{id: n.ID, retry: true}:
		}
	}
}

func (p *NotificationSender) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handle(ctx, job)
		}
	}
}

func (p *NotificationSender) handle(ctx context.Context, job sendJob) {
	var (
		n   *model.Notification
		err error
	)
	if job.retry {
		n, err = p.facade.RetryNotification(ctx, job.id)
	} else {
		n, err = p.facade.DeliverNotification(ctx, job.id)
	}
	if err != nil {
		switch e := err.(type) {
		case mailer.TooManyRequestsError:
			p.logger.Warn("mail provider rate limited", slog.Duration("retry_after", e.RetryAfter))
			time.Sleep(e.RetryAfter)
		default:
			var seqErr *domainErrors.SequenceError
			if errors.As(err, &seqErr) {
				// Another dispatcher already picked this record up.
				return
			}
			p.logger.Error("notification send failed",
				slog.Int64("notification_id", job.id), slog.String("error", err.Error()))
		}
		return
	}

	if n.Status == model.NotificationStatusFailed {
		p.logger.Warn("notification marked failed",
			slog.Int64("notification_id", n.ID), slog.String("error", n.ErrorMessage))
	}
}
