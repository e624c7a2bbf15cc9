package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/craftlane/fulfillment/internal/adapter/mailer"
	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/domain/repository"
)

// NotificationUseCase tracks the delivery lifecycle of outbound messages
// and wraps the mail transport with bounded retries.
type NotificationUseCase struct {
	notifications repository.NotificationRepository
	transport     mailer.Client
	maxRetries    int
	now           func() time.Time
}

// NewNotificationUseCase constructs NotificationUseCase.
func NewNotificationUseCase(notifications repository.NotificationRepository, transport mailer.Client, maxRetries int) *NotificationUseCase {
	return &NotificationUseCase{
		notifications: notifications,
		transport:     transport,
		maxRetries:    maxRetries,
		now:           time.Now,
	}
}

// Enqueue records a message in PENDING. The send happens asynchronously.
func (u *NotificationUseCase) Enqueue(ctx context.Context, orderID int64, approvalID *int64, recipient, templateID string) (*model.Notification, error) {
	if recipient == "" {
		return nil, domainErrors.NewValidation("notification recipient is required")
	}
	n := &model.Notification{
		OrderID:    orderID,
		ApprovalID: approvalID,
		Recipient:  recipient,
		TemplateID: templateID,
		Status:     model.NotificationStatusPending,
	}
	return u.notifications.Create(ctx, n)
}

// RecordSendAttempt hands one claimed record to the transport. PENDING
// records are claimed first with a guarded update, so of two concurrent
// dispatchers exactly one reaches the provider; records arriving from the
// batch select are already SENDING. A provider rejection moves the record
// to FAILED with the error captured; retryCount is not touched here,
// retries are scheduled separately. Rate limiting releases the claim back
// to PENDING and surfaces the backoff to the caller.
func (u *NotificationUseCase) RecordSendAttempt(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := u.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch n.Status {
	case model.NotificationStatusPending:
		claimed, err := u.notifications.MarkSending(ctx, n.ID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrConflict) {
				return nil, &domainErrors.SequenceError{Status: n.Status, Event: "SEND"}
			}
			return nil, err
		}
		n = claimed
	case model.NotificationStatusSending:
	default:
		return nil, &domainErrors.SequenceError{Status: n.Status, Event: "SEND"}
	}

	msg := mailer.Message{
		Recipient:  n.Recipient,
		TemplateID: n.TemplateID,
		Data:       map[string]string{"order_id": strconv.FormatInt(n.OrderID, 10)},
	}
	if n.ApprovalID != nil {
		msg.Data["approval_id"] = strconv.FormatInt(*n.ApprovalID, 10)
	}

	result, err := u.transport.Send(ctx, msg)
	if err != nil {
		if rateErr, ok := err.(mailer.TooManyRequestsError); ok {
			n.Status = model.NotificationStatusPending
			if _, updateErr := u.notifications.Update(ctx, n); updateErr != nil {
				return nil, updateErr
			}
			return nil, rateErr
		}
		n.Status = model.NotificationStatusFailed
		n.ErrorMessage = err.Error()
		return u.notifications.Update(ctx, n)
	}

	sentAt := u.now()
	n.Status = model.NotificationStatusSent
	n.ProviderMessageID = result.ProviderMessageID
	n.SentAt = &sentAt
	n.ErrorMessage = ""
	return u.notifications.Update(ctx, n)
}

// RecordEvent applies an inbound provider event resolved by the provider
// message id. Out-of-order events yield SequenceError so the caller can log
// and drop them.
func (u *NotificationUseCase) RecordEvent(ctx context.Context, providerMessageID string, event model.DeliveryEvent, at time.Time) (*model.Notification, error) {
	n, err := u.notifications.GetByProviderMessageID(ctx, providerMessageID)
	if err != nil {
		return nil, err
	}

	outOfOrder := func() (*model.Notification, error) {
		return nil, &domainErrors.SequenceError{Status: n.Status, Event: event}
	}

	switch event {
	case model.EventDelivered:
		if n.Status != model.NotificationStatusSent {
			return outOfOrder()
		}
		if n.SentAt != nil && at.Before(*n.SentAt) {
			return outOfOrder()
		}
		n.Status = model.NotificationStatusDelivered
		n.DeliveredAt = &at
	case model.EventOpened:
		if n.Status != model.NotificationStatusDelivered {
			return outOfOrder()
		}
		if n.DeliveredAt != nil && at.Before(*n.DeliveredAt) {
			return outOfOrder()
		}
		n.Status = model.NotificationStatusOpened
		n.OpenedAt = &at
	case model.EventClicked:
		if n.Status != model.NotificationStatusOpened {
			return outOfOrder()
		}
		if n.OpenedAt != nil && at.Before(*n.OpenedAt) {
			return outOfOrder()
		}
		n.Status = model.NotificationStatusClicked
		n.ClickedAt = &at
	case model.EventBounced:
		if n.Status != model.NotificationStatusSent {
			return outOfOrder()
		}
		n.Status = model.NotificationStatusBounced
	default:
		return nil, domainErrors.NewValidation("unknown delivery event %q", event)
	}

	return u.notifications.Update(ctx, n)
}

// Retry re-enqueues a FAILED or BOUNCED record and immediately attempts the
// send. Once retryCount reaches the configured maximum the record stays
// permanently failed.
func (u *NotificationUseCase) Retry(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := u.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != model.NotificationStatusFailed && n.Status != model.NotificationStatusBounced {
		return nil, domainErrors.NewValidation("notification in status %s is not retryable", n.Status)
	}
	if n.RetryCount >= u.maxRetries {
		return nil, domainErrors.ErrMaxRetriesExceeded
	}

	n.RetryCount++
	n.Status = model.NotificationStatusPending
	n.ProviderMessageID = ""
	n.SentAt = nil
	n.DeliveredAt = nil
	n.OpenedAt = nil
	n.ClickedAt = nil
	if _, err := u.notifications.Update(ctx, n); err != nil {
		return nil, err
	}

	return u.RecordSendAttempt(ctx, id)
}

// ListByOrder returns the email log of an order.
func (u *NotificationUseCase) ListByOrder(ctx context.Context, orderID int64) ([]model.Notification, error) {
	return u.notifications.ListByOrder(ctx, orderID)
}

// BatchForSending feeds the sender pool with PENDING records.
func (u *NotificationUseCase) BatchForSending(ctx context.Context, limit int) ([]model.Notification, error) {
	return u.notifications.SelectBatchForSending(ctx, limit)
}

// BatchForRetry feeds the sender pool with retryable failures.
func (u *NotificationUseCase) BatchForRetry(ctx context.Context, limit int) ([]model.Notification, error) {
	return u.notifications.SelectBatchForRetry(ctx, limit, u.maxRetries)
}
