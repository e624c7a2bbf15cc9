package repository

import (
	"context"

	"github.com/craftlane/fulfillment/internal/domain/model"
)

// NotificationRepository describes persistence operations with outbound
// notification records.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (*model.Notification, error)
	// Update persists the mutable delivery fields of the record.
	Update(ctx context.Context, n *model.Notification) (*model.Notification, error)
	// MarkSending claims a PENDING record for dispatch. Exactly one caller
	// wins; losers get ErrConflict.
	MarkSending(ctx context.Context, id int64) (*model.Notification, error)
	// SelectBatchForSending returns PENDING records oldest first, claiming
	// them as SENDING in the same transaction so concurrent dispatchers
	// never pick up the same record.
	SelectBatchForSending(ctx context.Context, limit int) ([]model.Notification, error)
	// SelectBatchForRetry returns FAILED or BOUNCED records that still have
	// retry budget left.
	SelectBatchForRetry(ctx context.Context, limit, maxRetries int) ([]model.Notification, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.Notification, error)
}
