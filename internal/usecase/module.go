package usecase

import (
	"go.uber.org/fx"

	"github.com/craftlane/fulfillment/internal/adapter/mailer"
	"github.com/craftlane/fulfillment/internal/config"
	"github.com/craftlane/fulfillment/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewOrderUseCase,
	newApprovalUseCase,
	newNotificationUseCase,
	newQueueUseCase,
	func(u *NotificationUseCase) NotificationEnqueuer { return u },
)

func newApprovalUseCase(approvals repository.ApprovalRepository, orders repository.OrderRepository, notifier NotificationEnqueuer, cfg *config.Config) *ApprovalUseCase {
	return NewApprovalUseCase(approvals, orders, notifier, cfg.ApprovalValidity)
}

func newNotificationUseCase(notifications repository.NotificationRepository, transport mailer.Client, cfg *config.Config) *NotificationUseCase {
	return NewNotificationUseCase(notifications, transport, cfg.MaxNotificationRetries)
}

func newQueueUseCase(approvals repository.ApprovalRepository, cfg *config.Config) *QueueUseCase {
	return NewQueueUseCase(approvals, cfg.OverdueAfter)
}
