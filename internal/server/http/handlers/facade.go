package handlers

import (
	"context"
	"time"

	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/usecase"
)

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, params usecase.CreateOrderParams) (*model.Order, error)
	Order(ctx context.Context, number string) (*model.Order, error)
	OrderHistory(ctx context.Context, number string) ([]model.StatusTransition, error)
	TransitionOrder(ctx context.Context, number string, target model.OrderStatus, tctx model.TransitionContext) (*model.Order, error)
}

// ApprovalFacade encapsulates design approval operations exposed via HTTP.
type ApprovalFacade interface {
	DecideApproval(ctx context.Context, id int64, token string, decision model.ApprovalDecision, reason string) (*model.DesignApproval, error)
	OverrideApproval(ctx context.Context, id int64, decision model.ApprovalDecision, actor, reason string) (*model.DesignApproval, error)
	SendApprovalReminder(ctx context.Context, id int64) (*model.DesignApproval, error)
	ApprovalQueue(ctx context.Context) (usecase.QueueBuckets, error)
}

// NotificationFacade provides email-log and webhook operations.
type NotificationFacade interface {
	OrderNotifications(ctx context.Context, number string) ([]model.Notification, error)
	RetryNotification(ctx context.Context, id int64) (*model.Notification, error)
	RecordMailEvent(ctx context.Context, providerMessageID string, event model.DeliveryEvent, at time.Time) (*model.Notification, error)
}

// HealthFacade reports backing store reachability.
type HealthFacade interface {
	Ping(ctx context.Context) error
}

// FulfillmentFacade aggregates the full set of operations used across handlers.
type FulfillmentFacade interface {
	OrderFacade
	ApprovalFacade
	NotificationFacade
	HealthFacade
}
