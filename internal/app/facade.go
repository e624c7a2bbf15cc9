package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/usecase"
)

// HealthChecker verifies the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// FulfillmentFacade aggregates the workflow use cases and owns all
// cross-entity side effects: order transitions opening or cancelling
// approvals, approval decisions driving order transitions, shipment
// notifications. Components never reach into each other directly.
type FulfillmentFacade struct {
	orders        *usecase.OrderUseCase
	approvals     *usecase.ApprovalUseCase
	notifications *usecase.NotificationUseCase
	queue         *usecase.QueueUseCase
	health        HealthChecker
	logger        *slog.Logger
}

// NewFulfillmentFacade constructs FulfillmentFacade.
func NewFulfillmentFacade(orders *usecase.OrderUseCase, approvals *usecase.ApprovalUseCase, notifications *usecase.NotificationUseCase, queue *usecase.QueueUseCase, health HealthChecker, logger *slog.Logger) *FulfillmentFacade {
	return &FulfillmentFacade{
		orders:        orders,
		approvals:     approvals,
		notifications: notifications,
		queue:         queue,
		health:        health,
		logger:        logger,
	}
}

func (f *FulfillmentFacade) CreateOrder(ctx context.Context, params usecase.CreateOrderParams) (*model.Order, error) {
	return f.orders.Create(ctx, params)
}

func (f *FulfillmentFacade) Order(ctx context.Context, number string) (*model.Order, error) {
	return f.orders.GetByNumber(ctx, number)
}

func (f *FulfillmentFacade) OrderHistory(ctx context.Context, number string) ([]model.StatusTransition, error) {
	order, err := f.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return f.orders.History(ctx, order.ID)
}

func (f *FulfillmentFacade) AllowedNextStates(status model.OrderStatus) []model.OrderStatus {
	return f.orders.AllowedNextStates(status)
}

// TransitionOrder validates and applies one order transition, then runs its
// side effects: entering DESIGN_PENDING opens an approval when the order
// requires one, CANCELLED cascades to any open approval, SHIPPED notifies
// the customer.
func (f *FulfillmentFacade) TransitionOrder(ctx context.Context, number string, target model.OrderStatus, tctx model.TransitionContext) (*model.Order, error) {
	order, err := f.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	updated, err := f.orders.Transition(ctx, order.ID, target, tctx)
	if err != nil {
		return nil, err
	}

	switch target {
	case model.OrderStatusDesignPending:
		if updated.DesignApprovalRequired {
			// The transition is already committed; a failure here leaves
			// the order awaiting an approval the sweep will re-open.
			if _, err := f.approvals.Request(ctx, updated); err != nil {
				f.logger.Error("open design approval failed",
					slog.String("order", updated.Number), slog.String("error", err.Error()))
			}
		}
	case model.OrderStatusCancelled:
		if _, err := f.approvals.CancelOpen(ctx, updated.ID); err != nil {
			f.logger.Error("cascade approval cancellation failed",
				slog.String("order", updated.Number), slog.String("error", err.Error()))
		}
	case model.OrderStatusShipped:
		if _, err := f.notifications.Enqueue(ctx, updated.ID, nil, updated.CustomerEmail, model.TemplateOrderShipped); err != nil {
			f.logger.Error("enqueue shipped notification failed",
				slog.String("order", updated.Number), slog.String("error", err.Error()))
		}
	}

	return updated, nil
}

// DecideApproval records the customer decision and feeds the outcome into
// the order state machine.
func (f *FulfillmentFacade) DecideApproval(ctx context.Context, id int64, token string, decision model.ApprovalDecision, reason string) (*model.DesignApproval, error) {
	approval, err := f.approvals.Decide(ctx, id, token, decision, reason)
	if err != nil {
		return nil, err
	}
	f.applyDecisionToOrder(ctx, approval, model.CustomerActor, reason)
	return approval, nil
}

// OverrideApproval records a staff decision, permitted even past the
// validity window while the approval is still open.
func (f *FulfillmentFacade) OverrideApproval(ctx context.Context, id int64, decision model.ApprovalDecision, actor, reason string) (*model.DesignApproval, error) {
	approval, err := f.approvals.AdminOverride(ctx, id, decision, actor, reason)
	if err != nil {
		return nil, err
	}
	f.applyDecisionToOrder(ctx, approval, actor, reason)
	return approval, nil
}

// applyDecisionToOrder moves the order along after an approval closes. The
// approval is already terminal at this point; a failure here means the
// order was moved concurrently, which the staff queue surfaces, so it is
// logged rather than returned.
func (f *FulfillmentFacade) applyDecisionToOrder(ctx context.Context, approval *model.DesignApproval, actor, reason string) {
	target := model.OrderStatusDesignApproved
	if approval.Status == model.ApprovalStatusRejected {
		target = model.OrderStatusDesignRejected
	}
	tctx := model.TransitionContext{Actor: actor, Reason: reason}
	if _, err := f.orders.Transition(ctx, approval.OrderID, target, tctx); err != nil {
		f.logger.Error("apply approval outcome to order failed",
			slog.Int64("approval_id", approval.ID),
			slog.Int64("order_id", approval.OrderID),
			slog.String("error", err.Error()))
	}
}

func (f *FulfillmentFacade) Approval(ctx context.Context, id int64) (*model.DesignApproval, error) {
	return f.approvals.GetByID(ctx, id)
}

func (f *FulfillmentFacade) SendApprovalReminder(ctx context.Context, id int64) (*model.DesignApproval, error) {
	return f.approvals.SendReminder(ctx, id)
}

func (f *FulfillmentFacade) ExpireApproval(ctx context.Context, id int64) (*model.DesignApproval, error) {
	return f.approvals.Expire(ctx, id)
}

func (f *FulfillmentFacade) PendingApprovalsOlderThan(ctx context.Context, age time.Duration) ([]model.DesignApproval, error) {
	return f.approvals.PendingOlderThan(ctx, age)
}

// OrdersAwaitingApproval lists DESIGN_PENDING orders whose approval never
// opened, typically because the side effect of the transition failed.
func (f *FulfillmentFacade) OrdersAwaitingApproval(ctx context.Context) ([]model.Order, error) {
	return f.orders.AwaitingApproval(ctx)
}

// RequestApproval opens the design approval for an order, returning the
// existing open one if a concurrent writer got there first.
func (f *FulfillmentFacade) RequestApproval(ctx context.Context, order *model.Order) (*model.DesignApproval, error) {
	return f.approvals.Request(ctx, order)
}

func (f *FulfillmentFacade) ApprovalQueue(ctx context.Context) (usecase.QueueBuckets, error) {
	return f.queue.Buckets(ctx)
}

func (f *FulfillmentFacade) OrderNotifications(ctx context.Context, number string) ([]model.Notification, error) {
	order, err := f.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return f.notifications.ListByOrder(ctx, order.ID)
}

func (f *FulfillmentFacade) RecordMailEvent(ctx context.Context, providerMessageID string, event model.DeliveryEvent, at time.Time) (*model.Notification, error) {
	return f.notifications.RecordEvent(ctx, providerMessageID, event, at)
}

func (f *FulfillmentFacade) RetryNotification(ctx context.Context, id int64) (*model.Notification, error) {
	return f.notifications.Retry(ctx, id)
}

func (f *FulfillmentFacade) DeliverNotification(ctx context.Context, id int64) (*model.Notification, error) {
	return f.notifications.RecordSendAttempt(ctx, id)
}

func (f *FulfillmentFacade) NotificationsForSending(ctx context.Context, limit int) ([]model.Notification, error) {
	return f.notifications.BatchForSending(ctx, limit)
}

func (f *FulfillmentFacade) RetryableNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	return f.notifications.BatchForRetry(ctx, limit)
}

func (f *FulfillmentFacade) Ping(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
