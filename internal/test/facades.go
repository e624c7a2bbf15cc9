package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/craftlane/fulfillment/internal/adapter/mailer"
	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/usecase"
)

// FulfillmentFacadeStub provides controllable behaviour for HTTP handlers.
type FulfillmentFacadeStub struct {
	CreateOrderFn        func(context.Context, usecase.CreateOrderParams) (*model.Order, error)
	OrderFn              func(context.Context, string) (*model.Order, error)
	OrderHistoryFn       func(context.Context, string) ([]model.StatusTransition, error)
	TransitionOrderFn    func(context.Context, string, model.OrderStatus, model.TransitionContext) (*model.Order, error)
	DecideApprovalFn     func(context.Context, int64, string, model.ApprovalDecision, string) (*model.DesignApproval, error)
	OverrideApprovalFn   func(context.Context, int64, model.ApprovalDecision, string, string) (*model.DesignApproval, error)
	SendReminderFn       func(context.Context, int64) (*model.DesignApproval, error)
	ApprovalQueueFn      func(context.Context) (usecase.QueueBuckets, error)
	OrderNotificationsFn func(context.Context, string) ([]model.Notification, error)
	RetryNotificationFn  func(context.Context, int64) (*model.Notification, error)
	RecordMailEventFn    func(context.Context, string, model.DeliveryEvent, time.Time) (*model.Notification, error)
	PingFn               func(context.Context) error
}

// CreateOrder delegates to the configured function or returns a default order.
func (s FulfillmentFacadeStub) CreateOrder(ctx context.Context, params usecase.CreateOrderParams) (*model.Order, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, params)
	}
	return &model.Order{ID: 1, Number: params.Number, CustomerEmail: params.CustomerEmail, Status: model.OrderStatusPending, Urgency: model.UrgencyNormal}, nil
}

// Order returns a default order with the requested number.
func (s FulfillmentFacadeStub) Order(ctx context.Context, number string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, number)
	}
	return &model.Order{ID: 1, Number: number, Status: model.OrderStatusPending, Urgency: model.UrgencyNormal}, nil
}

// OrderHistory returns configured history records.
func (s FulfillmentFacadeStub) OrderHistory(ctx context.Context, number string) ([]model.StatusTransition, error) {
	if s.OrderHistoryFn != nil {
		return s.OrderHistoryFn(ctx, number)
	}
	return nil, nil
}

// TransitionOrder delegates to the configured function.
func (s FulfillmentFacadeStub) TransitionOrder(ctx context.Context, number string, target model.OrderStatus, tctx model.TransitionContext) (*model.Order, error) {
	if s.TransitionOrderFn != nil {
		return s.TransitionOrderFn(ctx, number, target, tctx)
	}
	return &model.Order{ID: 1, Number: number, Status: target, Urgency: model.UrgencyNormal}, nil
}

// DecideApproval delegates to the configured function.
func (s FulfillmentFacadeStub) DecideApproval(ctx context.Context, id int64, token string, decision model.ApprovalDecision, reason string) (*model.DesignApproval, error) {
	if s.DecideApprovalFn != nil {
		return s.DecideApprovalFn(ctx, id, token, decision, reason)
	}
	return &model.DesignApproval{ID: id, Status: model.ApprovalStatusApproved}, nil
}

// OverrideApproval delegates to the configured function.
func (s FulfillmentFacadeStub) OverrideApproval(ctx context.Context, id int64, decision model.ApprovalDecision, actor, reason string) (*model.DesignApproval, error) {
	if s.OverrideApprovalFn != nil {
		return s.OverrideApprovalFn(ctx, id, decision, actor, reason)
	}
	return &model.DesignApproval{ID: id, Status: model.ApprovalStatusApproved, ApprovedBy: actor}, nil
}

// SendApprovalReminder delegates to the configured function.
func (s FulfillmentFacadeStub) SendApprovalReminder(ctx context.Context, id int64) (*model.DesignApproval, error) {
	if s.SendReminderFn != nil {
		return s.SendReminderFn(ctx, id)
	}
	return &model.DesignApproval{ID: id, Status: model.ApprovalStatusPending, RemindersSent: 1}, nil
}

// ApprovalQueue returns configured queue buckets.
func (s FulfillmentFacadeStub) ApprovalQueue(ctx context.Context) (usecase.QueueBuckets, error) {
	if s.ApprovalQueueFn != nil {
		return s.ApprovalQueueFn(ctx)
	}
	return usecase.QueueBuckets{}, nil
}

// OrderNotifications returns the configured email log.
func (s FulfillmentFacadeStub) OrderNotifications(ctx context.Context, number string) ([]model.Notification, error) {
	if s.OrderNotificationsFn != nil {
		return s.OrderNotificationsFn(ctx, number)
	}
	return nil, nil
}

// RetryNotification delegates to the configured function.
func (s FulfillmentFacadeStub) RetryNotification(ctx context.Context, id int64) (*model.Notification, error) {
	if s.RetryNotificationFn != nil {
		return s.RetryNotificationFn(ctx, id)
	}
	return &model.Notification{ID: id, Status: model.NotificationStatusSent, RetryCount: 1}, nil
}

// RecordMailEvent delegates to the configured function.
func (s FulfillmentFacadeStub) RecordMailEvent(ctx context.Context, providerMessageID string, event model.DeliveryEvent, at time.Time) (*model.Notification, error) {
	if s.RecordMailEventFn != nil {
		return s.RecordMailEventFn(ctx, providerMessageID, event, at)
	}
	return &model.Notification{ID: 1, ProviderMessageID: providerMessageID, Status: model.NotificationStatusDelivered}, nil
}

// Ping reports configured health state.
func (s FulfillmentFacadeStub) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}
	return nil
}

// SweeperFacadeStub mimics sweeper interactions with the fulfillment facade.
type SweeperFacadeStub struct {
	PendingFn  func(context.Context, time.Duration) ([]model.DesignApproval, error)
	ExpireFn   func(context.Context, int64) (*model.DesignApproval, error)
	RemindFn   func(context.Context, int64) (*model.DesignApproval, error)
	AwaitingFn func(context.Context) ([]model.Order, error)
	RequestFn  func(context.Context, *model.Order) (*model.DesignApproval, error)

	Expired   []int64
	Reminded  []int64
	Requested []int64
	mu        sync.Mutex
}

// PendingApprovalsOlderThan returns the configured batch.
func (s *SweeperFacadeStub) PendingApprovalsOlderThan(ctx context.Context, age time.Duration) ([]model.DesignApproval, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, age)
	}
	return nil, nil
}

// ExpireApproval records the invocation.
func (s *SweeperFacadeStub) ExpireApproval(ctx context.Context, id int64) (*model.DesignApproval, error) {
	if s.ExpireFn != nil {
		return s.ExpireFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Expired = append(s.Expired, id)
	return &model.DesignApproval{ID: id, Status: model.ApprovalStatusExpired}, nil
}

// SendApprovalReminder records the invocation.
func (s *SweeperFacadeStub) SendApprovalReminder(ctx context.Context, id int64) (*model.DesignApproval, error) {
	if s.RemindFn != nil {
		return s.RemindFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reminded = append(s.Reminded, id)
	return &model.DesignApproval{ID: id, Status: model.ApprovalStatusPending, RemindersSent: 1}, nil
}

// OrdersAwaitingApproval returns the configured batch.
func (s *SweeperFacadeStub) OrdersAwaitingApproval(ctx context.Context) ([]model.Order, error) {
	if s.AwaitingFn != nil {
		return s.AwaitingFn(ctx)
	}
	return nil, nil
}

// RequestApproval records the order the approval was re-opened for.
func (s *SweeperFacadeStub) RequestApproval(ctx context.Context, order *model.Order) (*model.DesignApproval, error) {
	if s.RequestFn != nil {
		return s.RequestFn(ctx, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requested = append(s.Requested, order.ID)
	return &model.DesignApproval{ID: order.ID, OrderID: order.ID, Status: model.ApprovalStatusPending}, nil
}

// SenderFacadeStub mimics sender pool interactions with the fulfillment facade.
type SenderFacadeStub struct {
	Pending   [][]model.Notification
	Retryable [][]model.Notification
	PendingFn func(context.Context, int) ([]model.Notification, error)
	RetryFn   func(context.Context, int64) (*model.Notification, error)
	DeliverFn func(context.Context, int64) (*model.Notification, error)

	Delivered []int64
	Retried   []int64
	mu        sync.Mutex

	pendingCalls   int32
	retryableCalls int32
}

// Lock exposes internal mutex for external synchronization.
func (s *SenderFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *SenderFacadeStub) Unlock() { s.mu.Unlock() }

// NotificationsForSending returns batches from the configured queue.
func (s *SenderFacadeStub) NotificationsForSending(ctx context.Context, limit int) ([]model.Notification, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.pendingCalls, 1)
	if int(call) <= len(s.Pending) {
		return s.Pending[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// RetryableNotifications returns batches from the configured queue.
func (s *SenderFacadeStub) RetryableNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	call := atomic.AddInt32(&s.retryableCalls, 1)
	if int(call) <= len(s.Retryable) {
		return s.Retryable[call-1], nil
	}
	return nil, nil
}

// DeliverNotification records the invocation.
func (s *SenderFacadeStub) DeliverNotification(ctx context.Context, id int64) (*model.Notification, error) {
	if s.DeliverFn != nil {
		return s.DeliverFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delivered = append(s.Delivered, id)
	return &model.Notification{ID: id, Status: model.NotificationStatusSent}, nil
}

// RetryNotification records the invocation.
func (s *SenderFacadeStub) RetryNotification(ctx context.Context, id int64) (*model.Notification, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Retried = append(s.Retried, id)
	return &model.Notification{ID: id, Status: model.NotificationStatusSent, RetryCount: 1}, nil
}

// MailClientStub simulates the mail provider transport.
type MailClientStub struct {
	SendFn func(context.Context, mailer.Message) (*mailer.Result, error)

	Sent []mailer.Message
	mu   sync.Mutex
}

// Send records the message and returns the configured result.
func (s *MailClientStub) Send(ctx context.Context, msg mailer.Message) (*mailer.Result, error) {
	s.mu.Lock()
	s.Sent = append(s.Sent, msg)
	s.mu.Unlock()
	if s.SendFn != nil {
		return s.SendFn(ctx, msg)
	}
	return &mailer.Result{ProviderMessageID: "msg-1"}, nil
}

// EnqueuerStub records notification enqueue requests.
type EnqueuerStub struct {
	EnqueueFn func(context.Context, int64, *int64, string, string) (*model.Notification, error)

	Enqueued []model.Notification
	mu       sync.Mutex
}

// Enqueue records the invocation and returns a PENDING record.
func (s *EnqueuerStub) Enqueue(ctx context.Context, orderID int64, approvalID *int64, recipient, templateID string) (*model.Notification, error) {
	if s.EnqueueFn != nil {
		return s.EnqueueFn(ctx, orderID, approvalID, recipient, templateID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := model.Notification{
		ID:         int64(len(s.Enqueued) + 1),
		OrderID:    orderID,
		ApprovalID: approvalID,
		Recipient:  recipient,
		TemplateID: templateID,
		Status:     model.NotificationStatusPending,
	}
	s.Enqueued = append(s.Enqueued, n)
	copied := n
	return &copied, nil
}
