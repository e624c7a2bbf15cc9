package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
)

// OrderRepositoryStub stores orders in-memory for tests.
type OrderRepositoryStub struct {
	CreateFn          func(context.Context, *model.Order) (*model.Order, error)
	GetByIDFn         func(context.Context, int64) (*model.Order, error)
	GetByNumberFn     func(context.Context, string) (*model.Order, error)
	UpdateStatusFn    func(context.Context, int64, model.OrderStatus, model.OrderStatus, *string, model.StatusTransition) (*model.Order, error)
	ListTransitionsFn func(context.Context, int64) ([]model.StatusTransition, error)
	ListAwaitingFn    func(context.Context) ([]model.Order, error)

	Orders      map[int64]*model.Order
	Next        int64
	Transitions []model.StatusTransition
	Err         error

	mu sync.Mutex
}

// NewOrderRepositoryStub constructs stub repository with initialized state.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{Orders: make(map[int64]*model.Order), Next: 1}
}

// Add seeds an order directly into the stub store.
func (s *OrderRepositoryStub) Add(order model.Order) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == 0 {
		order.ID = s.Next
		s.Next++
	} else if order.ID >= s.Next {
		s.Next = order.ID + 1
	}
	s.Orders[order.ID] = &order
	return &order
}

// Create registers order unless the number is taken.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Orders {
		if existing.Number == order.Number {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	stored := *order
	stored.ID = s.Next
	s.Next++
	s.Orders[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// GetByID fetches an order by identifier or returns not found.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.Orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByNumber fetches an order by public number or returns not found.
func (s *OrderRepositoryStub) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	if s.GetByNumberFn != nil {
		return s.GetByNumberFn(ctx, number)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.Orders {
		if order.Number == number {
			copied := *order
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// UpdateStatus applies the guarded status change and appends the history record.
func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, trackingNumber *string, rec model.StatusTransition) (*model.Order, error) {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, orderID, from, to, trackingNumber, rec)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if order.Status != from {
		return nil, domainErrors.ErrConflict
	}
	order.Status = to
	if trackingNumber != nil {
		order.TrackingNumber = trackingNumber
	}
	s.Transitions = append(s.Transitions, rec)
	copied := *order
	return &copied, nil
}

// ListTransitions returns accumulated history records for the order.
func (s *OrderRepositoryStub) ListTransitions(ctx context.Context, orderID int64) ([]model.StatusTransition, error) {
	if s.ListTransitionsFn != nil {
		return s.ListTransitionsFn(ctx, orderID)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.StatusTransition
	for _, rec := range s.Transitions {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListAwaitingApproval delegates to the configured function; by default no
// order is missing its approval.
func (s *OrderRepositoryStub) ListAwaitingApproval(ctx context.Context) ([]model.Order, error) {
	if s.ListAwaitingFn != nil {
		return s.ListAwaitingFn(ctx)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return nil, nil
}

// ApprovalRepositoryStub stores design approvals in-memory for tests.
type ApprovalRepositoryStub struct {
	CreateFn             func(context.Context, *model.DesignApproval) (*model.DesignApproval, error)
	GetByIDFn            func(context.Context, int64) (*model.DesignApproval, error)
	FindOpenByOrderFn    func(context.Context, int64) (*model.DesignApproval, error)
	CloseFn              func(context.Context, int64, model.ApprovalClosure) (*model.DesignApproval, error)
	IncrementRemindersFn func(context.Context, int64) (*model.DesignApproval, error)
	FindPendingFn        func(context.Context, time.Duration) ([]model.DesignApproval, error)
	ListOpenFn           func(context.Context) ([]model.ApprovalWithOrder, error)

	Approvals map[int64]*model.DesignApproval
	Joined    []model.ApprovalWithOrder
	Next      int64
	Err       error

	mu sync.Mutex
}

// NewApprovalRepositoryStub constructs stub repository with initialized state.
func NewApprovalRepositoryStub() *ApprovalRepositoryStub {
	return &ApprovalRepositoryStub{Approvals: make(map[int64]*model.DesignApproval), Next: 1}
}

// Add seeds an approval directly into the stub store.
func (s *ApprovalRepositoryStub) Add(approval model.DesignApproval) *model.DesignApproval {
	s.mu.Lock()
	defer s.mu.Unlock()
	if approval.ID == 0 {
		approval.ID = s.Next
		s.Next++
	} else if approval.ID >= s.Next {
		s.Next = approval.ID + 1
	}
	s.Approvals[approval.ID] = &approval
	return &approval
}

// Create stores an approval, rejecting a second open one per order.
func (s *ApprovalRepositoryStub) Create(ctx context.Context, approval *model.DesignApproval) (*model.DesignApproval, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, approval)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Approvals {
		if existing.OrderID == approval.OrderID && existing.Status == model.ApprovalStatusPending {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	stored := *approval
	stored.ID = s.Next
	s.Next++
	s.Approvals[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// GetByID fetches an approval by identifier or returns not found.
func (s *ApprovalRepositoryStub) GetByID(ctx context.Context, id int64) (*model.DesignApproval, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if approval, ok := s.Approvals[id]; ok {
		copied := *approval
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// FindOpenByOrder returns the PENDING approval of the order.
func (s *ApprovalRepositoryStub) FindOpenByOrder(ctx context.Context, orderID int64) (*model.DesignApproval, error) {
	if s.FindOpenByOrderFn != nil {
		return s.FindOpenByOrderFn(ctx, orderID)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, approval := range s.Approvals {
		if approval.OrderID == orderID && approval.Status == model.ApprovalStatusPending {
			copied := *approval
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// Close writes the terminal state while the approval is still PENDING.
func (s *ApprovalRepositoryStub) Close(ctx context.Context, id int64, closure model.ApprovalClosure) (*model.DesignApproval, error) {
	if s.CloseFn != nil {
		return s.CloseFn(ctx, id, closure)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	approval, ok := s.Approvals[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if approval.Status != model.ApprovalStatusPending {
		return nil, domainErrors.ErrAlreadyDecided
	}
	approval.Status = closure.Status
	approval.RespondedAt = closure.RespondedAt
	approval.ApprovedBy = closure.ApprovedBy
	approval.RejectedBy = closure.RejectedBy
	approval.RejectionReason = closure.RejectionReason
	copied := *approval
	return &copied, nil
}

// IncrementReminders bumps the counter while the approval is still PENDING.
func (s *ApprovalRepositoryStub) IncrementReminders(ctx context.Context, id int64) (*model.DesignApproval, error) {
	if s.IncrementRemindersFn != nil {
		return s.IncrementRemindersFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	approval, ok := s.Approvals[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if approval.Status != model.ApprovalStatusPending {
		return nil, domainErrors.ErrAlreadyDecided
	}
	approval.RemindersSent++
	copied := *approval
	return &copied, nil
}

// FindPendingOlderThan filters open approvals by request age, oldest first.
func (s *ApprovalRepositoryStub) FindPendingOlderThan(ctx context.Context, age time.Duration) ([]model.DesignApproval, error) {
	if s.FindPendingFn != nil {
		return s.FindPendingFn(ctx, age)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-age)
	var out []model.DesignApproval
	for _, approval := range s.Approvals {
		if approval.Status == model.ApprovalStatusPending && !approval.RequestedAt.After(cutoff) {
			out = append(out, *approval)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

// ListOpenWithOrders returns the configured joined rows.
func (s *ApprovalRepositoryStub) ListOpenWithOrders(ctx context.Context) ([]model.ApprovalWithOrder, error) {
	if s.ListOpenFn != nil {
		return s.ListOpenFn(ctx)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Joined, nil
}

// NotificationRepositoryStub stores notification records in-memory for tests.
type NotificationRepositoryStub struct {
	CreateFn         func(context.Context, *model.Notification) (*model.Notification, error)
	GetByIDFn        func(context.Context, int64) (*model.Notification, error)
	GetByProviderFn  func(context.Context, string) (*model.Notification, error)
	UpdateFn         func(context.Context, *model.Notification) (*model.Notification, error)
	MarkSendingFn    func(context.Context, int64) (*model.Notification, error)
	SelectPendingFn  func(context.Context, int) ([]model.Notification, error)
	SelectForRetryFn func(context.Context, int, int) ([]model.Notification, error)
	ListByOrderFn    func(context.Context, int64) ([]model.Notification, error)

	Notifications map[int64]*model.Notification
	Next          int64
	Err           error

	mu sync.Mutex
}

// NewNotificationRepositoryStub constructs stub repository with initialized state.
func NewNotificationRepositoryStub() *NotificationRepositoryStub {
	return &NotificationRepositoryStub{Notifications: make(map[int64]*model.Notification), Next: 1}
}

// Add seeds a notification directly into the stub store.
func (s *NotificationRepositoryStub) Add(n model.Notification) *model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == 0 {
		n.ID = s.Next
		s.Next++
	} else if n.ID >= s.Next {
		s.Next = n.ID + 1
	}
	s.Notifications[n.ID] = &n
	return &n
}

// Create stores a new notification record.
func (s *NotificationRepositoryStub) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, n)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *n
	stored.ID = s.Next
	s.Next++
	s.Notifications[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// GetByID fetches a record by identifier or returns not found.
func (s *NotificationRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.Notifications[id]; ok {
		copied := *n
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByProviderMessageID resolves a record by the provider identifier.
func (s *NotificationRepositoryStub) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*model.Notification, error) {
	if s.GetByProviderFn != nil {
		return s.GetByProviderFn(ctx, providerMessageID)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.Notifications {
		if n.ProviderMessageID == providerMessageID {
			copied := *n
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// Update replaces the stored record with the given state.
func (s *NotificationRepositoryStub) Update(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, n)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Notifications[n.ID]; !ok {
		return nil, domainErrors.ErrNotFound
	}
	stored := *n
	s.Notifications[n.ID] = &stored
	copied := stored
	return &copied, nil
}

// MarkSending claims a PENDING record; losers of the race get ErrConflict.
func (s *NotificationRepositoryStub) MarkSending(ctx context.Context, id int64) (*model.Notification, error) {
	if s.MarkSendingFn != nil {
		return s.MarkSendingFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.Notifications[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if n.Status != model.NotificationStatusPending {
		return nil, domainErrors.ErrConflict
	}
	n.Status = model.NotificationStatusSending
	copied := *n
	return &copied, nil
}

// SelectBatchForSending returns PENDING records oldest first, claiming
// them as SENDING.
func (s *NotificationRepositoryStub) SelectBatchForSending(ctx context.Context, limit int) ([]model.Notification, error) {
	if s.SelectPendingFn != nil {
		return s.SelectPendingFn(ctx, limit)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []*model.Notification
	for _, n := range s.Notifications {
		if n.Status == model.NotificationStatusPending {
			pending = append(pending, n)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	out := make([]model.Notification, 0, len(pending))
	for _, n := range pending {
		n.Status = model.NotificationStatusSending
		out = append(out, *n)
	}
	return out, nil
}

// SelectBatchForRetry returns failed records with retry budget left.
func (s *NotificationRepositoryStub) SelectBatchForRetry(ctx context.Context, limit, maxRetries int) ([]model.Notification, error) {
	if s.SelectForRetryFn != nil {
		return s.SelectForRetryFn(ctx, limit, maxRetries)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.Notifications {
		retryable := n.Status == model.NotificationStatusFailed || n.Status == model.NotificationStatusBounced
		if retryable && n.RetryCount < maxRetries {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByOrder returns the order's records ordered by identifier.
func (s *NotificationRepositoryStub) ListByOrder(ctx context.Context, orderID int64) ([]model.Notification, error) {
	if s.ListByOrderFn != nil {
		return s.ListByOrderFn(ctx, orderID)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.Notifications {
		if n.OrderID == orderID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
