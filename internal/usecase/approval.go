package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/domain/repository"
)

// NotificationEnqueuer is the subset of the notification tracker the
// approval workflow needs: it only ever enqueues, sends happen elsewhere.
type NotificationEnqueuer interface {
	Enqueue(ctx context.Context, orderID int64, approvalID *int64, recipient, templateID string) (*model.Notification, error)
}

// ApprovalUseCase owns the design approval gate: requesting, deciding,
// overriding, reminding and expiring.
type ApprovalUseCase struct {
	approvals repository.ApprovalRepository
	orders    repository.OrderRepository
	notifier  NotificationEnqueuer
	validity  time.Duration
	now       func() time.Time
}

// NewApprovalUseCase constructs ApprovalUseCase with the configured validity window.
func NewApprovalUseCase(approvals repository.ApprovalRepository, orders repository.OrderRepository, notifier NotificationEnqueuer, validity time.Duration) *ApprovalUseCase {
	return &ApprovalUseCase{
		approvals: approvals,
		orders:    orders,
		notifier:  notifier,
		validity:  validity,
		now:       time.Now,
	}
}

// Request opens a new approval cycle for the order. If one is already open
// it is returned unchanged, keeping the one-active-approval invariant.
func (u *ApprovalUseCase) Request(ctx context.Context, order *model.Order) (*model.DesignApproval, error) {
	if existing, err := u.approvals.FindOpenByOrder(ctx, order.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	now := u.now()
	approval := &model.DesignApproval{
		OrderID:     order.ID,
		Status:      model.ApprovalStatusPending,
		Token:       uuid.NewString(),
		RequestedAt: now,
		ExpiresAt:   now.Add(u.validity),
	}

	created, err := u.approvals.Create(ctx, approval)
	if err != nil {
		return nil, err
	}

	if _, err := u.notifier.Enqueue(ctx, order.ID, &created.ID, order.CustomerEmail, model.TemplateApprovalRequest); err != nil {
		return nil, err
	}

	return created, nil
}

// GetByID loads an approval.
func (u *ApprovalUseCase) GetByID(ctx context.Context, id int64) (*model.DesignApproval, error) {
	return u.approvals.GetByID(ctx, id)
}

// Decide records a customer decision authorized by the approval token.
// Token comparison is bit-exact. First writer wins: a concurrent decision
// or override leaves the loser with ErrAlreadyDecided.
func (u *ApprovalUseCase) Decide(ctx context.Context, id int64, token string, decision model.ApprovalDecision, reason string) (*model.DesignApproval, error) {
	if !ValidateDecision(decision) {
		return nil, domainErrors.NewValidation("unknown decision %q", decision)
	}
	if decision == model.DecisionReject && reason == "" {
		return nil, domainErrors.NewValidation("rejection reason is required")
	}

	approval, err := u.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !approval.Open() {
		return nil, domainErrors.ErrAlreadyDecided
	}
	if subtle.ConstantTimeCompare([]byte(approval.Token), []byte(token)) != 1 {
		return nil, domainErrors.ErrTokenMismatch
	}

	return u.close(ctx, id, decision, model.CustomerActor, reason)
}

// AdminOverride records a staff decision. It is permitted even past the
// validity window, but never after the approval already reached a terminal
// status: terminal states stay immutable.
func (u *ApprovalUseCase) AdminOverride(ctx context.Context, id int64, decision model.ApprovalDecision, actor, reason string) (*model.DesignApproval, error) {
	if actor == "" || actor == model.CustomerActor {
		return nil, domainErrors.NewValidation("override requires a staff actor")
	}
	if !ValidateDecision(decision) {
		return nil, domainErrors.NewValidation("unknown decision %q", decision)
	}
	if decision == model.DecisionReject && reason == "" {
		return nil, domainErrors.NewValidation("rejection reason is required")
	}

	approval, err := u.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !approval.Open() {
		return nil, domainErrors.ErrAlreadyDecided
	}

	return u.close(ctx, id, decision, actor, reason)
}

func (u *ApprovalUseCase) close(ctx context.Context, id int64, decision model.ApprovalDecision, actor, reason string) (*model.DesignApproval, error) {
	respondedAt := u.now()
	closure := model.ApprovalClosure{RespondedAt: &respondedAt}
	if decision == model.DecisionApprove {
		closure.Status = model.ApprovalStatusApproved
		closure.ApprovedBy = actor
	} else {
		closure.Status = model.ApprovalStatusRejected
		closure.RejectedBy = actor
		closure.RejectionReason = reason
	}
	return u.approvals.Close(ctx, id, closure)
}

// SendReminder enqueues one reminder while the approval is still open and
// inside the validity window. Throttling is the caller's concern.
func (u *ApprovalUseCase) SendReminder(ctx context.Context, id int64) (*model.DesignApproval, error) {
	approval, err := u.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !approval.Open() {
		return nil, domainErrors.ErrAlreadyDecided
	}
	if !u.now().Before(approval.ExpiresAt) {
		return nil, domainErrors.NewValidation("approval validity window has passed")
	}

	order, err := u.orders.GetByID(ctx, approval.OrderID)
	if err != nil {
		return nil, err
	}

	updated, err := u.approvals.IncrementReminders(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := u.notifier.Enqueue(ctx, order.ID, &updated.ID, order.CustomerEmail, model.TemplateApprovalReminder); err != nil {
		return nil, err
	}

	return updated, nil
}

// Expire closes an overdue approval as EXPIRED. Calling it on an already
// expired approval is a no-op, so sweeps stay idempotent.
func (u *ApprovalUseCase) Expire(ctx context.Context, id int64) (*model.DesignApproval, error) {
	approval, err := u.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if approval.Status == model.ApprovalStatusExpired {
		return approval, nil
	}
	if !approval.Open() {
		return nil, domainErrors.ErrAlreadyDecided
	}
	if u.now().Before(approval.ExpiresAt) {
		return nil, domainErrors.NewValidation("approval has not reached its expiry time")
	}

	closed, err := u.approvals.Close(ctx, id, model.ApprovalClosure{Status: model.ApprovalStatusExpired})
	if err != nil {
		// A racing decision or sweep won; an expired end state still counts
		// as done for this sweep.
		if errors.Is(err, domainErrors.ErrAlreadyDecided) {
			fresh, ferr := u.approvals.GetByID(ctx, id)
			if ferr == nil && fresh.Status == model.ApprovalStatusExpired {
				return fresh, nil
			}
		}
		return nil, err
	}
	return closed, nil
}

// CancelOpen closes the order's open approval as CANCELLED, distinct from
// EXPIRED for reporting. Missing open approval is not an error.
func (u *ApprovalUseCase) CancelOpen(ctx context.Context, orderID int64) (*model.DesignApproval, error) {
	approval, err := u.approvals.FindOpenByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u.approvals.Close(ctx, approval.ID, model.ApprovalClosure{Status: model.ApprovalStatusCancelled})
}

// PendingOlderThan lists open approvals for the sweeper.
func (u *ApprovalUseCase) PendingOlderThan(ctx context.Context, age time.Duration) ([]model.DesignApproval, error) {
	return u.approvals.FindPendingOlderThan(ctx, age)
}
