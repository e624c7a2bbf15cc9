package repository

import (
	"context"
	"time"

	"github.com/craftlane/fulfillment/internal/domain/model"
)

// ApprovalRepository describes persistence operations with design approvals.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *model.DesignApproval) (*model.DesignApproval, error)
	GetByID(ctx context.Context, id int64) (*model.DesignApproval, error)
	// FindOpenByOrder returns the single PENDING approval for the order,
	// or ErrNotFound when none is open.
	FindOpenByOrder(ctx context.Context, orderID int64) (*model.DesignApproval, error)
	// Close writes a terminal status guarded by the approval still being
	// PENDING. The loser of a concurrent close observes ErrAlreadyDecided.
	Close(ctx context.Context, id int64, closure model.ApprovalClosure) (*model.DesignApproval, error)
	// IncrementReminders bumps the reminder counter while PENDING.
	IncrementReminders(ctx context.Context, id int64) (*model.DesignApproval, error)
	// FindPendingOlderThan returns PENDING approvals requested at least age
	// ago, oldest first. Zero age returns every open approval.
	FindPendingOlderThan(ctx context.Context, age time.Duration) ([]model.DesignApproval, error)
	// ListOpenWithOrders joins open approvals with their orders for the
	// staff queue, oldest request first.
	ListOpenWithOrders(ctx context.Context) ([]model.ApprovalWithOrder, error)
}
