package repository

import (
	"context"

	"github.com/craftlane/fulfillment/internal/domain/model"
)

// OrderRepository describes persistence operations with orders and their
// append-only transition history.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	// UpdateStatus persists the status change and the history record in one
	// transaction, guarded by the expected current status. A concurrent
	// writer winning the race yields ErrConflict.
	UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, trackingNumber *string, rec model.StatusTransition) (*model.Order, error)
	ListTransitions(ctx context.Context, orderID int64) ([]model.StatusTransition, error)
	// ListAwaitingApproval returns DESIGN_PENDING orders that require a
	// design approval but have no open one, so the sweep can re-open
	// approvals lost to a failed side effect.
	ListAwaitingApproval(ctx context.Context) ([]model.Order, error)
}
