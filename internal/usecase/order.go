package usecase

import (
	"context"
	"time"

	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/domain/repository"
)

// CreateOrderParams carries caller input for order creation.
type CreateOrderParams struct {
	Number                 string
	CustomerEmail          string
	Urgency                model.UrgencyLevel
	DesignApprovalRequired bool
	ExpectedDelivery       *time.Time
}

// OrderUseCase enforces the order fulfillment state machine.
type OrderUseCase struct {
	orders repository.OrderRepository
	now    func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders, now: time.Now}
}

// Create registers a new order in PENDING.
func (u *OrderUseCase) Create(ctx context.Context, params CreateOrderParams) (*model.Order, error) {
	if !ValidateOrderNumber(params.Number) {
		return nil, domainErrors.NewValidation("invalid order number %q", params.Number)
	}
	if !ValidateEmail(params.CustomerEmail) {
		return nil, domainErrors.NewValidation("invalid customer email")
	}
	urgency := params.Urgency
	if urgency == "" {
		urgency = model.UrgencyNormal
	}
	if !ValidateUrgency(urgency) {
		return nil, domainErrors.NewValidation("unknown urgency level %q", urgency)
	}

	order := &model.Order{
		Number:                 params.Number,
		CustomerEmail:          params.CustomerEmail,
		Status:                 model.OrderStatusPending,
		Urgency:                urgency,
		DesignApprovalRequired: params.DesignApprovalRequired,
		ExpectedDelivery:       params.ExpectedDelivery,
	}
	return u.orders.Create(ctx, order)
}

// GetByNumber loads an order by its human-facing number.
func (u *OrderUseCase) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return u.orders.GetByNumber(ctx, number)
}

// GetByID loads an order by identifier.
func (u *OrderUseCase) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return u.orders.GetByID(ctx, id)
}

// History returns the append-only transition records of an order.
func (u *OrderUseCase) History(ctx context.Context, orderID int64) ([]model.StatusTransition, error) {
	return u.orders.ListTransitions(ctx, orderID)
}

// AwaitingApproval lists DESIGN_PENDING orders that require a design
// approval but have no open one.
func (u *OrderUseCase) AwaitingApproval(ctx context.Context) ([]model.Order, error) {
	return u.orders.ListAwaitingApproval(ctx)
}

// AllowedNextStates is a pure lookup of legal target statuses.
func (u *OrderUseCase) AllowedNextStates(status model.OrderStatus) []model.OrderStatus {
	return model.AllowedNextStates(status)
}

// Transition moves the order to target after validating the edge and its
// required side data, appending one history record atomically with the
// status change. A request equal to the current status is rejected.
func (u *OrderUseCase) Transition(ctx context.Context, orderID int64, target model.OrderStatus, tctx model.TransitionContext) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(order.Status, target) {
		return nil, domainErrors.NewTransition(order.Status, target)
	}

	var trackingNumber *string
	if tctx.TrackingNumber != "" {
		trackingNumber = &tctx.TrackingNumber
	}
	if target == model.OrderStatusShipped {
		hasStored := order.TrackingNumber != nil && *order.TrackingNumber != ""
		if trackingNumber == nil && !hasStored {
			return nil, domainErrors.NewValidation("tracking number is required before shipping")
		}
	}

	actor := tctx.Actor
	if actor == "" {
		actor = model.SystemActor
	}

	rec := model.StatusTransition{
		OrderID:    order.ID,
		From:       order.Status,
		To:         target,
		OccurredAt: u.now(),
		Actor:      actor,
		Reason:     tctx.Reason,
		Note:       tctx.Note,
	}

	return u.orders.UpdateStatus(ctx, order.ID, order.Status, target, trackingNumber, rec)
}
