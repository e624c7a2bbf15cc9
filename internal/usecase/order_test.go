package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
)

type stubOrderRepository struct {
	createFn          func(context.Context, *model.Order) (*model.Order, error)
	getByIDFn         func(context.Context, int64) (*model.Order, error)
	getByNumberFn     func(context.Context, string) (*model.Order, error)
	updateStatusFn    func(context.Context, int64, model.OrderStatus, model.OrderStatus, *string, model.StatusTransition) (*model.Order, error)
	listTransitionsFn func(context.Context, int64) ([]model.StatusTransition, error)
	listAwaitingFn    func(context.Context) ([]model.Order, error)
}

func (s stubOrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	if s.createFn == nil {
		panic("not implemented")
	}
	return s.createFn(ctx, order)
}

func (s stubOrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.getByIDFn == nil {
		panic("not implemented")
	}
	return s.getByIDFn(ctx, id)
}

func (s stubOrderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	if s.getByNumberFn == nil {
		panic("not implemented")
	}
	return s.getByNumberFn(ctx, number)
}

func (s stubOrderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, trackingNumber *string, rec model.StatusTransition) (*model.Order, error) {
	if s.updateStatusFn == nil {
		panic("not implemented")
	}
	return s.updateStatusFn(ctx, orderID, from, to, trackingNumber, rec)
}

func (s stubOrderRepository) ListTransitions(ctx context.Context, orderID int64) ([]model.StatusTransition, error) {
	if s.listTransitionsFn == nil {
		panic("not implemented")
	}
	return s.listTransitionsFn(ctx, orderID)
}

func (s stubOrderRepository) ListAwaitingApproval(ctx context.Context) ([]model.Order, error) {
	if s.listAwaitingFn == nil {
		panic("not implemented")
	}
	return s.listAwaitingFn(ctx)
}

func TestOrderUseCaseCreateRejectsInvalidNumber(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{createFn: func(context.Context, *model.Order) (*model.Order, error) {
		t.Fatal("create should not be called for invalid number")
		return nil, nil
	}})

	_, err := uc.Create(context.Background(), CreateOrderParams{Number: "ab", CustomerEmail: "a@b.com"})
	var validationErr *domainErrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderUseCaseCreateRejectsInvalidEmail(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{})

	_, err := uc.Create(context.Background(), CreateOrderParams{Number: "ORD-1001", CustomerEmail: "not-an-email"})
	var validationErr *domainErrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderUseCaseCreateDefaultsUrgency(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{createFn: func(ctx context.Context, order *model.Order) (*model.Order, error) {
		if order.Status != model.OrderStatusPending {
			t.Fatalf("new order must start PENDING, got %s", order.Status)
		}
		if order.Urgency != model.UrgencyNormal {
			t.Fatalf("expected NORMAL urgency default, got %s", order.Urgency)
		}
		stored := *order
		stored.ID = 1
		return &stored, nil
	}})

	order, err := uc.Create(context.Background(), CreateOrderParams{Number: "ORD-1001", CustomerEmail: "a@b.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != 1 {
		t.Fatalf("unexpected order id %d", order.ID)
	}
}

func TestOrderUseCaseCreatePropagatesConflict(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{createFn: func(context.Context, *model.Order) (*model.Order, error) {
		return nil, domainErrors.ErrAlreadyExists
	}})

	if _, err := uc.Create(context.Background(), CreateOrderParams{Number: "ORD-1001", CustomerEmail: "a@b.com"}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestOrderUseCaseTransitionRejectsIllegalEdge(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{
		getByIDFn: func(context.Context, int64) (*model.Order, error) {
			return &model.Order{ID: 1, Status: model.OrderStatusPending}, nil
		},
	})

	_, err := uc.Transition(context.Background(), 1, model.OrderStatusShipped, model.TransitionContext{})
	var transitionErr *domainErrors.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected transition error, got %v", err)
	}
	if transitionErr.From != model.OrderStatusPending || transitionErr.To != model.OrderStatusShipped {
		t.Fatalf("unexpected edge in error: %s -> %s", transitionErr.From, transitionErr.To)
	}
}

func TestOrderUseCaseTransitionRejectsSelfLoop(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{
		getByIDFn: func(context.Context, int64) (*model.Order, error) {
			return &model.Order{ID: 1, Status: model.OrderStatusProcessing}, nil
		},
	})

	_, err := uc.Transition(context.Background(), 1, model.OrderStatusProcessing, model.TransitionContext{})
	var transitionErr *domainErrors.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected transition error for self loop, got %v", err)
	}
}

func TestOrderUseCaseTransitionShippedRequiresTracking(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{
		getByIDFn: func(context.Context, int64) (*model.Order, error) {
			return &model.Order{ID: 1, Status: model.OrderStatusProduction}, nil
		},
	})

	_, err := uc.Transition(context.Background(), 1, model.OrderStatusShipped, model.TransitionContext{})
	var validationErr *domainErrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error without tracking number, got %v", err)
	}
}

func TestOrderUseCaseTransitionShippedAcceptsStoredTracking(t *testing.T) {
	tracking := "TRK-42"
	uc := NewOrderUseCase(stubOrderRepository{
		getByIDFn: func(context.Context, int64) (*model.Order, error) {
			return &model.Order{ID: 1, Status: model.OrderStatusProduction, TrackingNumber: &tracking}, nil
		},
		updateStatusFn: func(ctx context.Context, orderID int64, from, to model.OrderStatus, trackingNumber *string, rec model.StatusTransition) (*model.Order, error) {
			if trackingNumber != nil {
				t.Fatal("stored tracking number must not be overwritten")
			}
			return &model.Order{ID: orderID, Status: to, TrackingNumber: &tracking}, nil
		},
	})

	order, err := uc.Transition(context.Background(), 1, model.OrderStatusShipped, model.TransitionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusShipped {
		t.Fatalf("unexpected status %s", order.Status)
	}
}

func TestOrderUseCaseTransitionRecordsHistory(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var recorded model.StatusTransition
	uc := NewOrderUseCase(stubOrderRepository{
		getByIDFn: func(context.Context, int64) (*model.Order, error) {
			return &model.Order{ID: 7, Status: model.OrderStatusPending}, nil
		},
		updateStatusFn: func(ctx context.Context, orderID int64, from, to model.OrderStatus, trackingNumber *string, rec model.StatusTransition) (*model.Order, error) {
			recorded = rec
			return &model.Order{ID: orderID, Status: to}, nil
		},
	})
	uc.now = func() time.Time { return fixed }

	_, err := uc.Transition(context.Background(), 7, model.OrderStatusDesignPending, model.TransitionContext{Reason: "customer uploaded artwork"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorded.From != model.OrderStatusPending || recorded.To != model.OrderStatusDesignPending {
		t.Fatalf("unexpected edge recorded: %s -> %s", recorded.From, recorded.To)
	}
	if recorded.Actor != model.SystemActor {
		t.Fatalf("expected system actor default, got %q", recorded.Actor)
	}
	if !recorded.OccurredAt.Equal(fixed) {
		t.Fatalf("unexpected timestamp %s", recorded.OccurredAt)
	}
	if recorded.Reason != "customer uploaded artwork" {
		t.Fatalf("unexpected reason %q", recorded.Reason)
	}
}

func TestOrderUseCaseTransitionPropagatesConflict(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{
		getByIDFn: func(context.Context, int64) (*model.Order, error) {
			return &model.Order{ID: 1, Status: model.OrderStatusPending}, nil
		},
		updateStatusFn: func(context.Context, int64, model.OrderStatus, model.OrderStatus, *string, model.StatusTransition) (*model.Order, error) {
			return nil, domainErrors.ErrConflict
		},
	})

	if _, err := uc.Transition(context.Background(), 1, model.OrderStatusCancelled, model.TransitionContext{}); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict from concurrent writer, got %v", err)
	}
}

func TestOrderUseCaseAwaitingApproval(t *testing.T) {
	uc := NewOrderUseCase(stubOrderRepository{
		listAwaitingFn: func(context.Context) ([]model.Order, error) {
			return []model.Order{{ID: 4, Number: "ORD-1004", Status: model.OrderStatusDesignPending}}, nil
		},
	})

	orders, err := uc.AwaitingApproval(context.Background())
	if err != nil || len(orders) != 1 || orders[0].ID != 4 {
		t.Fatalf("unexpected result: %v err=%v", orders, err)
	}
}
