package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/domain/repository"
)

// QueueBuckets are the staff-facing SLA buckets. Overdue and urgent may
// overlap; pending excludes both. Each bucket is ordered oldest request
// first.
type QueueBuckets struct {
	Overdue []model.ApprovalWithOrder
	Urgent  []model.ApprovalWithOrder
	Pending []model.ApprovalWithOrder
}

// ClassifyQueue derives the buckets from the open approvals. It is a pure
// function of the inputs: same items and clock yield identical membership
// and ordering.
func ClassifyQueue(now time.Time, overdueAfter time.Duration, items []model.ApprovalWithOrder) QueueBuckets {
	sorted := make([]model.ApprovalWithOrder, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Approval.RequestedAt.Before(sorted[j].Approval.RequestedAt)
	})

	var buckets QueueBuckets
	for _, item := range sorted {
		if !item.Approval.Open() {
			continue
		}
		overdue := now.Sub(item.Approval.RequestedAt) > overdueAfter
		urgent := item.Order.Urgency == model.UrgencyRush || item.Order.Urgency == model.UrgencyEmergency
		if overdue {
			buckets.Overdue = append(buckets.Overdue, item)
		}
		if urgent {
			buckets.Urgent = append(buckets.Urgent, item)
		}
		if !overdue && !urgent {
			buckets.Pending = append(buckets.Pending, item)
		}
	}
	return buckets
}

// QueueUseCase recomputes approval queue buckets on demand; it stores no
// state of its own.
type QueueUseCase struct {
	approvals    repository.ApprovalRepository
	overdueAfter time.Duration
	now          func() time.Time
}

// NewQueueUseCase constructs QueueUseCase with the configured overdue threshold.
func NewQueueUseCase(approvals repository.ApprovalRepository, overdueAfter time.Duration) *QueueUseCase {
	return &QueueUseCase{approvals: approvals, overdueAfter: overdueAfter, now: time.Now}
}

// Buckets classifies the currently open approvals.
func (u *QueueUseCase) Buckets(ctx context.Context) (QueueBuckets, error) {
	items, err := u.approvals.ListOpenWithOrders(ctx)
	if err != nil {
		return QueueBuckets{}, err
	}
	return ClassifyQueue(u.now(), u.overdueAfter, items), nil
}
