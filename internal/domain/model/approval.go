package model

import "time"

// ApprovalStatus describes the lifecycle of a design approval gate.
type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "PENDING"
	ApprovalStatusApproved  ApprovalStatus = "APPROVED"
	ApprovalStatusRejected  ApprovalStatus = "REJECTED"
	ApprovalStatusExpired   ApprovalStatus = "EXPIRED"
	ApprovalStatusCancelled ApprovalStatus = "CANCELLED"
)

// ApprovalDecision is the verdict submitted by a customer or staff member.
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "APPROVE"
	DecisionReject  ApprovalDecision = "REJECT"
)

// DesignApproval gates an order at DESIGN_PENDING until the customer (or an
// admin override) decides, or until the validity window runs out. All
// non-PENDING statuses are terminal.
type DesignApproval struct {
	ID              int64
	OrderID         int64
	Status          ApprovalStatus
	Token           string
	RequestedAt     time.Time
	ExpiresAt       time.Time
	RespondedAt     *time.Time
	ApprovedBy      string
	RejectedBy      string
	RejectionReason string
	RemindersSent   int
}

// Open reports whether the approval still accepts a decision.
func (a *DesignApproval) Open() bool {
	return a.Status == ApprovalStatusPending
}

// ApprovalClosure carries the terminal state written when an approval closes.
type ApprovalClosure struct {
	Status          ApprovalStatus
	RespondedAt     *time.Time
	ApprovedBy      string
	RejectedBy      string
	RejectionReason string
}

// ApprovalWithOrder joins an approval with its order for staff-facing views.
type ApprovalWithOrder struct {
	Approval DesignApproval
	Order    Order
}
