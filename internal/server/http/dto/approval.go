package dto

import "time"

// DecisionRequest is the customer approval action payload.
type DecisionRequest struct {
	Token    string `json:"token" binding:"required"`
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

// OverrideRequest is the staff override payload.
type OverrideRequest struct {
	Decision string `json:"decision" binding:"required"`
	Actor    string `json:"actor" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

// ApprovalResponse mirrors a design approval for API consumers. The token
// is never echoed back.
type ApprovalResponse struct {
	ID              int64      `json:"id"`
	OrderID         int64      `json:"order_id"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requested_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	RejectedBy      string     `json:"rejected_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	RemindersSent   int        `json:"reminders_sent"`
}

// QueueItemResponse is one staff queue entry.
type QueueItemResponse struct {
	ApprovalID    int64     `json:"approval_id"`
	OrderNumber   string    `json:"order_number"`
	Urgency       string    `json:"urgency"`
	RequestedAt   time.Time `json:"requested_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	RemindersSent int       `json:"reminders_sent"`
}

// QueueResponse groups the staff queue into SLA buckets.
type QueueResponse struct {
	Overdue []QueueItemResponse `json:"overdue"`
	Urgent  []QueueItemResponse `json:"urgent"`
	Pending []QueueItemResponse `json:"pending"`
}
