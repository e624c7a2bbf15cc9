package dto

import "time"

// CreateOrderRequest is the payload for registering a new order.
type CreateOrderRequest struct {
	Number                 string     `json:"number" binding:"required"`
	CustomerEmail          string     `json:"customer_email" binding:"required,email"`
	Urgency                string     `json:"urgency"`
	DesignApprovalRequired bool       `json:"design_approval_required"`
	ExpectedDelivery       *time.Time `json:"expected_delivery,omitempty"`
}

// TransitionRequest is the staff payload for moving an order forward.
type TransitionRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Actor          string `json:"actor,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Note           string `json:"note,omitempty"`
}

// OrderResponse mirrors an order for API consumers.
type OrderResponse struct {
	Number                 string     `json:"number"`
	CustomerEmail          string     `json:"customer_email"`
	Status                 string     `json:"status"`
	Urgency                string     `json:"urgency"`
	DesignApprovalRequired bool       `json:"design_approval_required"`
	TrackingNumber         *string    `json:"tracking_number,omitempty"`
	ExpectedDelivery       *time.Time `json:"expected_delivery,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// TransitionRecordResponse is one entry of the order history.
type TransitionRecordResponse struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	Note       string    `json:"note,omitempty"`
}
