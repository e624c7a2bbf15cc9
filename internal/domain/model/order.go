package model

import "time"

// OrderStatus describes the fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "PENDING"
	OrderStatusDesignPending    OrderStatus = "DESIGN_PENDING"
	OrderStatusDesignApproved   OrderStatus = "DESIGN_APPROVED"
	OrderStatusDesignRejected   OrderStatus = "DESIGN_REJECTED"
	OrderStatusPaymentPending   OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaymentConfirmed OrderStatus = "PAYMENT_CONFIRMED"
	OrderStatusProcessing       OrderStatus = "PROCESSING"
	OrderStatusProduction       OrderStatus = "PRODUCTION"
	OrderStatusShipped          OrderStatus = "SHIPPED"
	OrderStatusDelivered        OrderStatus = "DELIVERED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
	OrderStatusRefunded         OrderStatus = "REFUNDED"
)

// UrgencyLevel classifies how fast an order must move through production.
type UrgencyLevel string

const (
	UrgencyNormal    UrgencyLevel = "NORMAL"
	UrgencyExpedited UrgencyLevel = "EXPEDITED"
	UrgencyRush      UrgencyLevel = "RUSH"
	UrgencyEmergency UrgencyLevel = "EMERGENCY"
)

// SystemActor marks transitions performed by the service itself rather than staff.
const SystemActor = "system"

// CustomerActor marks decisions made through the customer approval link.
const CustomerActor = "customer"

// Order describes a fulfillment order. Status is mutated only through
// validated transitions; terminal orders are retained for audit.
type Order struct {
	ID                     int64
	Number                 string
	CustomerEmail          string
	Status                 OrderStatus
	Urgency                UrgencyLevel
	DesignApprovalRequired bool
	TrackingNumber         *string
	ExpectedDelivery       *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// StatusTransition is an append-only history record of one order transition.
type StatusTransition struct {
	ID         int64
	OrderID    int64
	From       OrderStatus
	To         OrderStatus
	OccurredAt time.Time
	Actor      string
	Reason     string
	Note       string
}

// TransitionContext carries caller-supplied side data for a transition.
type TransitionContext struct {
	Actor          string
	Reason         string
	Note           string
	TrackingNumber string
}
