package model

import "time"

// NotificationStatus describes delivery lifecycle of an outbound message.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "PENDING"
	NotificationStatusSending   NotificationStatus = "SENDING"
	NotificationStatusSent      NotificationStatus = "SENT"
	NotificationStatusDelivered NotificationStatus = "DELIVERED"
	NotificationStatusOpened    NotificationStatus = "OPENED"
	NotificationStatusClicked   NotificationStatus = "CLICKED"
	NotificationStatusBounced   NotificationStatus = "BOUNCED"
	NotificationStatusFailed    NotificationStatus = "FAILED"
)

// DeliveryEvent is an inbound provider event for a sent notification.
type DeliveryEvent string

const (
	EventDelivered DeliveryEvent = "DELIVERED"
	EventOpened    DeliveryEvent = "OPENED"
	EventClicked   DeliveryEvent = "CLICKED"
	EventBounced   DeliveryEvent = "BOUNCED"
)

// Notification template identifiers understood by the mail provider.
const (
	TemplateApprovalRequest  = "approval-request"
	TemplateApprovalReminder = "approval-reminder"
	TemplateOrderShipped     = "order-shipped"
)

// Notification records the lifecycle of one outbound message tied to an
// order and optionally to a design approval. Records outlive cancelled
// approvals for audit.
type Notification struct {
	ID                int64
	OrderID           int64
	ApprovalID        *int64
	Recipient         string
	TemplateID        string
	Status            NotificationStatus
	ProviderMessageID string
	RetryCount        int
	SentAt            *time.Time
	DeliveredAt       *time.Time
	OpenedAt          *time.Time
	ClickedAt         *time.Time
	ErrorMessage      string
	CreatedAt         time.Time
}
