package dto

import "time"

// MailEventRequest is the inbound provider webhook payload.
type MailEventRequest struct {
	ProviderMessageID string    `json:"provider_message_id" binding:"required"`
	Event             string    `json:"event" binding:"required"`
	Timestamp         time.Time `json:"timestamp" binding:"required"`
}

// NotificationResponse mirrors one email-log entry.
type NotificationResponse struct {
	ID           int64      `json:"id"`
	ApprovalID   *int64     `json:"approval_id,omitempty"`
	Recipient    string     `json:"recipient"`
	TemplateID   string     `json:"template_id"`
	Status       string     `json:"status"`
	RetryCount   int        `json:"retry_count"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
	ClickedAt    *time.Time `json:"clicked_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
