package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/server/http/dto"
)

// NotificationHandler manages the email log, manual retries, and the
// inbound provider webhook.
type NotificationHandler struct {
	facade NotificationFacade
	logger *slog.Logger
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(facade NotificationFacade, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{facade: facade, logger: logger}
}

// ListByOrder handles GET /api/orders/:number/notifications.
func (h *NotificationHandler) ListByOrder(c *gin.Context) {
	records, err := h.facade.OrderNotifications(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.NotificationResponse, 0, len(records))
	for _, n := range records {
		response = append(response, toNotificationResponse(n))
	}
	c.JSON(http.StatusOK, response)
}

// Retry handles POST /api/notifications/:id/retry, the staff retry button.
func (h *NotificationHandler) Retry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid notification id"})
		return
	}

	n, err := h.facade.RetryNotification(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toNotificationResponse(*n))
}

// Webhook handles POST /api/webhooks/mail. Out-of-order events are logged
// and dropped with an acknowledgement so the provider does not redeliver.
func (h *NotificationHandler) Webhook(c *gin.Context) {
	var req dto.MailEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	_, err := h.facade.RecordMailEvent(c.Request.Context(), req.ProviderMessageID, model.DeliveryEvent(req.Event), req.Timestamp)
	if err != nil {
		var seqErr *domainErrors.SequenceError
		if errors.As(err, &seqErr) {
			h.logger.Warn("dropping out-of-order mail event",
				slog.String("provider_message_id", req.ProviderMessageID),
				slog.String("event", req.Event),
				slog.String("status", string(seqErr.Status)))
			c.Status(http.StatusNoContent)
			return
		}
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toNotificationResponse(n model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:           n.ID,
		ApprovalID:   n.ApprovalID,
		Recipient:    n.Recipient,
		TemplateID:   n.TemplateID,
		Status:       string(n.Status),
		RetryCount:   n.RetryCount,
		SentAt:       n.SentAt,
		DeliveredAt:  n.DeliveredAt,
		OpenedAt:     n.OpenedAt,
		ClickedAt:    n.ClickedAt,
		ErrorMessage: n.ErrorMessage,
		CreatedAt:    n.CreatedAt,
	}
}
