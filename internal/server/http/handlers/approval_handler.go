package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/server/http/dto"
)

// ApprovalHandler manages design approval endpoints.
type ApprovalHandler struct {
	facade ApprovalFacade
}

// NewApprovalHandler constructs ApprovalHandler.
func NewApprovalHandler(facade ApprovalFacade) *ApprovalHandler {
	return &ApprovalHandler{facade: facade}
}

func approvalID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid approval id"})
		return 0, false
	}
	return id, true
}

// Decide handles POST /api/approvals/:id/decision, the customer action.
func (h *ApprovalHandler) Decide(c *gin.Context) {
	id, ok := approvalID(c)
	if !ok {
		return
	}

	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	approval, err := h.facade.DecideApproval(c.Request.Context(), id, req.Token, model.ApprovalDecision(req.Decision), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApprovalResponse(approval))
}

// Override handles POST /api/approvals/:id/override, the staff action.
func (h *ApprovalHandler) Override(c *gin.Context) {
	id, ok := approvalID(c)
	if !ok {
		return
	}

	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	approval, err := h.facade.OverrideApproval(c.Request.Context(), id, model.ApprovalDecision(req.Decision), req.Actor, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApprovalResponse(approval))
}

// Remind handles POST /api/approvals/:id/reminder, a manual staff trigger
// outside the scheduler cadence.
func (h *ApprovalHandler) Remind(c *gin.Context) {
	id, ok := approvalID(c)
	if !ok {
		return
	}

	approval, err := h.facade.SendApprovalReminder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toApprovalResponse(approval))
}

// Queue handles GET /api/approvals/queue.
func (h *ApprovalHandler) Queue(c *gin.Context) {
	buckets, err := h.facade.ApprovalQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.QueueResponse{
		Overdue: toQueueItems(buckets.Overdue),
		Urgent:  toQueueItems(buckets.Urgent),
		Pending: toQueueItems(buckets.Pending),
	})
}

func toQueueItems(items []model.ApprovalWithOrder) []dto.QueueItemResponse {
	out := make([]dto.QueueItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.QueueItemResponse{
			ApprovalID:    item.Approval.ID,
			OrderNumber:   item.Order.Number,
			Urgency:       string(item.Order.Urgency),
			RequestedAt:   item.Approval.RequestedAt,
			ExpiresAt:     item.Approval.ExpiresAt,
			RemindersSent: item.Approval.RemindersSent,
		})
	}
	return out
}

func toApprovalResponse(a *model.DesignApproval) dto.ApprovalResponse {
	return dto.ApprovalResponse{
		ID:              a.ID,
		OrderID:         a.OrderID,
		Status:          string(a.Status),
		RequestedAt:     a.RequestedAt,
		ExpiresAt:       a.ExpiresAt,
		RespondedAt:     a.RespondedAt,
		ApprovedBy:      a.ApprovedBy,
		RejectedBy:      a.RejectedBy,
		RejectionReason: a.RejectionReason,
		RemindersSent:   a.RemindersSent,
	}
}
