package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/server/http/dto"
	"github.com/craftlane/fulfillment/internal/usecase"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), usecase.CreateOrderParams{
		Number:                 req.Number,
		CustomerEmail:          req.CustomerEmail,
		Urgency:                model.UrgencyLevel(req.Urgency),
		DesignApprovalRequired: req.DesignApprovalRequired,
		ExpectedDelivery:       req.ExpectedDelivery,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// Get handles GET /api/orders/:number.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.facade.Order(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// History handles GET /api/orders/:number/history.
func (h *OrderHandler) History(c *gin.Context) {
	records, err := h.facade.OrderHistory(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.TransitionRecordResponse, 0, len(records))
	for _, rec := range records {
		response = append(response, dto.TransitionRecordResponse{
			From:       string(rec.From),
			To:         string(rec.To),
			OccurredAt: rec.OccurredAt,
			Actor:      rec.Actor,
			Reason:     rec.Reason,
			Note:       rec.Note,
		})
	}
	c.JSON(http.StatusOK, response)
}

// Transition handles POST /api/orders/:number/status.
func (h *OrderHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	tctx := model.TransitionContext{
		Actor:          req.Actor,
		Reason:         req.Reason,
		Note:           req.Note,
		TrackingNumber: req.TrackingNumber,
	}
	order, err := h.facade.TransitionOrder(c.Request.Context(), c.Param("number"), model.OrderStatus(req.Status), tctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		Number:                 order.Number,
		CustomerEmail:          order.CustomerEmail,
		Status:                 string(order.Status),
		Urgency:                string(order.Urgency),
		DesignApprovalRequired: order.DesignApprovalRequired,
		TrackingNumber:         order.TrackingNumber,
		ExpectedDelivery:       order.ExpectedDelivery,
		CreatedAt:              order.CreatedAt,
		UpdatedAt:              order.UpdatedAt,
	}
}
