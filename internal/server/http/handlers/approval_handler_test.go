package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/craftlane/fulfillment/internal/domain/errors"
	"github.com/craftlane/fulfillment/internal/domain/model"
	"github.com/craftlane/fulfillment/internal/server/http/dto"
	testhelpers "github.com/craftlane/fulfillment/internal/test"
	"github.com/craftlane/fulfillment/internal/usecase"
)

func newApprovalRouter(facade ApprovalFacade) *gin.Engine {
	router := gin.New()
	handler := NewApprovalHandler(facade)
	router.POST("/api/approvals/:id/decision", handler.Decide)
	router.POST("/api/approvals/:id/override", handler.Override)
	router.POST("/api/approvals/:id/reminder", handler.Remind)
	router.GET("/api/approvals/queue", handler.Queue)
	return router
}

func TestApprovalDecide(t *testing.T) {
	var gotToken string
	var gotDecision model.ApprovalDecision
	facade := testhelpers.FulfillmentFacadeStub{
		DecideApprovalFn: func(ctx context.Context, id int64, token string, decision model.ApprovalDecision, reason string) (*model.DesignApproval, error) {
			gotToken, gotDecision = token, decision
			return &model.DesignApproval{ID: id, Status: model.ApprovalStatusApproved, Token: "secret"}, nil
		},
	}
	router := newApprovalRouter(facade)

	body := `{"token":"secret","decision":"APPROVE"}`
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/approvals/3/decision", strings.NewReader(body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotToken != "secret" || gotDecision != model.DecisionApprove {
		t.Fatalf("unexpected call %q %s", gotToken, gotDecision)
	}
	if strings.Contains(resp.Body.String(), "secret") {
		t.Fatal("approval token must never be echoed back")
	}
}

func TestApprovalDecideInvalidID(t *testing.T) {
	router := newApprovalRouter(testhelpers.FulfillmentFacadeStub{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/approvals/abc/decision", strings.NewReader(`{"token":"x","decision":"APPROVE"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestApprovalDecideTokenMismatch(t *testing.T) {
	facade := testhelpers.FulfillmentFacadeStub{
		DecideApprovalFn: func(context.Context, int64, string, model.ApprovalDecision, string) (*model.DesignApproval, error) {
			return nil, domainErrors.ErrTokenMismatch
		},
	}
	router := newApprovalRouter(facade)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/approvals/3/decision", strings.NewReader(`{"token":"guess","decision":"APPROVE"}`)))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "token_mismatch") {
		t.Fatalf("expected token_mismatch code, got %s", resp.Body.String())
	}
}

func TestApprovalDecideAlreadyDecided(t *testing.T) {
	facade := testhelpers.FulfillmentFacadeStub{
		DecideApprovalFn: func(context.Context, int64, string, model.ApprovalDecision, string) (*model.DesignApproval, error) {
			return nil, domainErrors.ErrAlreadyDecided
		},
	}
	router := newApprovalRouter(facade)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/approvals/3/decision", strings.NewReader(`{"token":"secret","decision":"APPROVE"}`)))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "already_decided") {
		t.Fatalf("expected already_decided code, got %s", resp.Body.String())
	}
}

func TestApprovalOverride(t *testing.T) {
	var gotActor string
	facade := testhelpers.FulfillmentFacadeStub{
		OverrideApprovalFn: func(ctx context.Context, id int64, decision model.ApprovalDecision, actor, reason string) (*model.DesignApproval, error) {
			gotActor = actor
			return &model.DesignApproval{ID: id, Status: model.ApprovalStatusRejected, RejectedBy: actor, RejectionReason: reason}, nil
		},
	}
	router := newApprovalRouter(facade)

	body := `{"decision":"REJECT","actor":"ops@example.com","reason":"misprint"}`
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/approvals/3/override", strings.NewReader(body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if gotActor != "ops@example.com" {
		t.Fatalf("unexpected actor %q", gotActor)
	}
}

func TestApprovalOverrideRequiresActor(t *testing.T) {
	router := newApprovalRouter(testhelpers.FulfillmentFacadeStub{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/approvals/3/override", strings.NewReader(`{"decision":"APPROVE"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without actor, got %d", resp.Code)
	}
}

func TestApprovalRemind(t *testing.T) {
	facade := testhelpers.FulfillmentFacadeStub{
		SendReminderFn: func(ctx context.Context, id int64) (*model.DesignApproval, error) {
			return &model.DesignApproval{ID: id, Status: model.ApprovalStatusPending, RemindersSent: 2}, nil
		},
	}
	router := newApprovalRouter(facade)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/approvals/3/reminder", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got dto.ApprovalResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RemindersSent != 2 {
		t.Fatalf("unexpected reminders count %d", got.RemindersSent)
	}
}

func TestApprovalQueue(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	facade := testhelpers.FulfillmentFacadeStub{
		ApprovalQueueFn: func(context.Context) (usecase.QueueBuckets, error) {
			overdue := model.ApprovalWithOrder{
				Approval: model.DesignApproval{ID: 3, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-30 * time.Hour)},
				Order:    model.Order{Number: "ORD-1001", Urgency: model.UrgencyNormal},
			}
			urgent := model.ApprovalWithOrder{
				Approval: model.DesignApproval{ID: 4, Status: model.ApprovalStatusPending, RequestedAt: now.Add(-time.Hour)},
				Order:    model.Order{Number: "ORD-1002", Urgency: model.UrgencyRush},
			}
			return usecase.QueueBuckets{
				Overdue: []model.ApprovalWithOrder{overdue},
				Urgent:  []model.ApprovalWithOrder{urgent},
			}, nil
		},
	}
	router := newApprovalRouter(facade)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/approvals/queue", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got dto.QueueResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Overdue) != 1 || got.Overdue[0].OrderNumber != "ORD-1001" {
		t.Fatalf("unexpected overdue bucket %+v", got.Overdue)
	}
	if len(got.Urgent) != 1 || got.Urgent[0].Urgency != "RUSH" {
		t.Fatalf("unexpected urgent bucket %+v", got.Urgent)
	}
	if len(got.Pending) != 0 {
		t.Fatalf("unexpected pending bucket %+v", got.Pending)
	}
}
