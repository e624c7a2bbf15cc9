package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/fulfillment/internal/server/http/handlers"
	testhelpers "github.com/craftlane/fulfillment/internal/test"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(testhelpers.FulfillmentFacadeStub{}, logger)

	checks := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/api/orders/ORD-1001", "", http.StatusOK},
		{http.MethodGet, "/api/orders/ORD-1001/history", "", http.StatusOK},
		{http.MethodGet, "/api/orders/ORD-1001/notifications", "", http.StatusOK},
		{http.MethodPost, "/api/orders", `{"number":"ORD-1001","customer_email":"buyer@example.com"}`, http.StatusCreated},
		{http.MethodPost, "/api/orders/ORD-1001/status", `{"status":"PROCESSING"}`, http.StatusOK},
		{http.MethodGet, "/api/approvals/queue", "", http.StatusOK},
		{http.MethodPost, "/api/approvals/3/decision", `{"token":"secret","decision":"APPROVE"}`, http.StatusOK},
		{http.MethodPost, "/api/approvals/3/override", `{"decision":"APPROVE","actor":"ops@example.com"}`, http.StatusOK},
		{http.MethodPost, "/api/approvals/3/reminder", "", http.StatusOK},
		{http.MethodPost, "/api/notifications/3/retry", "", http.StatusOK},
		{http.MethodPost, "/api/webhooks/mail", `{"provider_message_id":"prov-1","event":"DELIVERED","timestamp":"2026-03-01T10:05:00Z"}`, http.StatusNoContent},
	}

	for _, check := range checks {
		var req *http.Request
		if check.body != "" {
			req = httptest.NewRequest(check.method, check.path, strings.NewReader(check.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(check.method, check.path, nil)
		}
		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, req)
		if resp.Code != check.want {
			t.Fatalf("%s %s: expected %d, got %d (%s)", check.method, check.path, check.want, resp.Code, resp.Body.String())
		}
	}
}

var _ handlers.FulfillmentFacade = (*testhelpers.FulfillmentFacadeStub)(nil)
