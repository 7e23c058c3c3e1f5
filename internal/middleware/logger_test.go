package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/gin-gonic/gin"
)

type recordedRequest struct {
	route  string
	status int
}

type requestRecorder struct {
	requests []recordedRequest
}

func (r *requestRecorder) ObserveRequest(route, _ string, status int, _ time.Duration) {
	r.requests = append(r.requests, recordedRequest{route: route, status: status})
}

func TestLogger_RequestID(t *testing.T) {
	rec := &requestRecorder{}
	var ctxRequestID, ginRequestID string

	r := gin.New()
	r.Use(Logger(logger.NewNop(), rec))
	r.GET("/insights/:kind", func(c *gin.Context) {
		ctxRequestID = logger.RequestIDFromContext(c.Request.Context())
		ginRequestID = c.GetString("request_id")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/insights/summary", nil)
	req.Header.Set(RequestIDHeader, "client-req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if ctxRequestID != "client-req-1" || ginRequestID != "client-req-1" {
		t.Errorf("request ids = %q / %q, want client-req-1", ctxRequestID, ginRequestID)
	}
	if got := w.Header().Get(RequestIDHeader); got != "client-req-1" {
		t.Errorf("response %s = %q", RequestIDHeader, got)
	}
	if len(rec.requests) != 1 || rec.requests[0].route != "/insights/:kind" || rec.requests[0].status != http.StatusOK {
		t.Errorf("observed = %+v", rec.requests)
	}
}

func TestLogger_GeneratesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger(logger.NewNop(), nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("no request id generated")
	}
}
