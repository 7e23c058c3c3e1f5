package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/internal/service"
)

func TestInsightsHandler_Unauthenticated(t *testing.T) {
	r := newRouter("", &fakeInsightService{}, &fakeReflectionService{})

	for _, target := range []string{"/insights", "/insights/correlation?x=a&y=b", "/insights/summary"} {
		w := do(r, http.MethodGet, target, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", target, w.Code)
		}
	}
}

func TestInsightsHandler_GetCorrelation(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantField  string
	}{
		{name: "valid pair", target: "/insights/correlation?x=sleep_hours&y=mood&window_days=30", wantStatus: http.StatusOK},
		{name: "missing y", target: "/insights/correlation?x=sleep_hours", wantStatus: http.StatusBadRequest, wantField: "y"},
		{name: "window too long", target: "/insights/correlation?x=a&y=b&window_days=400", wantStatus: http.StatusBadRequest, wantField: "window_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInsightService{}
			w := do(newRouter("user-1", svc, &fakeReflectionService{}), http.MethodGet, tt.target, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantField == "" {
				if svc.correlationQuery == nil || svc.correlationQuery.MetricX != "sleep_hours" || svc.correlationQuery.WindowDays != 30 {
					t.Errorf("query = %+v", svc.correlationQuery)
				}
				return
			}

			problem := decodeProblem(t, w)
			if problem.Type != apierror.TypeValidation {
				t.Errorf("problem type = %q", problem.Type)
			}
			if len(problem.Errors) != 1 || problem.Errors[0].Field != tt.wantField {
				t.Errorf("field errors = %+v, want %s", problem.Errors, tt.wantField)
			}
			if svc.correlationQuery != nil {
				t.Error("service called with an invalid query")
			}
		})
	}
}

func TestInsightsHandler_ScanCorrelations_BindsMetricList(t *testing.T) {
	svc := &fakeInsightService{}
	r := newRouter("user-1", svc, &fakeReflectionService{})

	w := do(r, http.MethodGet, "/insights/correlations?metrics=sleep_hours,mood,energy&threshold=0.4&min_sample_size=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if want := []string{"sleep_hours", "mood", "energy"}; !reflect.DeepEqual(svc.scanQuery.Metrics, want) {
		t.Errorf("metrics = %v, want %v", svc.scanQuery.Metrics, want)
	}
	if svc.scanQuery.Threshold == nil || *svc.scanQuery.Threshold != 0.4 || svc.scanQuery.MinSampleSize != 10 {
		t.Errorf("query = %+v", svc.scanQuery)
	}
	if w.Body.String() != `{"correlations":[]}` {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestInsightsHandler_ScanCorrelations_Threshold(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		want       *float64
	}{
		{name: "absent", query: "", wantStatus: http.StatusOK},
		{name: "zero", query: "?threshold=0", wantStatus: http.StatusOK, want: models.Float(0)},
		{name: "above one", query: "?threshold=1.5", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInsightService{}
			w := do(newRouter("user-1", svc, &fakeReflectionService{}), http.MethodGet, "/insights/correlations"+tt.query, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				problem := decodeProblem(t, w)
				if len(problem.Errors) != 1 || problem.Errors[0].Field != "threshold" {
					t.Errorf("field errors = %+v, want threshold", problem.Errors)
				}
				return
			}
			got := svc.scanQuery.Threshold
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("Threshold = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInsightsHandler_GetSimilarDays_Errors(t *testing.T) {
	const logID = "0190a4e2-0000-7000-8000-000000000001"

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "not found", err: fmt.Errorf("log %s: %w", logID, service.ErrNotFound), wantStatus: http.StatusNotFound, wantType: apierror.TypeNotFound},
		{name: "future id", err: fmt.Errorf("%w: %w", service.ErrInvalidID, service.ErrFutureTimestamp), wantStatus: http.StatusBadRequest, wantType: apierror.TypeInvalidID},
		{name: "storage failure", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantType: apierror.TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInsightService{err: tt.err}
			w := do(newRouter("user-1", svc, &fakeReflectionService{}), http.MethodGet, "/insights/similar-days?log_id="+logID+"&k=3", "")

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if problem := decodeProblem(t, w); problem.Type != tt.wantType {
				t.Errorf("problem type = %q, want %q", problem.Type, tt.wantType)
			}
		})
	}
}

func TestInsightsHandler_GetSimilarDays_RejectsMalformedID(t *testing.T) {
	svc := &fakeInsightService{}
	w := do(newRouter("user-1", svc, &fakeReflectionService{}), http.MethodGet, "/insights/similar-days?log_id=yesterday", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	problem := decodeProblem(t, w)
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "log_id" || problem.Errors[0].Code != "uuid" {
		t.Errorf("field errors = %+v", problem.Errors)
	}
	if svc.similarQuery != nil {
		t.Error("service called with a malformed id")
	}
}

func TestInsightsHandler_GetDashboardAndSummary(t *testing.T) {
	svc := &fakeInsightService{}
	r := newRouter("user-1", svc, &fakeReflectionService{})

	if w := do(r, http.MethodGet, "/insights", ""); w.Code != http.StatusOK {
		t.Errorf("dashboard status = %d", w.Code)
	}

	w := do(r, http.MethodGet, "/insights/summary?metrics=mood", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"summaries":[]}` {
		t.Errorf("summary = %d %s", w.Code, w.Body.String())
	}
	if len(svc.summaryQuery.Metrics) != 1 || svc.summaryQuery.Metrics[0] != "mood" {
		t.Errorf("summary query = %+v", svc.summaryQuery)
	}
}
