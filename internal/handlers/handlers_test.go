package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func init() {
	gin.SetMode(gin.TestMode)
	apierror.RegisterFieldNames()
}

// fakeInsightService answers with canned values and remembers the last query
type fakeInsightService struct {
	err error

	correlationQuery *models.CorrelationQuery
	scanQuery        *models.CorrelationScanQuery
	similarQuery     *models.SimilarDaysQuery
	summaryQuery     *models.SummaryQuery
}

func (f *fakeInsightService) GetCorrelation(_ context.Context, _ string, q *models.CorrelationQuery) (*models.CorrelationResponse, error) {
	f.correlationQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return &models.CorrelationResponse{MetricX: q.MetricX, MetricY: q.MetricY}, nil
}

func (f *fakeInsightService) ScanCorrelations(_ context.Context, _ string, q *models.CorrelationScanQuery) ([]models.CorrelationResult, error) {
	f.scanQuery = q
	return nil, f.err
}

func (f *fakeInsightService) GetSimilarDays(_ context.Context, _ string, q *models.SimilarDaysQuery) (*models.SimilarDaysResponse, error) {
	f.similarQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return &models.SimilarDaysResponse{TargetLogID: q.LogID}, nil
}

func (f *fakeInsightService) GetSummaries(_ context.Context, _ string, q *models.SummaryQuery) ([]models.MetricSummary, error) {
	f.summaryQuery = q
	return nil, f.err
}

func (f *fakeInsightService) GetDashboard(_ context.Context, _ string) (*models.DashboardResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.DashboardResponse{TotalDays: 3}, nil
}

// fakeReflectionService records the request it was given
type fakeReflectionService struct {
	err       error
	created   *models.CreateReflectionRequest
	listLimit int
}

func (f *fakeReflectionService) Catalog() models.ReflectionCatalog {
	return models.ReflectionCatalog{Reasons: []string{"sleep"}}
}

func (f *fakeReflectionService) CreateReflection(_ context.Context, userID string, req *models.CreateReflectionRequest) (*models.ReflectionSession, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReflectionSession{ID: "session-1", UserID: userID, MoodFocus: req.MoodFocus}, nil
}

func (f *fakeReflectionService) GetReflection(_ context.Context, userID, sessionID string) (*models.ReflectionSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReflectionSession{ID: sessionID, UserID: userID}, nil
}

func (f *fakeReflectionService) ListReflections(_ context.Context, _ string, limit int) ([]models.ReflectionSession, error) {
	f.listLimit = limit
	return []models.ReflectionSession{}, f.err
}

// newRouter registers the handlers behind a stand-in for the auth middleware.
// An empty userID leaves the request unauthenticated.
func newRouter(userID string, insights *fakeInsightService, reflections *fakeReflectionService) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})

	ih := NewInsightsHandler(insights)
	r.GET("/insights", ih.GetDashboard)
	r.GET("/insights/correlation", ih.GetCorrelation)
	r.GET("/insights/correlations", ih.ScanCorrelations)
	r.GET("/insights/similar-days", ih.GetSimilarDays)
	r.GET("/insights/summary", ih.GetSummary)

	rh := NewReflectionHandler(reflections)
	r.GET("/reflections/catalog", rh.Catalog)
	r.POST("/reflections", rh.CreateReflection)
	r.GET("/reflections", rh.ListReflections)
	r.GET("/reflections/:id", rh.GetReflection)

	return r
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) apierror.ProblemDetails {
	t.Helper()
	var problem apierror.ProblemDetails
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatalf("invalid problem body %q: %v", w.Body.String(), err)
	}
	return problem
}
