package handlers

import (
	"net/http"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/internal/service"
	"github.com/gin-gonic/gin"
)

// InsightsHandler handles insights-related HTTP requests
type InsightsHandler struct {
	insightService service.InsightService
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(insightService service.InsightService) *InsightsHandler {
	return &InsightsHandler{
		insightService: insightService,
	}
}

// GetDashboard returns correlations, similar days and summaries in one response
// GET /api/v1/insights
func (h *InsightsHandler) GetDashboard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	dashboard, err := h.insightService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "Insights", "", "")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetCorrelation handles GET /api/v1/insights/correlation?x=&y=
func (h *InsightsHandler) GetCorrelation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var q models.CorrelationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierror.WriteProblem(c, apierror.FromBindingError(apierror.GetRequestID(c), err))
		return
	}

	resp, err := h.insightService.GetCorrelation(c.Request.Context(), userID, &q)
	if err != nil {
		writeServiceError(c, err, "Correlation", "", "")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ScanCorrelations handles GET /api/v1/insights/correlations
func (h *InsightsHandler) ScanCorrelations(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var q models.CorrelationScanQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierror.WriteProblem(c, apierror.FromBindingError(apierror.GetRequestID(c), err))
		return
	}

	results, err := h.insightService.ScanCorrelations(c.Request.Context(), userID, &q)
	if err != nil {
		writeServiceError(c, err, "Correlations", "", "")
		return
	}
	if results == nil {
		results = []models.CorrelationResult{}
	}

	c.JSON(http.StatusOK, gin.H{"correlations": results})
}

// GetSimilarDays handles GET /api/v1/insights/similar-days
func (h *InsightsHandler) GetSimilarDays(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var q models.SimilarDaysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierror.WriteProblem(c, apierror.FromBindingError(apierror.GetRequestID(c), err))
		return
	}

	resp, err := h.insightService.GetSimilarDays(c.Request.Context(), userID, &q)
	if err != nil {
		writeServiceError(c, err, "Daily log", "log_id", q.LogID)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSummary handles GET /api/v1/insights/summary
func (h *InsightsHandler) GetSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var q models.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierror.WriteProblem(c, apierror.FromBindingError(apierror.GetRequestID(c), err))
		return
	}

	summaries, err := h.insightService.GetSummaries(c.Request.Context(), userID, &q)
	if err != nil {
		writeServiceError(c, err, "Summary", "", "")
		return
	}
	if summaries == nil {
		summaries = []models.MetricSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}
