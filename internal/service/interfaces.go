package service

import (
	"context"
	"time"

	"github.com/JonnyWalker81/daylog/internal/models"
)

// InsightService defines the interface for numeric insights over a user's logs
type InsightService interface {
	GetCorrelation(ctx context.Context, userID string, q *models.CorrelationQuery) (*models.CorrelationResponse, error)
	ScanCorrelations(ctx context.Context, userID string, q *models.CorrelationScanQuery) ([]models.CorrelationResult, error)
	GetSimilarDays(ctx context.Context, userID string, q *models.SimilarDaysQuery) (*models.SimilarDaysResponse, error)
	GetSummaries(ctx context.Context, userID string, q *models.SummaryQuery) ([]models.MetricSummary, error)
	GetDashboard(ctx context.Context, userID string) (*models.DashboardResponse, error)
}

// ReflectionService defines the interface for reflection sessions
type ReflectionService interface {
	Catalog() models.ReflectionCatalog
	CreateReflection(ctx context.Context, userID string, req *models.CreateReflectionRequest) (*models.ReflectionSession, error)
	GetReflection(ctx context.Context, userID, sessionID string) (*models.ReflectionSession, error)
	ListReflections(ctx context.Context, userID string, limit int) ([]models.ReflectionSession, error)
}

// Recorder receives analysis run timings
type Recorder interface {
	ObserveAnalysis(kind string, start time.Time, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnalysis(string, time.Time, error) {}
