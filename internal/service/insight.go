package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/daylog/internal/analysis"
	"github.com/JonnyWalker81/daylog/internal/config"
	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/JonnyWalker81/daylog/internal/metrics"
	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/internal/repository"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"
)

type insightService struct {
	logRepo  repository.LogRepository
	cfg      config.AnalysisConfig
	recorder Recorder
	now      func() time.Time
}

// NewInsightService creates a new insight service. A nil recorder disables
// run metrics.
func NewInsightService(logRepo repository.LogRepository, cfg config.AnalysisConfig, recorder Recorder) InsightService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &insightService{
		logRepo:  logRepo,
		cfg:      cfg,
		recorder: recorder,
		now:      time.Now,
	}
}

// GetCorrelation computes Pearson's r for one metric pair. The response is
// marked undefined when fewer than two logs carry both metrics or either
// metric is constant.
func (s *insightService) GetCorrelation(ctx context.Context, userID string, q *models.CorrelationQuery) (resp *models.CorrelationResponse, err error) {
	defer s.observe(metrics.KindCorrelation, time.Now(), &err)

	logs, err := s.recentLogs(ctx, userID, q.WindowDays)
	if err != nil {
		return nil, err
	}

	resp = &models.CorrelationResponse{MetricX: q.MetricX, MetricY: q.MetricY}
	if result, ok := analysis.Correlate(logs, q.MetricX, q.MetricY, s.cfg.HighSignificanceSampleSize); ok {
		resp.Defined = true
		resp.Correlation = &result
	}
	return resp, nil
}

// ScanCorrelations returns the metric pairs that pass the scan thresholds,
// strongest first
func (s *insightService) ScanCorrelations(ctx context.Context, userID string, q *models.CorrelationScanQuery) (results []models.CorrelationResult, err error) {
	defer s.observe(metrics.KindCorrelationScan, time.Now(), &err)

	logs, err := s.recentLogs(ctx, userID, q.WindowDays)
	if err != nil {
		return nil, err
	}

	opts := s.cfg.ScanOptions()
	if q.MinSampleSize > 0 {
		opts.MinSampleSize = q.MinSampleSize
	}
	if q.Threshold != nil {
		opts.Threshold = *q.Threshold
	}

	return analysis.ScanCorrelations(logs, metricsOrDiscovered(q.Metrics, logs), opts), nil
}

// GetSimilarDays finds the logged days closest to a target log. The target
// defaults to the user's most recent log in the history window.
func (s *insightService) GetSimilarDays(ctx context.Context, userID string, q *models.SimilarDaysQuery) (resp *models.SimilarDaysResponse, err error) {
	defer s.observe(metrics.KindSimilarDays, time.Now(), &err)

	var (
		history []models.DailyLog
		target  *models.DailyLog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs, err := s.recentLogs(gctx, userID, s.cfg.HistoryDays)
		history = logs
		return err
	})
	if q.LogID != "" {
		if err := ValidateID(q.LogID); err != nil {
			return nil, err
		}
		g.Go(func() error {
			log, err := s.logRepo.GetByID(gctx, q.LogID)
			if err != nil {
				return err
			}
			if log.UserID != userID {
				return fmt.Errorf("log %s: %w", q.LogID, ErrNotFound)
			}
			target = log
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if target == nil {
		latest, ok := latestLog(history)
		if !ok {
			return &models.SimilarDaysResponse{Metrics: []string{}, SimilarDays: []models.SimilarDay{}}, nil
		}
		target = &latest
	}

	refs := metricsOrDiscovered(q.Metrics, history)
	k := q.K
	if k <= 0 {
		k = s.cfg.SimilarDaysK
	}

	return &models.SimilarDaysResponse{
		TargetLogID: target.ID,
		Metrics:     refs,
		SimilarDays: analysis.FindSimilarDays(*target, history, refs, k),
	}, nil
}

// GetSummaries returns descriptive statistics and trends for each metric
func (s *insightService) GetSummaries(ctx context.Context, userID string, q *models.SummaryQuery) (summaries []models.MetricSummary, err error) {
	defer s.observe(metrics.KindSummary, time.Now(), &err)

	logs, err := s.recentLogs(ctx, userID, q.WindowDays)
	if err != nil {
		return nil, err
	}

	return analysis.Summarize(logs, metricsOrDiscovered(q.Metrics, logs)), nil
}

// GetDashboard computes the correlation scan, the days most similar to the
// latest log and per-metric summaries over the history window. The three
// analyses read the same immutable log slice and run concurrently.
func (s *insightService) GetDashboard(ctx context.Context, userID string) (resp *models.DashboardResponse, err error) {
	defer s.observe(metrics.KindDashboard, time.Now(), &err)

	logs, err := s.recentLogs(ctx, userID, s.cfg.HistoryDays)
	if err != nil {
		return nil, err
	}

	refs := analysis.DiscoverMetrics(logs)
	opts := s.cfg.ScanOptions()
	target, hasTarget := latestLog(logs)

	var (
		correlations []models.CorrelationResult
		similar      = []models.SimilarDay{}
		summaries    []models.MetricSummary
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		correlations = analysis.ScanCorrelations(logs, refs, opts)
	})
	if hasTarget {
		wg.Go(func() {
			similar = analysis.FindSimilarDays(target, logs, refs, s.cfg.SimilarDaysK)
		})
	}
	wg.Go(func() {
		summaries = analysis.Summarize(logs, refs)
	})
	wg.Wait()

	resp = &models.DashboardResponse{
		Correlations:   correlations,
		SimilarDays:    similar,
		Summaries:      summaries,
		ComputedAt:     s.now().UTC(),
		DataSufficient: len(logs) >= opts.MinSampleSize,
		TotalDays:      len(logs),
	}
	if hasTarget {
		resp.TargetLogID = target.ID
	}
	if !resp.DataSufficient {
		resp.MinDaysNeeded = opts.MinSampleSize
	}

	logger.FromContext(ctx).Debug("dashboard computed",
		logger.String("user_id", userID),
		logger.Int("logs", len(logs)),
		logger.Int("metrics", len(refs)),
		logger.Int("correlations", len(correlations)),
	)

	return resp, nil
}

// recentLogs loads the user's logs for the last days calendar days, ending
// today in UTC. days <= 0 selects the configured history window, and a history
// window of 0 loads every log the user has.
func (s *insightService) recentLogs(ctx context.Context, userID string, days int) ([]models.DailyLog, error) {
	if days <= 0 {
		days = s.cfg.HistoryDays
	}
	if days <= 0 {
		logs, err := s.logRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load logs: %w", err)
		}
		return logs, nil
	}
	start, end := dayRange(s.now(), days)

	logs, err := s.logRepo.GetByUserIDAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	return logs, nil
}

func (s *insightService) observe(kind string, start time.Time, err *error) {
	s.recorder.ObserveAnalysis(kind, start, *err)
}

// dayRange returns the first and last UTC calendar day of a span of days
// ending on now's day
func dayRange(now time.Time, days int) (start, end time.Time) {
	y, m, d := now.UTC().Date()
	end = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, 0, -(days - 1))
	return start, end
}

// latestLog returns the log with the latest calendar day, the last one on ties
func latestLog(logs []models.DailyLog) (models.DailyLog, bool) {
	if len(logs) == 0 {
		return models.DailyLog{}, false
	}
	latest := logs[0]
	for _, log := range logs[1:] {
		if !log.Day().Before(latest.Day()) {
			latest = log
		}
	}
	return latest, true
}

func metricsOrDiscovered(refs []string, logs []models.DailyLog) []string {
	if len(refs) > 0 {
		return refs
	}
	return analysis.DiscoverMetrics(logs)
}
