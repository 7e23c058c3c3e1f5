package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/daylog/internal/config"
	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/JonnyWalker81/daylog/internal/metrics"
	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/internal/reflection"
	"github.com/JonnyWalker81/daylog/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultListLimit is the page size of ListReflections
	DefaultListLimit = 20
	// MaxListLimit caps the page size of ListReflections
	MaxListLimit = 100
)

type reflectionService struct {
	logRepo        repository.LogRepository
	reflectionRepo repository.ReflectionRepository
	detector       *reflection.Detector
	cfg            config.AnalysisConfig
	recorder       Recorder
	now            func() time.Time
}

// NewReflectionService creates a new reflection service. The detector's clock
// should match now so that the fetched logs cover the window it selects.
func NewReflectionService(
	logRepo repository.LogRepository,
	reflectionRepo repository.ReflectionRepository,
	detector *reflection.Detector,
	cfg config.AnalysisConfig,
	recorder Recorder,
	now func() time.Time,
) ReflectionService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	return &reflectionService{
		logRepo:        logRepo,
		reflectionRepo: reflectionRepo,
		detector:       detector,
		cfg:            cfg,
		recorder:       recorder,
		now:            now,
	}
}

func (s *reflectionService) Catalog() models.ReflectionCatalog {
	return s.detector.Catalog().Describe()
}

// CreateReflection loads the window's logs and the user's recent sessions,
// runs the detector and stores the resulting session
func (s *reflectionService) CreateReflection(ctx context.Context, userID string, req *models.CreateReflectionRequest) (session *models.ReflectionSession, err error) {
	defer func(start time.Time) { s.recorder.ObserveAnalysis(metrics.KindReflection, start, err) }(time.Now())

	// Reject unknown reasons before touching storage
	if _, err := s.detector.Catalog().Select(req.Reasons); err != nil {
		return nil, err
	}

	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = s.cfg.ReflectionWindowDays
	}
	if windowDays <= 0 {
		windowDays = reflection.DefaultWindowDays
	}
	maxPrevious := s.cfg.MaxPreviousSessions
	if maxPrevious <= 0 {
		maxPrevious = reflection.DefaultMaxPreviousSessions
	}

	start, end := dayRange(s.now(), windowDays)

	var (
		logs    []models.DailyLog
		history []models.ReflectionSession
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		logs, err = s.logRepo.GetByUserIDAndDateRange(gctx, userID, start, end)
		if err != nil {
			return fmt.Errorf("failed to load logs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = s.reflectionRepo.GetRecentByUserID(gctx, userID, maxPrevious)
		if err != nil {
			return fmt.Errorf("failed to load previous sessions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	session, err = s.detector.Analyze(reflection.Input{
		UserID:     userID,
		MoodFocus:  req.MoodFocus,
		Reasons:    req.Reasons,
		WindowDays: windowDays,
		Logs:       logs,
		History:    history,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.reflectionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("reflection created",
		logger.String("session_id", created.ID),
		logger.String("user_id", userID),
		logger.Int("log_count", created.LogCount),
		logger.Int("patterns", len(created.Patterns)),
	)

	return created, nil
}

// GetReflection returns one of the user's sessions. Sessions owned by other
// users are reported as not found.
func (s *reflectionService) GetReflection(ctx context.Context, userID, sessionID string) (*models.ReflectionSession, error) {
	if err := ValidateID(sessionID); err != nil {
		return nil, err
	}

	session, err := s.reflectionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.UserID != userID {
		return nil, fmt.Errorf("reflection session %s: %w", sessionID, ErrNotFound)
	}

	return session, nil
}

// ListReflections returns the user's most recent sessions, newest first
func (s *reflectionService) ListReflections(ctx context.Context, userID string, limit int) ([]models.ReflectionSession, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	sessions, err := s.reflectionRepo.GetRecentByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []models.ReflectionSession{}
	}
	return sessions, nil
}
