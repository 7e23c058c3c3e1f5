package repository

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/JonnyWalker81/daylog/internal/models"
)

// ErrNotFound is returned when a single-record lookup matches nothing
var ErrNotFound = errors.New("record not found")

// LogRepository defines read access to daily logs
type LogRepository interface {
	GetByID(ctx context.Context, id string) (*models.DailyLog, error)
	// GetByUserID returns every log of a user ordered by date ascending
	GetByUserID(ctx context.Context, userID string) ([]models.DailyLog, error)
	// GetByUserIDAndDateRange returns logs dated within [start, end], inclusive
	GetByUserIDAndDateRange(ctx context.Context, userID string, start, end time.Time) ([]models.DailyLog, error)
}

// ReflectionRepository defines the interface for reflection session data access
type ReflectionRepository interface {
	Create(ctx context.Context, session *models.ReflectionSession) (*models.ReflectionSession, error)
	GetByID(ctx context.Context, id string) (*models.ReflectionSession, error)
	// GetRecentByUserID returns up to limit sessions, newest first
	GetRecentByUserID(ctx context.Context, userID string, limit int) ([]models.ReflectionSession, error)
}

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// Get retrieves an existing idempotency record, or nil if there is none
	Get(ctx context.Context, key, route, userID string) (*models.IdempotencyKey, error)

	// Store saves a new idempotency record
	Store(ctx context.Context, key, route, userID string, responseBody []byte, statusCode int) error
}
