package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/pkg/supabase"
	"github.com/goccy/go-json"
)

const logsTable = "daily_logs"

type logRepository struct {
	client *supabase.Client
}

// NewLogRepository creates a new daily log repository
func NewLogRepository(client *supabase.Client) LogRepository {
	return &logRepository{client: client}
}

func (r *logRepository) GetByID(ctx context.Context, id string) (*models.DailyLog, error) {
	query := map[string]interface{}{
		"id":     fmt.Sprintf("eq.%s", id),
		"select": "*",
	}

	logs, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get log: %w", err)
	}

	if len(logs) == 0 {
		return nil, fmt.Errorf("log %s: %w", id, ErrNotFound)
	}

	return &logs[0], nil
}

func (r *logRepository) GetByUserID(ctx context.Context, userID string) ([]models.DailyLog, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
		"order":   "date.asc",
	}

	logs, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}

	return logs, nil
}

func (r *logRepository) GetByUserIDAndDateRange(ctx context.Context, userID string, start, end time.Time) ([]models.DailyLog, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"and":     fmt.Sprintf("(date.gte.%s,date.lte.%s)", start.Format(models.DateLayout), end.Format(models.DateLayout)),
		"select":  "*",
		"order":   "date.asc",
	}

	logs, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs in range: %w", err)
	}

	return logs, nil
}

func (r *logRepository) query(ctx context.Context, query map[string]interface{}) ([]models.DailyLog, error) {
	body, err := r.client.Query(ctx, logsTable, query)
	if err != nil {
		return nil, err
	}

	var logs []models.DailyLog
	if err := json.Unmarshal(body, &logs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return logs, nil
}
