package repository

import (
	"context"
	"fmt"

	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/pkg/supabase"
	"github.com/goccy/go-json"
)

const reflectionsTable = "reflection_sessions"

type reflectionRepository struct {
	client *supabase.Client
}

// NewReflectionRepository creates a new reflection session repository
func NewReflectionRepository(client *supabase.Client) ReflectionRepository {
	return &reflectionRepository{client: client}
}

func (r *reflectionRepository) Create(ctx context.Context, session *models.ReflectionSession) (*models.ReflectionSession, error) {
	// results and patterns are stored as jsonb columns
	body, err := r.client.Insert(ctx, reflectionsTable, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create reflection session: %w", err)
	}

	var sessions []models.ReflectionSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(sessions) == 0 {
		return nil, fmt.Errorf("no reflection session returned")
	}

	return &sessions[0], nil
}

func (r *reflectionRepository) GetByID(ctx context.Context, id string) (*models.ReflectionSession, error) {
	query := map[string]interface{}{
		"id":     fmt.Sprintf("eq.%s", id),
		"select": "*",
	}

	body, err := r.client.Query(ctx, reflectionsTable, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection session: %w", err)
	}

	var sessions []models.ReflectionSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(sessions) == 0 {
		return nil, fmt.Errorf("reflection session %s: %w", id, ErrNotFound)
	}

	return &sessions[0], nil
}

func (r *reflectionRepository) GetRecentByUserID(ctx context.Context, userID string, limit int) ([]models.ReflectionSession, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
		"order":   "created_at.desc",
		"limit":   limit,
	}

	body, err := r.client.Query(ctx, reflectionsTable, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection sessions: %w", err)
	}

	var sessions []models.ReflectionSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return sessions, nil
}
