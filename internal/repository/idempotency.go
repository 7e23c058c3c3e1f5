package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/pkg/supabase"
	"github.com/goccy/go-json"
)

const (
	idempotencyTable = "idempotency_keys"

	// IdempotencyReplayWindow is how long a stored response can be replayed
	IdempotencyReplayWindow = 24 * time.Hour
)

type idempotencyRepository struct {
	client *supabase.Client
	now    func() time.Time
}

// storedResponse is the row written for a completed request
type storedResponse struct {
	Key          string          `json:"key"`
	Route        string          `json:"route"`
	UserID       string          `json:"user_id"`
	ResponseBody json.RawMessage `json:"response_body"`
	StatusCode   int             `json:"status_code"`
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(client *supabase.Client) IdempotencyRepository {
	return &idempotencyRepository{client: client, now: time.Now}
}

// Get returns the response stored for key on route within the replay window,
// or nil when there is none
func (r *idempotencyRepository) Get(ctx context.Context, key, route, userID string) (*models.IdempotencyKey, error) {
	since := r.now().Add(-IdempotencyReplayWindow).UTC().Format(time.RFC3339)

	body, err := r.client.Query(ctx, idempotencyTable, map[string]interface{}{
		"key":        "eq." + key,
		"route":      "eq." + route,
		"user_id":    "eq." + userID,
		"created_at": "gte." + since,
		"order":      "created_at.desc",
		"limit":      1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query idempotency key: %w", err)
	}

	var rows []models.IdempotencyKey
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal idempotency keys: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *idempotencyRepository) Store(ctx context.Context, key, route, userID string, responseBody []byte, statusCode int) error {
	row := storedResponse{
		Key:          key,
		Route:        route,
		UserID:       userID,
		ResponseBody: responseBody,
		StatusCode:   statusCode,
	}
	if _, err := r.client.Insert(ctx, idempotencyTable, row); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}
