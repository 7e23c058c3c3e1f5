// Package supabase is a minimal client for the two Supabase surfaces daylog
// uses: PostgREST tables and the auth user endpoint.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
)

// Client talks to one Supabase project
type Client struct {
	URL        string
	ServiceKey string
	HTTPClient *http.Client
}

// NewClient creates a client authenticating with the project's service key
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		URL:        baseURL,
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Error is returned when Supabase answers with a 4xx/5xx status
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase error (status %d): %s", e.StatusCode, e.Body)
}

// User is the subset of the auth user daylog needs
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Query runs a PostgREST select on table. Values are filter expressions such
// as "user_id": "eq.<id>" and are sent as-is.
func (c *Client) Query(ctx context.Context, table string, query map[string]interface{}) ([]byte, error) {
	params := url.Values{}
	for key, value := range query {
		params.Add(key, fmt.Sprint(value))
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/"+table, c.ServiceKey, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = params.Encode()

	return c.do(req)
}

// Insert writes one row (or a slice of rows) to table and returns the stored rows
func (c *Client) Insert(ctx context.Context, table string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s row: %w", table, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/rest/v1/"+table, c.ServiceKey, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	return c.do(req)
}

// VerifyToken resolves an access token to its user
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", token, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// newRequest builds a request carrying the project key and bearer. The bearer
// is the service key for table access and the user's token for auth calls.
func (c *Client) newRequest(ctx context.Context, method, path, bearer string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
