package supabase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Query(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "service-key")
	body, err := client.Query(context.Background(), "daily_logs", map[string]interface{}{
		"user_id": "eq.u1",
		"order":   "date.asc",
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if string(body) != `[{"id":"1"}]` {
		t.Errorf("body = %s", body)
	}
	if gotPath != "/rest/v1/daily_logs" {
		t.Errorf("path = %q, want /rest/v1/daily_logs", gotPath)
	}
	if gotQuery != "order=date.asc&user_id=eq.u1" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAPIKey != "service-key" || gotAuth != "Bearer service-key" {
		t.Errorf("auth headers = %q / %q", gotAPIKey, gotAuth)
	}
}

func TestClient_Insert(t *testing.T) {
	var gotMethod, gotPrefer, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPrefer = r.Header.Get("Prefer")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		w.Write(b)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	if _, err := client.Insert(context.Background(), "reflection_sessions", map[string]string{"id": "s1"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPrefer != "return=representation" {
		t.Errorf("Prefer = %q", gotPrefer)
	}
	if gotBody != `{"id":"s1"}` {
		t.Errorf("body = %s", gotBody)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad filter"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.Query(context.Background(), "daily_logs", nil)

	var sbErr *Error
	if !errors.As(err, &sbErr) {
		t.Fatalf("Query() error = %v, want *Error", err)
	}
	if sbErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", sbErr.StatusCode)
	}
}

func TestClient_VerifyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"u1","email":"a@example.com"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")

	user, err := client.VerifyToken(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if user.ID != "u1" || user.Email != "a@example.com" {
		t.Errorf("user = %+v", user)
	}

	if _, err := client.VerifyToken(context.Background(), "wrong"); err == nil {
		t.Error("VerifyToken(wrong) error = nil, want error")
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "key")
	if _, err := client.Query(ctx, "daily_logs", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Query() error = %v, want context.Canceled", err)
	}
}
