package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dagknows/dkqa/internal/config"
	"github.com/dagknows/dkqa/internal/observability"
	"github.com/dagknows/dkqa/model"
)

func fastRetry(attempts int) config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts:       attempts,
		BackoffInitial:    time.Millisecond,
		BackoffMultiplier: 2,
		BackoffMax:        5 * time.Millisecond,
		IdempotentOnly:    true,
	}
}

func TestCall_decodes_response(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "t-1", "title": "restart nginx"})
	}))
	defer srv.Close()

	c := New("taskservice", srv.URL, WithToken("tok-123"))

	var task model.Task
	if err := c.call(context.Background(), "getTask", "GET", "/api/v1/tasks/t-1", nil, nil, &task); err != nil {
		t.Fatalf("call() error = %v", err)
	}
	if task.ID != "t-1" || task.Title != "restart nginx" {
		t.Errorf("task = %+v", task)
	}
}

func TestCall_non2xx_becomes_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"code":    "CONFLICT",
			"message": "task title already exists",
		})
	}))
	defer srv.Close()

	c := New("taskservice", srv.URL)
	err := c.call(context.Background(), "createTask", "POST", "/api/v1/tasks", nil, model.Task{Title: "dup"}, nil)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if !apiErr.IsConflict() {
		t.Errorf("IsConflict() = false for %+v", apiErr)
	}
	if apiErr.StatusCode != 409 {
		t.Errorf("StatusCode = %d, want 409", apiErr.StatusCode)
	}
}

func TestCall_non_envelope_error_body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := New("reqrouter", srv.URL)
	err := c.call(context.Background(), "getSettings", "GET", "/getSettings", nil, nil, nil)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.StatusCode != 502 {
		t.Errorf("StatusCode = %d, want 502", apiErr.StatusCode)
	}
	if apiErr.Message != "upstream exploded" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestRetry_idempotent_get_retried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"tasks": []any{}, "total_count": 0})
	}))
	defer srv.Close()

	c := New("taskservice", srv.URL, WithRetry(fastRetry(3)))

	var list model.TaskList
	if err := c.call(context.Background(), "listTasks", "GET", "/api/v1/tasks", nil, nil, &list); err != nil {
		t.Fatalf("call() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestRetry_post_not_retried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("taskservice", srv.URL, WithRetry(fastRetry(3)))

	err := c.call(context.Background(), "createTask", "POST", "/api/v1/tasks", nil, model.Task{Title: "x"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1 (POST must not retry)", got)
	}
}

func TestRetry_exhausted_returns_last_status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("taskservice", srv.URL, WithRetry(fastRetry(2)))

	err := c.call(context.Background(), "listTasks", "GET", "/api/v1/tasks", nil, nil, nil)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", apiErr.StatusCode)
	}
}

func TestProxyParam_appended(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("proxy"); got != "edge-1" {
			t.Errorf("proxy query param = %q, want edge-1", got)
		}
		if got := r.URL.Query().Get("q"); got != "nginx" {
			t.Errorf("q query param = %q, want nginx", got)
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := New("reqrouter", srv.URL, WithProxyParam("proxy", "edge-1"))
	q := map[string][]string{"q": {"nginx"}}
	if err := c.call(context.Background(), "searchTasks", "GET", "/api/tasks", q, nil, nil); err != nil {
		t.Fatalf("call() error = %v", err)
	}
}

func TestConnectionError_mapped_to_unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close() // nothing listens anymore

	c := New("taskservice", base, WithTimeout(time.Second))
	err := c.call(context.Background(), "listTasks", "GET", "/api/v1/tasks", nil, nil, nil)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrUnavailable {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrUnavailable)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := config.RetryConfig{
		BackoffInitial:    100 * time.Millisecond,
		BackoffMultiplier: 2,
		BackoffMax:        300 * time.Millisecond,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond}, // capped
		{10, 300 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := calculateBackoff(cfg, tc.attempt); got != tc.want {
			t.Errorf("calculateBackoff(attempt=%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestIsIdempotentMethod(t *testing.T) {
	for method, want := range map[string]bool{
		"GET": true, "PUT": true, "DELETE": true, "HEAD": true,
		"POST": false, "PATCH": false,
	} {
		if got := isIdempotentMethod(method); got != want {
			t.Errorf("isIdempotentMethod(%s) = %v, want %v", method, got, want)
		}
	}
}

func TestCall_debug_logs_redacted_body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	c := New("router", srv.URL, WithLogger(zap.New(core)))

	body := map[string]any{"email": "qa@acme.example.com", "password": "hunter2"}
	if err := c.call(context.Background(), "signIn", "POST", "/user/sign-in", nil, body, nil); err != nil {
		t.Fatalf("call() error = %v", err)
	}

	entries := logs.FilterMessage("api request").All()
	if len(entries) != 1 {
		t.Fatalf("debug entries = %d, want 1", len(entries))
	}
	logged, ok := entries[0].ContextMap()["body"].(map[string]any)
	if !ok {
		t.Fatalf("body field missing from debug entry: %v", entries[0].ContextMap())
	}
	if logged["password"] != "[REDACTED]" {
		t.Errorf("logged password = %v, want [REDACTED]", logged["password"])
	}
	if logged["email"] != "qa@acme.example.com" {
		t.Errorf("logged email = %v, want passthrough", logged["email"])
	}
}

func TestCall_context_logger_wins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	c := New("taskservice", srv.URL)

	ctx := observability.WithLogger(context.Background(), zap.New(core))
	if err := c.call(ctx, "getTask", "GET", "/api/v1/tasks/t-1", nil, nil, nil); err != nil {
		t.Fatalf("call() error = %v", err)
	}
	if got := logs.FilterMessage("api request").Len(); got != 1 {
		t.Errorf("debug entries via context logger = %d, want 1", got)
	}
}
