package dbverify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dagknows/dkqa/internal/config"
)

func TestConnect_requiresPostgresConfig(t *testing.T) {
	cfg := config.Defaults()
	if _, err := Connect(context.Background(), cfg); err == nil {
		t.Fatal("Connect() with no postgres config expected error")
	}
}

func searchVerifier(url string) *Verifier {
	return &Verifier{
		elasticURL: url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestSearchIndexed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/_search" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": 1}},
		})
	}))
	defer srv.Close()

	indexed, err := searchVerifier(srv.URL).SearchIndexed(context.Background(), "restart nginx")
	if err != nil {
		t.Fatalf("SearchIndexed() error = %v", err)
	}
	if !indexed {
		t.Error("SearchIndexed() = false, want true")
	}
}

func TestSearchIndexed_noHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": 0}},
		})
	}))
	defer srv.Close()

	indexed, err := searchVerifier(srv.URL).SearchIndexed(context.Background(), "missing")
	if err != nil {
		t.Fatalf("SearchIndexed() error = %v", err)
	}
	if indexed {
		t.Error("SearchIndexed() = true, want false")
	}
}

func TestSearchIndexed_unconfigured(t *testing.T) {
	if _, err := searchVerifier("").SearchIndexed(context.Background(), "x"); err == nil {
		t.Fatal("SearchIndexed() with no endpoint expected error")
	}
}

func TestWaitForIndexed_eventuallySucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		value := 0
		if calls >= 3 {
			value = 1
		}
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": value}},
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := searchVerifier(srv.URL).WaitForIndexed(ctx, "restart nginx", 10*time.Millisecond); err != nil {
		t.Fatalf("WaitForIndexed() error = %v", err)
	}
}

func TestWaitForIndexed_deadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": 0}},
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if err := searchVerifier(srv.URL).WaitForIndexed(ctx, "never", 10*time.Millisecond); err == nil {
		t.Fatal("WaitForIndexed() expected deadline error")
	}
}
