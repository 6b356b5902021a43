// Package dbverify inspects the platform's backing stores directly. Suites
// that run against a real deployment use it to confirm API writes actually
// landed in PostgreSQL and Elasticsearch.
package dbverify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dagknows/dkqa/internal/config"
	"github.com/dagknows/dkqa/model"
)

// Verifier holds a connection pool to the task store and the search
// endpoint. Construct one with Connect; close it when done.
type Verifier struct {
	pool       *pgxpool.Pool
	elasticURL string
	httpClient *http.Client
}

// Connect opens the PostgreSQL pool described by the configuration and pings
// it. The Elasticsearch URL is optional; Elastic checks fail cleanly when it
// is unset.
func Connect(ctx context.Context, cfg *config.Config) (*Verifier, error) {
	dsn := cfg.Postgres.DSN()
	if dsn == "" {
		return nil, fmt.Errorf("dbverify: postgres connection not configured")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("dbverify: parsing postgres config: %w", err)
	}
	poolCfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("dbverify: connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("dbverify: pinging postgres: %w", err)
	}

	return &Verifier{
		pool:       pool,
		elasticURL: cfg.ElasticURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Close releases the connection pool.
func (v *Verifier) Close() {
	v.pool.Close()
}

// TaskRow is the task record as stored, not as served.
type TaskRow struct {
	ID          string
	Title       string
	WorkspaceID string
	OwnerID     string
	CreatedAt   time.Time
}

// TaskByID fetches a task row straight from the store.
func (v *Verifier) TaskByID(ctx context.Context, id string) (TaskRow, error) {
	var row TaskRow
	err := v.pool.QueryRow(ctx,
		`SELECT id, title, workspace_id, COALESCE(owner_id, ''), created_at
		 FROM tasks WHERE id = $1`, id).
		Scan(&row.ID, &row.Title, &row.WorkspaceID, &row.OwnerID, &row.CreatedAt)
	if err != nil {
		return TaskRow{}, fmt.Errorf("dbverify: task %s: %w", id, err)
	}
	return row, nil
}

// TaskExists reports whether a task row is present.
func (v *Verifier) TaskExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := v.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dbverify: task exists %s: %w", id, err)
	}
	return exists, nil
}

// CountTasksByPrefix counts task rows whose title carries the given prefix.
// Cleanup checks use it to confirm suite resources were swept.
func (v *Verifier) CountTasksByPrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := v.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE title LIKE $1 || '%'`, prefix).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("dbverify: counting tasks: %w", err)
	}
	return n, nil
}

// JobStatus fetches a job's stored status.
func (v *Verifier) JobStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := v.pool.QueryRow(ctx,
		`SELECT status FROM jobs WHERE id = $1`, id).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("dbverify: job %s: %w", id, err)
	}
	return status, nil
}

// SearchIndexed queries the task search index for a title and reports
// whether it is indexed. The index lags writes, so callers poll.
func (v *Verifier) SearchIndexed(ctx context.Context, title string) (bool, error) {
	if v.elasticURL == "" {
		return false, fmt.Errorf("dbverify: elastic endpoint not configured")
	}

	endpoint := v.elasticURL + "/tasks/_search?q=" + url.QueryEscape("title:\""+title+"\"")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, model.NewUnavailableError()
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("dbverify: search returned %d", resp.StatusCode)
	}

	var out struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("dbverify: decoding search response: %w", err)
	}
	return out.Hits.Total.Value > 0, nil
}

// WaitForIndexed polls the search index until the title appears or the
// context expires.
func (v *Verifier) WaitForIndexed(ctx context.Context, title string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		indexed, err := v.SearchIndexed(ctx, title)
		if err == nil && indexed {
			return nil
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("dbverify: waiting for index: %w", err)
			}
			return fmt.Errorf("dbverify: %q not indexed before deadline", title)
		case <-ticker.C:
		}
	}
}
