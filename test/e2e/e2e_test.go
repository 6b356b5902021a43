//go:build e2e

// Package e2e runs the suite against a real deployment named by the
// DAGKNOWS_* environment variables. Without DAGKNOWS_URL every test skips,
// so the package is safe to include in a default test run.
//
// Test organization:
// - e2e_test.go: TestMain, shared fixture and config
// - login_ui_test.go: browser login and logout
// - task_ui_test.go: task lifecycle through the UI
// - settings_ui_test.go: alert mode and flag toggles
// - agent_ui_test.go: AI chat against the shared DAGKNOWS task
// - api_smoke_test.go: API reachability and alert webhook smoke
package e2e

import (
	"fmt"
	"os"
	"testing"

	"github.com/playwright-community/playwright-go"

	"github.com/dagknows/dkqa/internal/config"
)

var cfg *config.Config

func TestMain(m *testing.M) {
	cfg = config.FromEnv()

	if cfg.BaseURL != "" {
		// Browser binaries are fetched once; repeated runs are a no-op.
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			fmt.Printf("installing playwright browsers: %v\n", err)
			os.Exit(1)
		}
	}

	os.Exit(m.Run())
}

// requireDeployment skips the test unless a deployment is configured.
func requireDeployment(t *testing.T) {
	t.Helper()
	if cfg.BaseURL == "" {
		t.Skip("DAGKNOWS_URL not set; skipping deployment test")
	}
}

// requireUICredentials skips the test unless browser credentials are set.
func requireUICredentials(t *testing.T) {
	t.Helper()
	requireDeployment(t)
	if !cfg.HasUICredentials() {
		t.Skip("DAGKNOWS_USERNAME and DAGKNOWS_PASSWORD not set; skipping UI test")
	}
}
