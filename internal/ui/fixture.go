// Package ui drives the platform's web frontend through Playwright page
// objects. The fixture owns the browser; each page object wraps one screen
// and exposes the interactions the suites need.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/dagknows/dkqa/internal/config"
)

// Fixture manages the Playwright runtime and a Chromium browser shared by
// one test. Set HEADLESS=false to watch the browser while debugging.
type Fixture struct {
	PW      *playwright.Playwright
	Browser playwright.Browser

	baseURL        string
	defaultTimeout time.Duration
	screenshotDir  string
}

// NewFixture starts Playwright and launches Chromium according to the
// browser configuration.
func NewFixture(t *testing.T, baseURL string, cfg config.BrowserConfig) *Fixture {
	t.Helper()

	pw, err := playwright.Run()
	require.NoError(t, err, "failed to start playwright")

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(float64(cfg.SlowMo.Milliseconds())),
	})
	require.NoError(t, err, "failed to launch browser")

	f := &Fixture{
		PW:             pw,
		Browser:        browser,
		baseURL:        baseURL,
		defaultTimeout: cfg.DefaultTimeout,
		screenshotDir:  cfg.ScreenshotDir,
	}
	t.Cleanup(f.Close)
	return f
}

// NewPage opens a fresh browser context and page. Each context has isolated
// cookies, so parallel tests never share a session.
func (f *Fixture) NewPage(t *testing.T) playwright.Page {
	t.Helper()

	ctx, err := f.Browser.NewContext()
	require.NoError(t, err, "failed to create browser context")

	page, err := ctx.NewPage()
	require.NoError(t, err, "failed to open page")
	if f.defaultTimeout > 0 {
		page.SetDefaultTimeout(float64(f.defaultTimeout.Milliseconds()))
	}
	return page
}

// URL joins a path onto the frontend base URL.
func (f *Fixture) URL(path string) string {
	return f.baseURL + path
}

// Screenshot saves a full-page capture under the configured directory. It is
// a no-op when no directory is configured.
func (f *Fixture) Screenshot(t *testing.T, page playwright.Page, name string) {
	t.Helper()
	if f.screenshotDir == "" {
		return
	}
	if err := os.MkdirAll(f.screenshotDir, 0o755); err != nil {
		t.Logf("screenshot dir: %v", err)
		return
	}
	path := filepath.Join(f.screenshotDir, fmt.Sprintf("%s_%s.png", t.Name(), name))
	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		t.Logf("screenshot %s: %v", name, err)
	}
}

// Close releases the browser and the Playwright runtime.
func (f *Fixture) Close() {
	_ = f.Browser.Close()
	_ = f.PW.Stop()
}
