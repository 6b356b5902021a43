package integration

import (
	"context"
	"testing"

	"github.com/dagknows/dkqa/model"
)

func TestSettings_RoundTrip(t *testing.T) {
	h := NewHarness(t)
	ctx := context.Background()

	updated, err := h.Router.SetFlags(ctx, model.FlagUpdate{
		"alert_handling_mode":        model.ModeAutonomous,
		"alert_dedup_window_seconds": 120,
		"ai_enabled":                 true,
		"beta_banner":                true,
	})
	if err != nil {
		t.Fatalf("SetFlags() error = %v", err)
	}
	if updated.AlertHandlingMode != model.ModeAutonomous {
		t.Errorf("AlertHandlingMode = %q, want autonomous", updated.AlertHandlingMode)
	}
	if updated.AlertDedupWindow != 120 {
		t.Errorf("AlertDedupWindow = %d, want 120", updated.AlertDedupWindow)
	}

	fetched, err := h.Router.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if !fetched.AIEnabled {
		t.Error("AIEnabled = false, want true")
	}
	if fetched.Flags["beta_banner"] != true {
		t.Errorf("Flags = %v, want beta_banner preserved", fetched.Flags)
	}
}

func TestSettings_PartialUpdateKeepsRest(t *testing.T) {
	h := NewHarness(t)
	ctx := context.Background()

	if _, err := h.Router.SetFlags(ctx, model.FlagUpdate{"alert_dedup_window_seconds": 60}); err != nil {
		t.Fatalf("SetFlags() error = %v", err)
	}
	if _, err := h.Router.SetFlags(ctx, model.FlagUpdate{"alert_handling_mode": model.ModeAI}); err != nil {
		t.Fatalf("SetFlags() error = %v", err)
	}

	settings, err := h.Router.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if settings.AlertDedupWindow != 60 {
		t.Errorf("AlertDedupWindow = %d, want the earlier update kept", settings.AlertDedupWindow)
	}
	if settings.AlertHandlingMode != model.ModeAI {
		t.Errorf("AlertHandlingMode = %q, want ai", settings.AlertHandlingMode)
	}
}

func TestSettings_InvalidModeRejected(t *testing.T) {
	h := NewHarness(t)

	_, err := h.Router.SetFlags(context.Background(), model.FlagUpdate{"alert_handling_mode": "chaos"})
	if err == nil {
		t.Fatal("SetFlags(invalid mode) expected error")
	}
}
