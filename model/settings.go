package model

// Settings is the tenant configuration round-tripped through /getSettings
// and /setFlags. Flags the suite does not know about survive in Extra.
type Settings struct {
	AlertHandlingMode string            `json:"alert_handling_mode,omitempty"`
	AlertDedupWindow  int               `json:"alert_dedup_window_seconds,omitempty"`
	AlertTaskMapping  map[string]string `json:"alert_task_mapping,omitempty"`
	AIEnabled         bool              `json:"ai_enabled,omitempty"`
	Flags             map[string]any    `json:"flags,omitempty"`
}

// FlagUpdate is the body of POST /setFlags: a partial update merged into the
// tenant's settings by the request router.
type FlagUpdate map[string]any
