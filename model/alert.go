package model

// Incident response modes. The request router selects how an incoming alert
// is mapped to a task: by a configured name mapping, by AI-scored relevance,
// or AI-scored with immediate autonomous execution.
const (
	ModeDeterministic = "deterministic"
	ModeAI            = "ai"
	ModeAutonomous    = "autonomous"
)

// GrafanaAlert is a Grafana-style webhook body accepted by /processAlert.
type GrafanaAlert struct {
	Title       string            `json:"title"`
	RuleName    string            `json:"ruleName"`
	State       string            `json:"state"`
	Message     string            `json:"message,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	EvalMatches []GrafanaMatch    `json:"evalMatches,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// GrafanaMatch is one matched series in a Grafana alert.
type GrafanaMatch struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// PagerDutyEvent is a PagerDuty-style webhook body accepted by /processAlert.
type PagerDutyEvent struct {
	RoutingKey  string           `json:"routing_key,omitempty"`
	EventAction string           `json:"event_action"`
	DedupKey    string           `json:"dedup_key,omitempty"`
	Payload     PagerDutyPayload `json:"payload"`
}

// PagerDutyPayload is the nested payload of a PagerDuty event.
type PagerDutyPayload struct {
	Summary   string         `json:"summary"`
	Source    string         `json:"source"`
	Severity  string         `json:"severity"`
	Component string         `json:"component,omitempty"`
	Group     string         `json:"group,omitempty"`
	Custom    map[string]any `json:"custom_details,omitempty"`
}

// AlertResult is the request router's response to /processAlert.
type AlertResult struct {
	Status         string `json:"status"`
	Mode           string `json:"mode,omitempty"`
	SelectedTaskID string `json:"selected_task_id,omitempty"`
	JobID          string `json:"job_id,omitempty"`
	Deduplicated   bool   `json:"deduplicated,omitempty"`
	Reason         string `json:"reason,omitempty"`
}
