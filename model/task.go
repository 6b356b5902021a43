// Package model defines the JSON payload shapes exchanged with the task
// service and the request router, plus the shared error envelope. The remote
// services own all invariants; these types only give tests something typed to
// assert against.
package model

import "time"

// Task is a runbook: a unit of executable automation managed by the task
// service. Command lists and scripts are carried verbatim; the suite never
// interprets them.
type Task struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Commands    []TaskCommand  `json:"commands,omitempty"`
	Script      string         `json:"script,omitempty"`
	ScriptType  string         `json:"script_type,omitempty"`
	OwnerID     string         `json:"owner_id,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

// TaskCommand is a single step in a task's command list.
type TaskCommand struct {
	Cmd         string `json:"cmd"`
	Description string `json:"description,omitempty"`
	Lang        string `json:"lang,omitempty"`
}

// TaskPatch carries the fields a PATCH /api/v1/tasks/{id} may change.
// Nil fields are omitted and left untouched by the service.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Script      *string   `json:"script,omitempty"`
	WorkspaceID *string   `json:"workspace_id,omitempty"`
}

// TaskList is the paginated response of task listing and search endpoints.
type TaskList struct {
	Tasks      []Task `json:"tasks"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// Workspace is a tenant-scoped grouping of tasks.
type Workspace struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	TenantID    string     `json:"tenant_id,omitempty"`
	IsDefault   bool       `json:"is_default,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// WorkspaceList is the response of GET /api/v1/workspaces.
type WorkspaceList struct {
	Workspaces []Workspace `json:"workspaces"`
	TotalCount int         `json:"total_count"`
}

// Job statuses reported by the task service.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// Job is one execution of a task.
type Job struct {
	ID          string         `json:"id,omitempty"`
	TaskID      string         `json:"task_id"`
	Status      string         `json:"status,omitempty"`
	TriggeredBy string         `json:"triggered_by,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	Output      string         `json:"output,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
}

// JobList is the response of GET /api/v1/jobs.
type JobList struct {
	Jobs       []Job `json:"jobs"`
	TotalCount int   `json:"total_count"`
}
