package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/dagknows/dkqa/model"
)

// TaskService wraps the task service REST API (/api/v1/...).
type TaskService struct {
	c *Client
}

// NewTaskService creates a task service client.
func NewTaskService(baseURL string, opts ...Option) *TaskService {
	return &TaskService{c: New("taskservice", baseURL, opts...)}
}

// Core exposes the underlying client, mainly for tests.
func (ts *TaskService) Core() *Client {
	return ts.c
}

// --- tasks ---

// CreateTask creates a task and returns the stored representation.
func (ts *TaskService) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	var created model.Task
	err := ts.c.call(ctx, "createTask", "POST", "/api/v1/tasks", nil, task, &created)
	return created, err
}

// GetTask fetches a task by ID.
func (ts *TaskService) GetTask(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := ts.c.call(ctx, "getTask", "GET", "/api/v1/tasks/"+url.PathEscape(id), nil, nil, &task)
	return task, err
}

// ListTasksOptions narrow a task listing.
type ListTasksOptions struct {
	WorkspaceID string
	Query       string
	Tag         string
	Page        int
	PageSize    int
}

// ListTasks lists tasks matching the options.
func (ts *TaskService) ListTasks(ctx context.Context, opts ListTasksOptions) (model.TaskList, error) {
	q := url.Values{}
	if opts.WorkspaceID != "" {
		q.Set("workspace_id", opts.WorkspaceID)
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.Tag != "" {
		q.Set("tag", opts.Tag)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}

	var list model.TaskList
	err := ts.c.call(ctx, "listTasks", "GET", "/api/v1/tasks", q, nil, &list)
	return list, err
}

// UpdateTask applies a partial update to a task.
func (ts *TaskService) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var updated model.Task
	err := ts.c.call(ctx, "updateTask", "PATCH", "/api/v1/tasks/"+url.PathEscape(id), nil, patch, &updated)
	return updated, err
}

// DeleteTask deletes a task by ID.
func (ts *TaskService) DeleteTask(ctx context.Context, id string) error {
	return ts.c.call(ctx, "deleteTask", "DELETE", "/api/v1/tasks/"+url.PathEscape(id), nil, nil, nil)
}

// --- workspaces ---

// CreateWorkspace creates a workspace.
func (ts *TaskService) CreateWorkspace(ctx context.Context, ws model.Workspace) (model.Workspace, error) {
	var created model.Workspace
	err := ts.c.call(ctx, "createWorkspace", "POST", "/api/v1/workspaces", nil, ws, &created)
	return created, err
}

// GetWorkspace fetches a workspace by ID.
func (ts *TaskService) GetWorkspace(ctx context.Context, id string) (model.Workspace, error) {
	var ws model.Workspace
	err := ts.c.call(ctx, "getWorkspace", "GET", "/api/v1/workspaces/"+url.PathEscape(id), nil, nil, &ws)
	return ws, err
}

// ListWorkspaces lists all workspaces visible to the token's tenant.
func (ts *TaskService) ListWorkspaces(ctx context.Context) (model.WorkspaceList, error) {
	var list model.WorkspaceList
	err := ts.c.call(ctx, "listWorkspaces", "GET", "/api/v1/workspaces", nil, nil, &list)
	return list, err
}

// DeleteWorkspace deletes a workspace by ID.
func (ts *TaskService) DeleteWorkspace(ctx context.Context, id string) error {
	return ts.c.call(ctx, "deleteWorkspace", "DELETE", "/api/v1/workspaces/"+url.PathEscape(id), nil, nil, nil)
}

// --- jobs ---

// CreateJob starts an execution of a task.
func (ts *TaskService) CreateJob(ctx context.Context, job model.Job) (model.Job, error) {
	var created model.Job
	err := ts.c.call(ctx, "createJob", "POST", "/api/v1/jobs", nil, job, &created)
	return created, err
}

// GetJob fetches a job by ID.
func (ts *TaskService) GetJob(ctx context.Context, id string) (model.Job, error) {
	var job model.Job
	err := ts.c.call(ctx, "getJob", "GET", "/api/v1/jobs/"+url.PathEscape(id), nil, nil, &job)
	return job, err
}

// ListJobs lists jobs, optionally filtered by task.
func (ts *TaskService) ListJobs(ctx context.Context, taskID string) (model.JobList, error) {
	q := url.Values{}
	if taskID != "" {
		q.Set("task_id", taskID)
	}
	var list model.JobList
	err := ts.c.call(ctx, "listJobs", "GET", "/api/v1/jobs", q, nil, &list)
	return list, err
}

// DeleteJob deletes a job record.
func (ts *TaskService) DeleteJob(ctx context.Context, id string) error {
	return ts.c.call(ctx, "deleteJob", "DELETE", "/api/v1/jobs/"+url.PathEscape(id), nil, nil, nil)
}

// WaitForJob polls a job until it reaches a terminal status or the context
// expires. The poll interval is fixed; tests bound the wait via ctx.
func (ts *TaskService) WaitForJob(ctx context.Context, id string, interval time.Duration) (model.Job, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := ts.GetJob(ctx, id)
		if err != nil {
			return model.Job{}, err
		}
		switch job.Status {
		case model.JobSucceeded, model.JobFailed, model.JobCancelled:
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, fmt.Errorf("client: job %s still %q: %w", id, job.Status, ctx.Err())
		case <-ticker.C:
		}
	}
}

// --- IAM ---

// ListRoles lists the IAM roles defined for the tenant.
func (ts *TaskService) ListRoles(ctx context.Context) (model.RoleList, error) {
	var list model.RoleList
	err := ts.c.call(ctx, "listRoles", "GET", "/api/v1/iam/roles", nil, nil, &list)
	return list, err
}
