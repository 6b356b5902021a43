package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dagknows/dkqa/model"
)

// Store holds the platform state behind a single mutex. The stub is a test
// double, not a service, so one lock is enough.
type Store struct {
	mu         sync.RWMutex
	tasks      map[string]model.Task
	workspaces map[string]model.Workspace
	jobs       map[string]model.Job
	roles      map[string]model.Role
	users      map[string]model.User
	userRoles  map[string][]string
	settings   model.Settings
}

// NewStore returns a store seeded with a default workspace, the built-in
// roles, and default settings.
func NewStore() *Store {
	s := &Store{
		tasks:      make(map[string]model.Task),
		workspaces: make(map[string]model.Workspace),
		jobs:       make(map[string]model.Job),
		roles:      make(map[string]model.Role),
		users:      make(map[string]model.User),
		userRoles:  make(map[string][]string),
		settings: model.Settings{
			AlertHandlingMode: model.ModeDeterministic,
			AlertDedupWindow:  300,
			AlertTaskMapping:  make(map[string]string),
			Flags:             make(map[string]any),
		},
	}

	now := time.Now().UTC()
	s.workspaces["ws-default"] = model.Workspace{
		ID:        "ws-default",
		Name:      "Default",
		CreatedAt: &now,
	}
	for _, r := range []model.Role{
		{ID: "role-admin", Name: "admin", Privileges: []string{"read", "write", "manage_users", "manage_settings"}},
		{ID: "role-editor", Name: "editor", Privileges: []string{"read", "write"}},
		{ID: "role-viewer", Name: "viewer", Privileges: []string{"read"}},
	} {
		s.roles[r.ID] = r
	}
	return s
}

func newID(kind string) string {
	return kind + "-" + uuid.NewString()[:12]
}

// --- tasks ---

// CreateTask stores a new task. Titles are unique per workspace.
func (s *Store) CreateTask(t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Title == "" {
		return model.Task{}, requiredField("title")
	}
	if t.WorkspaceID == "" {
		return model.Task{}, requiredField("workspace_id")
	}
	if _, ok := s.workspaces[t.WorkspaceID]; !ok {
		return model.Task{}, model.NewNotFoundError("workspace " + t.WorkspaceID + " not found")
	}
	for _, existing := range s.tasks {
		if existing.WorkspaceID == t.WorkspaceID && existing.Title == t.Title {
			return model.Task{}, model.NewConflictError("task titled " + t.Title + " already exists in workspace")
		}
	}

	now := time.Now().UTC()
	t.ID = newID("task")
	t.CreatedAt = &now
	t.UpdatedAt = &now
	s.tasks[t.ID] = t
	return t, nil
}

// GetTask returns a task by ID.
func (s *Store) GetTask(id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, model.NewNotFoundError("task " + id + " not found")
	}
	return t, nil
}

// ListTasks filters tasks by workspace, free-text query, and tag, then
// paginates. Results are ordered by title for determinism.
func (s *Store) ListTasks(workspaceID, query, tag string, page, pageSize int) model.TaskList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.Task
	q := strings.ToLower(query)
	for _, t := range s.tasks {
		if workspaceID != "" && t.WorkspaceID != workspaceID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		if tag != "" && !containsString(t.Tags, tag) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Title < matched[j].Title })

	total := len(matched)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return model.TaskList{Tasks: matched[start:end], TotalCount: total, Page: page, PageSize: pageSize}
}

// UpdateTask applies a partial update. Absent fields keep their values.
func (s *Store) UpdateTask(id string, patch model.TaskPatch) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, model.NewNotFoundError("task " + id + " not found")
	}
	if patch.Title != nil {
		if *patch.Title == "" {
			return model.Task{}, invalidField("title", "title cannot be empty")
		}
		for _, existing := range s.tasks {
			if existing.ID != id && existing.WorkspaceID == t.WorkspaceID && existing.Title == *patch.Title {
				return model.Task{}, model.NewConflictError("task titled " + *patch.Title + " already exists in workspace")
			}
		}
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Tags != nil {
		t.Tags = *patch.Tags
	}
	if patch.Script != nil {
		t.Script = *patch.Script
	}
	if patch.WorkspaceID != nil {
		if _, ok := s.workspaces[*patch.WorkspaceID]; !ok {
			return model.Task{}, model.NewNotFoundError("workspace " + *patch.WorkspaceID + " not found")
		}
		t.WorkspaceID = *patch.WorkspaceID
	}

	now := time.Now().UTC()
	t.UpdatedAt = &now
	s.tasks[id] = t
	return t, nil
}

// DeleteTask removes a task and its jobs.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return model.NewNotFoundError("task " + id + " not found")
	}
	delete(s.tasks, id)
	for jobID, j := range s.jobs {
		if j.TaskID == id {
			delete(s.jobs, jobID)
		}
	}
	return nil
}

// FindTaskByTitle returns the first task with the given title.
func (s *Store) FindTaskByTitle(title string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.Title == title {
			return t, true
		}
	}
	return model.Task{}, false
}

// --- workspaces ---

// CreateWorkspace stores a new workspace. Names are unique.
func (s *Store) CreateWorkspace(w model.Workspace) (model.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.Name == "" {
		return model.Workspace{}, requiredField("name")
	}
	for _, existing := range s.workspaces {
		if existing.Name == w.Name {
			return model.Workspace{}, model.NewConflictError("workspace named " + w.Name + " already exists")
		}
	}

	now := time.Now().UTC()
	w.ID = newID("ws")
	w.CreatedAt = &now
	s.workspaces[w.ID] = w
	return w, nil
}

// GetWorkspace returns a workspace by ID.
func (s *Store) GetWorkspace(id string) (model.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workspaces[id]
	if !ok {
		return model.Workspace{}, model.NewNotFoundError("workspace " + id + " not found")
	}
	return w, nil
}

// ListWorkspaces returns all workspaces ordered by name.
func (s *Store) ListWorkspaces() model.WorkspaceList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Workspace, 0, len(s.workspaces))
	for _, w := range s.workspaces {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return model.WorkspaceList{Workspaces: out, TotalCount: len(out)}
}

// DeleteWorkspace removes a workspace. Workspaces still holding tasks
// cannot be deleted.
func (s *Store) DeleteWorkspace(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workspaces[id]; !ok {
		return model.NewNotFoundError("workspace " + id + " not found")
	}
	for _, t := range s.tasks {
		if t.WorkspaceID == id {
			return model.NewConflictError("workspace " + id + " still contains tasks")
		}
	}
	delete(s.workspaces, id)
	return nil
}

// --- jobs ---

// CreateJob stores a new running job for an existing task.
func (s *Store) CreateJob(taskID, triggeredBy string, params map[string]any) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if taskID == "" {
		return model.Job{}, requiredField("task_id")
	}
	if _, ok := s.tasks[taskID]; !ok {
		return model.Job{}, model.NewNotFoundError("task " + taskID + " not found")
	}

	now := time.Now().UTC()
	j := model.Job{
		ID:          newID("job"),
		TaskID:      taskID,
		Status:      model.JobRunning,
		TriggeredBy: triggeredBy,
		Params:      params,
		StartedAt:   &now,
	}
	s.jobs[j.ID] = j
	return j, nil
}

// GetJob returns a job by ID.
func (s *Store) GetJob(id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, model.NewNotFoundError("job " + id + " not found")
	}
	return j, nil
}

// ListJobs returns jobs, optionally filtered by task, newest first.
func (s *Store) ListJobs(taskID string) model.JobList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Job, 0)
	for _, j := range s.jobs {
		if taskID != "" && j.TaskID != taskID {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt == nil || out[j].StartedAt == nil {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.After(*out[j].StartedAt)
	})
	return model.JobList{Jobs: out, TotalCount: len(out)}
}

// FinishJob moves a job to a terminal status.
func (s *Store) FinishJob(id, status, output string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return model.NewNotFoundError("job " + id + " not found")
	}
	now := time.Now().UTC()
	j.Status = status
	j.Output = output
	j.FinishedAt = &now
	s.jobs[id] = j
	return nil
}

// DeleteJob removes a job.
func (s *Store) DeleteJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return model.NewNotFoundError("job " + id + " not found")
	}
	delete(s.jobs, id)
	return nil
}

// --- iam ---

// ListRoles returns the role catalogue ordered by name.
func (s *Store) ListRoles() model.RoleList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return model.RoleList{Roles: out}
}

// AddUser stores an org user with default viewer access.
func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = newID("user")
	}
	s.users[u.ID] = u
	if _, ok := s.userRoles[u.ID]; !ok {
		s.userRoles[u.ID] = []string{"viewer"}
	}
	return u
}

// ListUsers returns users belonging to the given org, ordered by email.
func (s *Store) ListUsers(org string) []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0)
	for _, u := range s.users {
		if org != "" && u.Org != org {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// GetUserRoles returns the role names assigned to a user.
func (s *Store) GetUserRoles(userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[userID]; !ok {
		return nil, model.NewNotFoundError("user " + userID + " not found")
	}
	roles := make([]string, len(s.userRoles[userID]))
	copy(roles, s.userRoles[userID])
	return roles, nil
}

// SetUserRoles replaces a user's role assignment. Every named role must
// exist in the catalogue.
func (s *Store) SetUserRoles(userID string, roles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return model.NewNotFoundError("user " + userID + " not found")
	}
	for _, name := range roles {
		found := false
		for _, r := range s.roles {
			if r.Name == name {
				found = true
				break
			}
		}
		if !found {
			return invalidField("roles", "unknown role "+name)
		}
	}
	s.userRoles[userID] = append([]string(nil), roles...)
	return nil
}

// --- settings ---

// GetSettings returns a copy of the org settings.
func (s *Store) GetSettings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.settings
	out.AlertTaskMapping = copyStringMap(s.settings.AlertTaskMapping)
	out.Flags = copyAnyMap(s.settings.Flags)
	return out
}

// SetFlags applies a flag update. Known settings keys update the typed
// fields; anything else lands in the free-form flag map.
func (s *Store) SetFlags(update model.FlagUpdate) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range update {
		switch k {
		case "alert_handling_mode":
			mode, ok := v.(string)
			if !ok || !validMode(mode) {
				return model.Settings{}, invalidField(k, "must be one of deterministic, ai, autonomous")
			}
			s.settings.AlertHandlingMode = mode
		case "alert_dedup_window_seconds":
			secs, ok := asInt(v)
			if !ok || secs < 0 {
				return model.Settings{}, invalidField(k, "must be a non-negative integer")
			}
			s.settings.AlertDedupWindow = secs
		case "alert_task_mapping":
			mapping, ok := asStringMap(v)
			if !ok {
				return model.Settings{}, invalidField(k, "must be a map of alert name to task")
			}
			s.settings.AlertTaskMapping = mapping
		case "ai_enabled":
			enabled, ok := v.(bool)
			if !ok {
				return model.Settings{}, invalidField(k, "must be a boolean")
			}
			s.settings.AIEnabled = enabled
		default:
			if s.settings.Flags == nil {
				s.settings.Flags = make(map[string]any)
			}
			s.settings.Flags[k] = v
		}
	}

	out := s.settings
	out.AlertTaskMapping = copyStringMap(s.settings.AlertTaskMapping)
	out.Flags = copyAnyMap(s.settings.Flags)
	return out, nil
}

func requiredField(field string) *model.APIError {
	return model.NewValidationError([]model.FieldError{
		{Field: field, Code: "required", Message: field + " is required"},
	})
}

func invalidField(field, msg string) *model.APIError {
	return model.NewValidationError([]model.FieldError{
		{Field: field, Code: "invalid", Message: msg},
	})
}

func validMode(mode string) bool {
	switch mode {
	case model.ModeDeterministic, model.ModeAI, model.ModeAutonomous:
		return true
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// asInt accepts the numeric shapes a decoded JSON flag update can carry.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asStringMap(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return copyStringMap(m), true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, raw := range m {
			s, ok := raw.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	}
	return nil, false
}
