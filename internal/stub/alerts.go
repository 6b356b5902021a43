package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dagknows/dkqa/model"
)

// Alert statuses returned by /processAlert.
const (
	AlertHandled   = "handled"
	AlertUnhandled = "unhandled"
	AlertDuplicate = "duplicate"
	AlertIgnored   = "ignored"
)

// normalizedAlert is the provider-independent view the engine works on.
type normalizedAlert struct {
	// fingerprint keys the dedup window: the Grafana fingerprint or rule
	// name, or the PagerDuty dedup key.
	fingerprint string
	name        string
	text        string
	firing      bool
}

// alertEngine maps incoming alerts to tasks according to the tenant's alert
// handling mode, with fingerprint dedup across a sliding window.
type alertEngine struct {
	store *Store

	mu   sync.Mutex
	seen map[string]time.Time

	now func() time.Time
}

func newAlertEngine(store *Store) *alertEngine {
	return &alertEngine{
		store: store,
		seen:  make(map[string]time.Time),
		now:   time.Now,
	}
}

func normalizeGrafana(a model.GrafanaAlert) normalizedAlert {
	fp := a.Fingerprint
	if fp == "" {
		fp = a.RuleName
	}
	return normalizedAlert{
		fingerprint: fp,
		name:        a.RuleName,
		text:        strings.Join([]string{a.Title, a.RuleName, a.Message}, " "),
		firing:      a.State == "alerting",
	}
}

func normalizePagerDuty(e model.PagerDutyEvent) normalizedAlert {
	fp := e.DedupKey
	if fp == "" {
		fp = e.Payload.Summary
	}
	return normalizedAlert{
		fingerprint: fp,
		name:        e.Payload.Summary,
		text:        strings.Join([]string{e.Payload.Summary, e.Payload.Source, e.Payload.Component, e.Payload.Group}, " "),
		firing:      e.EventAction == "trigger",
	}
}

// process runs one alert through dedup and the configured mode.
func (e *alertEngine) process(a normalizedAlert) model.AlertResult {
	settings := e.store.GetSettings()
	mode := settings.AlertHandlingMode
	if mode == "" {
		mode = model.ModeDeterministic
	}

	if !a.firing {
		return model.AlertResult{Status: AlertIgnored, Mode: mode, Reason: "alert is not firing"}
	}
	if e.isDuplicate(a.fingerprint, settings.AlertDedupWindow) {
		return model.AlertResult{Status: AlertDuplicate, Mode: mode, Deduplicated: true}
	}

	switch mode {
	case model.ModeAI, model.ModeAutonomous:
		return e.processScored(a, mode)
	default:
		return e.processMapped(a, settings)
	}
}

// processMapped resolves the alert through the configured name mapping.
// Mapping values name a task by ID or, failing that, by title.
func (e *alertEngine) processMapped(a normalizedAlert, settings model.Settings) model.AlertResult {
	target, ok := settings.AlertTaskMapping[a.name]
	if !ok {
		return model.AlertResult{
			Status: AlertUnhandled,
			Mode:   model.ModeDeterministic,
			Reason: "no task mapped for alert " + a.name,
		}
	}

	task, err := e.store.GetTask(target)
	if err != nil {
		byTitle, found := e.store.FindTaskByTitle(target)
		if !found {
			return model.AlertResult{
				Status: AlertUnhandled,
				Mode:   model.ModeDeterministic,
				Reason: "mapped task " + target + " does not exist",
			}
		}
		task = byTitle
	}

	job, err := e.store.CreateJob(task.ID, "alert:"+a.fingerprint, nil)
	if err != nil {
		return model.AlertResult{
			Status: AlertUnhandled,
			Mode:   model.ModeDeterministic,
			Reason: err.Error(),
		}
	}
	return model.AlertResult{
		Status:         AlertHandled,
		Mode:           model.ModeDeterministic,
		SelectedTaskID: task.ID,
		JobID:          job.ID,
	}
}

// processScored ranks tasks by keyword overlap with the alert text. In
// autonomous mode the best match is executed immediately; in ai mode it is
// only recommended.
func (e *alertEngine) processScored(a normalizedAlert, mode string) model.AlertResult {
	task, score := e.bestMatch(a.text)
	if score == 0 {
		return model.AlertResult{
			Status: AlertUnhandled,
			Mode:   mode,
			Reason: "no task matched the alert text",
		}
	}

	result := model.AlertResult{
		Status:         AlertHandled,
		Mode:           mode,
		SelectedTaskID: task.ID,
	}
	if mode == model.ModeAutonomous {
		job, err := e.store.CreateJob(task.ID, "alert:"+a.fingerprint, nil)
		if err != nil {
			return model.AlertResult{Status: AlertUnhandled, Mode: mode, Reason: err.Error()}
		}
		result.JobID = job.ID
	}
	return result
}

// bestMatch scores every task against the alert text and returns the best
// one. Ties break on title so results are stable.
func (e *alertEngine) bestMatch(text string) (model.Task, int) {
	words := tokenize(text)

	list := e.store.ListTasks("", "", "", 1, 1<<30)
	tasks := append([]model.Task(nil), list.Tasks...)
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Title < tasks[j].Title })

	var best model.Task
	bestScore := 0
	for _, t := range tasks {
		taskWords := tokenize(t.Title + " " + t.Description + " " + strings.Join(t.Tags, " "))
		score := 0
		for w := range words {
			if taskWords[w] {
				score++
			}
		}
		if score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best, bestScore
}

// tokenize lowercases and splits on non-alphanumerics, dropping short noise
// words.
func tokenize(text string) map[string]bool {
	out := make(map[string]bool)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		out[f] = true
	}
	return out
}

// isDuplicate reports whether the fingerprint was seen inside the window and
// records this sighting. A zero window disables dedup.
func (e *alertEngine) isDuplicate(fingerprint string, windowSeconds int) bool {
	if fingerprint == "" || windowSeconds <= 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	window := time.Duration(windowSeconds) * time.Second
	last, seen := e.seen[fingerprint]
	e.seen[fingerprint] = now

	// Opportunistic sweep of expired fingerprints.
	for fp, at := range e.seen {
		if fp != fingerprint && now.Sub(at) > window {
			delete(e.seen, fp)
		}
	}

	return seen && now.Sub(last) <= window
}
