package factory

import (
	"strings"
	"testing"
)

func TestUniqueName(t *testing.T) {
	a := UniqueName("task")
	b := UniqueName("task")

	if !strings.HasPrefix(a, Prefix+"task-") {
		t.Errorf("UniqueName() = %q, want %q prefix", a, Prefix+"task-")
	}
	if a == b {
		t.Errorf("UniqueName() returned duplicate %q", a)
	}
}

func TestTask(t *testing.T) {
	task := Task("ws-1")

	if task.WorkspaceID != "ws-1" {
		t.Errorf("WorkspaceID = %q, want %q", task.WorkspaceID, "ws-1")
	}
	if !strings.HasPrefix(task.Title, Prefix) {
		t.Errorf("Title = %q, want %q prefix", task.Title, Prefix)
	}
	if len(task.Commands) == 0 {
		t.Error("Task() produced no commands")
	}
}

func TestScriptTask(t *testing.T) {
	task := ScriptTask("ws-1", "uptime")

	if task.Script != "uptime" {
		t.Errorf("Script = %q, want %q", task.Script, "uptime")
	}
	if task.ScriptType != "bash" {
		t.Errorf("ScriptType = %q, want %q", task.ScriptType, "bash")
	}
	if len(task.Commands) != 0 {
		t.Errorf("Commands = %v, want empty", task.Commands)
	}
}

func TestUserEmailUnique(t *testing.T) {
	a := User("acme")
	b := User("acme")

	if a.Email == b.Email {
		t.Errorf("User() returned duplicate email %q", a.Email)
	}
	if !strings.HasSuffix(a.Email, "@acme.example.com") {
		t.Errorf("Email = %q, want @acme.example.com suffix", a.Email)
	}
}

func TestGrafanaAlert(t *testing.T) {
	alert := GrafanaAlert("high-cpu")

	if alert.RuleName != "high-cpu" {
		t.Errorf("RuleName = %q, want %q", alert.RuleName, "high-cpu")
	}
	if alert.Fingerprint != "high-cpu" {
		t.Errorf("Fingerprint = %q, want rule name", alert.Fingerprint)
	}
	if alert.State != "alerting" {
		t.Errorf("State = %q, want %q", alert.State, "alerting")
	}
}

func TestUniqueGrafanaAlert(t *testing.T) {
	a := UniqueGrafanaAlert()
	b := UniqueGrafanaAlert()

	if a.Fingerprint == b.Fingerprint {
		t.Errorf("UniqueGrafanaAlert() returned duplicate fingerprint %q", a.Fingerprint)
	}
}

func TestPagerDutyEvent(t *testing.T) {
	ev := PagerDutyEvent("dk-1", "disk full")

	if ev.EventAction != "trigger" {
		t.Errorf("EventAction = %q, want %q", ev.EventAction, "trigger")
	}
	if ev.DedupKey != "dk-1" {
		t.Errorf("DedupKey = %q, want %q", ev.DedupKey, "dk-1")
	}
	if ev.Payload.Summary != "disk full" {
		t.Errorf("Summary = %q, want %q", ev.Payload.Summary, "disk full")
	}
}
