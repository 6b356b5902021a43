// Package factory builds unique test payloads. Every generated resource
// carries the "dkqa-" prefix and a uuid fragment so leftovers from aborted
// runs are identifiable and sweepable.
package factory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dagknows/dkqa/model"
)

// Prefix marks every resource created by the suite.
const Prefix = "dkqa-"

// UniqueName returns a prefixed name with a short uuid fragment.
func UniqueName(kind string) string {
	return fmt.Sprintf("%s%s-%s", Prefix, kind, uuid.NewString()[:8])
}

// Task returns a task payload with a unique title in the given workspace.
func Task(workspaceID string) model.Task {
	name := UniqueName("task")
	return model.Task{
		Title:       name,
		Description: "created by the dkqa suite, safe to delete",
		WorkspaceID: workspaceID,
		Tags:        []string{"dkqa"},
		Commands: []model.TaskCommand{
			{Cmd: "echo " + name, Description: "no-op marker command", Lang: "bash"},
		},
	}
}

// ScriptTask returns a task carrying a script body instead of a command list.
func ScriptTask(workspaceID, script string) model.Task {
	t := Task(workspaceID)
	t.Commands = nil
	t.Script = script
	t.ScriptType = "bash"
	return t
}

// Workspace returns a workspace payload with a unique name.
func Workspace() model.Workspace {
	return model.Workspace{
		Name:        UniqueName("ws"),
		Description: "created by the dkqa suite, safe to delete",
	}
}

// User returns an org user payload with a unique email.
func User(org string) model.User {
	frag := uuid.NewString()[:8]
	return model.User{
		Email:     fmt.Sprintf("%suser-%s@%s.example.com", Prefix, frag, org),
		FirstName: "DKQA",
		LastName:  "User " + frag,
		Org:       org,
		Enabled:   true,
	}
}

// Role returns a role payload with a unique name and the given privileges.
func Role(privileges ...string) model.Role {
	return model.Role{
		Name:        UniqueName("role"),
		Description: "created by the dkqa suite, safe to delete",
		Privileges:  privileges,
	}
}

// GrafanaAlert returns an alerting-state Grafana webhook body. The rule name
// doubles as the dedup fingerprint unless one is set explicitly.
func GrafanaAlert(ruleName string) model.GrafanaAlert {
	return model.GrafanaAlert{
		Title:       "[Alerting] " + ruleName,
		RuleName:    ruleName,
		State:       "alerting",
		Message:     "triggered by the dkqa suite",
		Fingerprint: ruleName,
		EvalMatches: []model.GrafanaMatch{
			{Metric: "cpu_usage", Value: 97.3},
		},
		Tags: map[string]string{"source": "dkqa"},
	}
}

// UniqueGrafanaAlert returns a Grafana webhook body with a unique rule name
// and fingerprint, immune to the server's dedup window.
func UniqueGrafanaAlert() model.GrafanaAlert {
	return GrafanaAlert(UniqueName("alert"))
}

// PagerDutyEvent returns a trigger-action PagerDuty webhook body keyed by
// the given dedup key.
func PagerDutyEvent(dedupKey, summary string) model.PagerDutyEvent {
	return model.PagerDutyEvent{
		EventAction: "trigger",
		DedupKey:    dedupKey,
		Payload: model.PagerDutyPayload{
			Summary:  summary,
			Source:   "dkqa",
			Severity: "critical",
			Custom: map[string]any{
				"created_at": time.Now().UTC().Format(time.RFC3339),
			},
		},
	}
}

// UniquePagerDutyEvent returns a PagerDuty webhook body with a unique dedup
// key.
func UniquePagerDutyEvent(summary string) model.PagerDutyEvent {
	return PagerDutyEvent(UniqueName("pd"), summary)
}
