package integration

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/dagknows/dkqa/internal/cleanup"
	"github.com/dagknows/dkqa/internal/factory"
	"github.com/dagknows/dkqa/model"
)

func TestCleanup_SweepsCreatedResources(t *testing.T) {
	h := NewHarness(t)
	ctx := context.Background()

	tracker := cleanup.NewTracker(zap.NewNop())

	ws, err := h.Tasks.CreateWorkspace(ctx, factory.Workspace())
	if err != nil {
		t.Fatalf("CreateWorkspace() error = %v", err)
	}
	tracker.Add("workspace", ws.ID, func(ctx context.Context) error {
		return h.Tasks.DeleteWorkspace(ctx, ws.ID)
	})

	task, err := h.Tasks.CreateTask(ctx, factory.Task(ws.ID))
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	tracker.Add("task", task.ID, func(ctx context.Context) error {
		return h.Tasks.DeleteTask(ctx, task.ID)
	})

	// LIFO order matters: the task goes first, then its workspace can be
	// deleted without a conflict.
	if failed := tracker.Cleanup(ctx); failed != 0 {
		t.Fatalf("Cleanup() = %d failures, want 0", failed)
	}

	if _, err := h.Tasks.GetTask(ctx, task.ID); !model.IsNotFound(err) {
		t.Errorf("GetTask() after cleanup error = %v, want not found", err)
	}
	if _, err := h.Tasks.GetWorkspace(ctx, ws.ID); !model.IsNotFound(err) {
		t.Errorf("GetWorkspace() after cleanup error = %v, want not found", err)
	}
}

func TestCleanup_ToleratesAlreadyDeleted(t *testing.T) {
	h := NewHarness(t)
	ctx := context.Background()

	tracker := cleanup.NewTracker(zap.NewNop())
	task, err := h.Tasks.CreateTask(ctx, factory.Task("ws-default"))
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	tracker.Add("task", task.ID, func(ctx context.Context) error {
		return h.Tasks.DeleteTask(ctx, task.ID)
	})

	// The test deletes it first; cleanup must treat the 404 as success.
	if err := h.Tasks.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if failed := tracker.Cleanup(ctx); failed != 0 {
		t.Errorf("Cleanup() = %d failures, want 0", failed)
	}
}
