package integration

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dagknows/dkqa/internal/factory"
	"github.com/dagknows/dkqa/internal/openapi"
)

func loadContract(t *testing.T) *openapi.Index {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate contract file")
	}
	specPath := filepath.Join(filepath.Dir(thisFile), "..", "..",
		"internal", "openapi", "testdata", "taskservice.yaml")

	idx := openapi.NewIndex()
	err := idx.Load([]openapi.Source{{ServiceID: "taskservice", SpecPath: specPath}})
	if err != nil {
		t.Fatalf("loading contract: %v", err)
	}
	return idx
}

// TestContract_StubMatchesPublishedOperations drives real traffic through
// the client and checks each observed call against the published contract.
func TestContract_StubMatchesPublishedOperations(t *testing.T) {
	h := NewHarness(t)
	idx := loadContract(t)
	ctx := context.Background()

	task := h.CreateTask(ctx, factory.Task("ws-default"))
	if _, err := h.Tasks.GetTask(ctx, task.ID); err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	// The tracked cleanup delete sees a 404 afterwards, which the tracker
	// tolerates.
	if err := h.Tasks.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}

	for _, opID := range []string{"createTask", "getTask", "deleteTask"} {
		op, ok := idx.Get("taskservice", opID)
		if !ok {
			t.Fatalf("operation %s missing from contract", opID)
		}
		reqs := h.Platform.Recorder.Requests(opID)
		if len(reqs) == 0 {
			t.Fatalf("operation %s never observed", opID)
		}
		if reqs[0].Method != op.Method {
			t.Errorf("%s method = %q, contract says %q", opID, reqs[0].Method, op.Method)
		}
	}
}

// TestContract_CreateBodySatisfiesSchema checks the factory payload against
// the contract's required fields before it ever hits the wire.
func TestContract_CreateBodySatisfiesSchema(t *testing.T) {
	idx := loadContract(t)

	payload := factory.Task("ws-default")
	body := map[string]any{
		"title":        payload.Title,
		"workspace_id": payload.WorkspaceID,
		"description":  payload.Description,
	}
	if errs := idx.ValidateRequest("taskservice", "createTask", body); len(errs) != 0 {
		t.Errorf("ValidateRequest() = %v, want factory payload accepted", errs)
	}

	if errs := idx.ValidateRequest("taskservice", "createTask", map[string]any{}); len(errs) == 0 {
		t.Error("ValidateRequest(empty) = no errors, want required fields flagged")
	}
}

// TestContract_ErrorStatusesDeclared confirms the statuses the stub returns
// are the ones the contract declares.
func TestContract_ErrorStatusesDeclared(t *testing.T) {
	idx := loadContract(t)

	cases := []struct {
		opID   string
		status int
	}{
		{"createTask", 201},
		{"createTask", 409},
		{"getTask", 404},
		{"deleteTask", 204},
		{"listRoles", 200},
	}
	for _, tc := range cases {
		if !idx.DeclaresStatus("taskservice", tc.opID, tc.status) {
			t.Errorf("contract does not declare %d for %s", tc.status, tc.opID)
		}
	}
}
