// Package cleanup tracks resources created during a run and deletes them
// afterwards in reverse creation order.
package cleanup

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dagknows/dkqa/model"
)

// DeleteFunc removes a single tracked resource.
type DeleteFunc func(ctx context.Context) error

type entry struct {
	kind string
	id   string
	del  DeleteFunc
}

// Tracker records created resources and tears them down LIFO so dependents
// are removed before the resources they depend on. Deletion is best effort:
// failures are logged, never returned, and a resource that is already gone
// counts as cleaned.
type Tracker struct {
	mu      sync.Mutex
	entries []entry
	logger  *zap.Logger
}

// NewTracker returns an empty tracker logging through the given logger.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{logger: logger}
}

// Add records a resource for later deletion.
func (t *Tracker) Add(kind, id string, del DeleteFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry{kind: kind, id: id, del: del})
}

// Len reports how many resources are pending deletion.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Cleanup deletes all tracked resources in reverse order and returns the
// number that could not be removed. Already-deleted resources are not
// counted as failures.
func (t *Tracker) Cleanup(ctx context.Context) int {
	t.mu.Lock()
	entries := t.entries
	t.entries = nil
	t.mu.Unlock()

	failed := 0
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		err := e.del(ctx)
		if err == nil || model.IsNotFound(err) {
			t.logger.Debug("cleaned up resource",
				zap.String("kind", e.kind),
				zap.String("id", e.id))
			continue
		}
		failed++
		t.logger.Warn("failed to clean up resource",
			zap.String("kind", e.kind),
			zap.String("id", e.id),
			zap.Error(err))
	}
	return failed
}
