package store

import (
	"context"
	"errors"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// ErrNotFound is returned when no workflow has the requested id.
var ErrNotFound = errors.New("workflow not found")

// IsNotFound reports whether the error means a missing workflow.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store is the CRUD boundary for workflow graphs. Implementations own
// their concurrency control; the graph values they accept and return are
// exclusively owned by the caller (implementations deep-copy on the way in
// and out, so a stored workflow is never aliased by a live one).
type Store interface {
	// Save creates or replaces the workflow under its id, assigning one
	// when empty. The stored id is returned.
	Save(ctx context.Context, wf *workflow.Workflow) (string, error)
	// Get returns the workflow with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*workflow.Workflow, error)
	// List returns every stored workflow.
	List(ctx context.Context) ([]*workflow.Workflow, error)
	// Delete removes the workflow with the given id, or ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Close releases the store's resources.
	Close() error
}
