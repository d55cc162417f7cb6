package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// MemoryStore is a plain-map-backed workflow store guarded by a
// read-write mutex. It is the default store for tools and tests; the
// gorm-backed store persists across runs.
type MemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]*workflow.Workflow
	logger    *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		workflows: make(map[string]*workflow.Workflow),
		logger:    logger.With(zap.String("component", "memory_store")),
	}
}

// Save stores a deep copy of the workflow, assigning an id when empty.
func (s *MemoryStore) Save(_ context.Context, wf *workflow.Workflow) (string, error) {
	if wf.ID == "" {
		wf.ID = workflow.NewID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ID] = wf.Clone()

	s.logger.Debug("workflow saved",
		zap.String("id", wf.ID),
		zap.String("name", wf.Name),
		zap.Int("nodes", len(wf.Nodes)),
	)
	return wf.ID, nil
}

// Get returns a deep copy of the stored workflow.
func (s *MemoryStore) Get(_ context.Context, id string) (*workflow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return wf.Clone(), nil
}

// List returns deep copies of every stored workflow, ordered by name (id
// as tiebreaker) for deterministic output.
func (s *MemoryStore) List(_ context.Context) ([]*workflow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*workflow.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		out = append(out, wf.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a stored workflow.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(s.workflows, id)
	s.logger.Debug("workflow deleted", zap.String("id", id))
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
