package workflow

import (
	"github.com/google/uuid"
)

// NodeType defines the type of a workflow node
type NodeType string

const (
	// NodeTypeStart marks a workflow entry point
	NodeTypeStart NodeType = "start"
	// NodeTypeEnd marks a workflow exit point
	NodeTypeEnd NodeType = "end"
	// NodeTypeTask performs a unit of work
	NodeTypeTask NodeType = "task"
	// NodeTypeDecision branches on conditions
	NodeTypeDecision NodeType = "decision"
	// NodeTypeSync waits for multiple source nodes
	NodeTypeSync NodeType = "sync"
)

// DependencyType defines the type of an edge between two nodes
type DependencyType string

const (
	// DependencySequential is an unconditional edge
	DependencySequential DependencyType = "sequential"
	// DependencyConditional is an edge guarded by a condition or marked default
	DependencyConditional DependencyType = "conditional"
	// DependencySync is an edge feeding a synchronization point
	DependencySync DependencyType = "sync"
)

// Operator enumerates the comparison operators usable in conditions
type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "not_equals"
	OpGreaterThan    Operator = "greater_than"
	OpLessThan       Operator = "less_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessOrEqual    Operator = "less_or_equal"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
	OpStartsWith     Operator = "starts_with"
	OpEndsWith       Operator = "ends_with"
	OpRegex          Operator = "regex"
)

// ResourceKind enumerates the resource categories a node may require
type ResourceKind string

const (
	ResourceCPU    ResourceKind = "cpu"
	ResourceMemory ResourceKind = "memory"
	ResourceGPU    ResourceKind = "gpu"
	ResourceCustom ResourceKind = "custom"
)

// Condition is a single comparison: key <operator> value.
// Value is a string, float64 or bool depending on how it was written.
type Condition struct {
	Key      string   `json:"key" yaml:"key"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value" yaml:"value"`
}

// DecisionBranch pairs a condition with the node to route to when it holds.
type DecisionBranch struct {
	Condition Condition `json:"condition" yaml:"condition"`
	TargetID  string    `json:"target_id" yaml:"target_id"`
}

// ResourceRequirement declares a resource a node needs. The requirement is
// inert data for an external executor; this package never interprets it.
type ResourceRequirement struct {
	Kind ResourceKind `json:"kind" yaml:"kind"`
	// Amount must be >= 0
	Amount float64 `json:"amount" yaml:"amount"`
	// CustomKind names the resource when Kind is custom
	CustomKind string `json:"custom_kind,omitempty" yaml:"custom_kind,omitempty"`
}

// TaskConfig holds the task-specific fields of a task node.
type TaskConfig struct {
	// TaskType names the kind of work the task performs
	TaskType string `json:"task_type" yaml:"task_type"`
	// Parameters are free-form task inputs
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// Timeout in seconds (0 = none)
	Timeout float64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Retries is the retry budget for the external executor
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// DecisionConfig holds the decision-specific fields of a decision node.
type DecisionConfig struct {
	// Branches are evaluated in order; the first matching condition wins
	Branches []DecisionBranch `json:"branches,omitempty" yaml:"branches,omitempty"`
	// DefaultTargetID is the node to route to when no branch matches
	DefaultTargetID string `json:"default_target_id,omitempty" yaml:"default_target_id,omitempty"`
}

// SyncConfig holds the sync-specific fields of a synchronization point.
type SyncConfig struct {
	// Sources are the node ids the sync point waits on
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	// WaitForAll requires every source; false means any source suffices
	WaitForAll bool `json:"wait_for_all" yaml:"wait_for_all"`
	// Timeout in seconds (0 = none)
	Timeout float64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Node represents a single node in the workflow graph. Node is a tagged
// union: Type selects which of Task, Decision and Sync is populated; the
// remaining config pointers are nil.
type Node struct {
	// ID is the unique identifier for this node
	ID string `json:"id" yaml:"id"`
	// Type specifies the node variant
	Type NodeType `json:"type" yaml:"type"`
	// Name is the human-readable name used by the DSL
	Name string `json:"name" yaml:"name"`
	// Description describes the node
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// TrackID is the id of the track this node belongs to, if any
	TrackID string `json:"track_id,omitempty" yaml:"track_id,omitempty"`
	// Resources lists the node's resource requirements
	Resources []ResourceRequirement `json:"resources,omitempty" yaml:"resources,omitempty"`
	// Metadata stores additional node information
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Task is set for task nodes
	Task *TaskConfig `json:"task,omitempty" yaml:"task,omitempty"`
	// Decision is set for decision nodes
	Decision *DecisionConfig `json:"decision,omitempty" yaml:"decision,omitempty"`
	// Sync is set for sync nodes
	Sync *SyncConfig `json:"sync,omitempty" yaml:"sync,omitempty"`
}

// Dependency is a directed edge between two nodes.
type Dependency struct {
	// ID is the unique identifier for this dependency
	ID string `json:"id" yaml:"id"`
	// SourceID is the id of the upstream node
	SourceID string `json:"source_id" yaml:"source_id"`
	// TargetID is the id of the downstream node
	TargetID string `json:"target_id" yaml:"target_id"`
	// Type specifies the edge variant
	Type DependencyType `json:"type" yaml:"type"`
	// Condition guards the edge when Type is conditional; a nil condition on
	// a conditional edge means the edge is the default branch
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Track is a named grouping of nodes for parallel/lanes-style presentation.
// Tracks carry no execution semantics.
type Track struct {
	// ID is the unique identifier for this track
	ID string `json:"id" yaml:"id"`
	// Name is the human-readable name used by the DSL
	Name string `json:"name" yaml:"name"`
	// Description describes the track
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Nodes lists the ids of member nodes in document order
	Nodes []string `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// Workflow is the root aggregate: an ordered graph of typed nodes connected
// by typed dependencies, optionally grouped into tracks. A Workflow is an
// ordinary mutable value exclusively owned by its holder; it is not safe for
// concurrent mutation.
type Workflow struct {
	ID           string         `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version      string         `json:"version,omitempty" yaml:"version,omitempty"`
	Nodes        []*Node        `json:"nodes" yaml:"nodes"`
	Dependencies []*Dependency  `json:"dependencies" yaml:"dependencies"`
	Tracks       []*Track       `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewID returns a fresh unique identifier for nodes, tracks, dependencies
// and workflows.
func NewID() string {
	return uuid.NewString()
}

// New creates an empty workflow with a generated id.
func New(name string) *Workflow {
	return &Workflow{
		ID:   NewID(),
		Name: name,
	}
}

// AddNode appends a node to the workflow. Nodes without an id get one
// assigned.
func (w *Workflow) AddNode(node *Node) {
	if node.ID == "" {
		node.ID = NewID()
	}
	w.Nodes = append(w.Nodes, node)
}

// RemoveNode removes the node with the given id along with every dependency
// touching it and its track membership. It reports whether a node was
// removed.
func (w *Workflow) RemoveNode(nodeID string) bool {
	idx := -1
	for i, n := range w.Nodes {
		if n.ID == nodeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	w.Nodes = append(w.Nodes[:idx], w.Nodes[idx+1:]...)

	deps := w.Dependencies[:0]
	for _, d := range w.Dependencies {
		if d.SourceID != nodeID && d.TargetID != nodeID {
			deps = append(deps, d)
		}
	}
	w.Dependencies = deps

	for _, t := range w.Tracks {
		for i, id := range t.Nodes {
			if id == nodeID {
				t.Nodes = append(t.Nodes[:i], t.Nodes[i+1:]...)
				break
			}
		}
	}
	return true
}

// AddDependency appends a dependency to the workflow. Dependencies without
// an id get one assigned.
func (w *Workflow) AddDependency(dep *Dependency) {
	if dep.ID == "" {
		dep.ID = NewID()
	}
	w.Dependencies = append(w.Dependencies, dep)
}

// RemoveDependency removes the dependency with the given id. It reports
// whether a dependency was removed.
func (w *Workflow) RemoveDependency(depID string) bool {
	for i, d := range w.Dependencies {
		if d.ID == depID {
			w.Dependencies = append(w.Dependencies[:i], w.Dependencies[i+1:]...)
			return true
		}
	}
	return false
}

// AddTrack appends a track to the workflow. Tracks without an id get one
// assigned.
func (w *Workflow) AddTrack(track *Track) {
	if track.ID == "" {
		track.ID = NewID()
	}
	w.Tracks = append(w.Tracks, track)
}

// RemoveTrack removes the track with the given id and clears the track
// reference on its member nodes. It reports whether a track was removed.
func (w *Workflow) RemoveTrack(trackID string) bool {
	for i, t := range w.Tracks {
		if t.ID == trackID {
			w.Tracks = append(w.Tracks[:i], w.Tracks[i+1:]...)
			for _, n := range w.Nodes {
				if n.TrackID == trackID {
					n.TrackID = ""
				}
			}
			return true
		}
	}
	return false
}

// Node retrieves a node by id.
func (w *Workflow) Node(nodeID string) (*Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == nodeID {
			return n, true
		}
	}
	return nil, false
}

// NodeByName retrieves the first node with the given name in document order.
func (w *Workflow) NodeByName(name string) (*Node, bool) {
	for _, n := range w.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Track retrieves a track by id.
func (w *Workflow) Track(trackID string) (*Track, bool) {
	for _, t := range w.Tracks {
		if t.ID == trackID {
			return t, true
		}
	}
	return nil, false
}

// TrackByName retrieves the first track with the given name in document
// order.
func (w *Workflow) TrackByName(name string) (*Track, bool) {
	for _, t := range w.Tracks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// NodeIndex builds an id -> node map. The index is a snapshot; mutating the
// workflow invalidates it.
func (w *Workflow) NodeIndex() map[string]*Node {
	idx := make(map[string]*Node, len(w.Nodes))
	for _, n := range w.Nodes {
		idx[n.ID] = n
	}
	return idx
}

// Outgoing returns the dependencies leaving the given node, in definition
// order.
func (w *Workflow) Outgoing(nodeID string) []*Dependency {
	var out []*Dependency
	for _, d := range w.Dependencies {
		if d.SourceID == nodeID {
			out = append(out, d)
		}
	}
	return out
}

// Incoming returns the dependencies arriving at the given node, in
// definition order.
func (w *Workflow) Incoming(nodeID string) []*Dependency {
	var in []*Dependency
	for _, d := range w.Dependencies {
		if d.TargetID == nodeID {
			in = append(in, d)
		}
	}
	return in
}

// CountByType returns how many nodes of the given type the workflow has.
func (w *Workflow) CountByType(nodeType NodeType) int {
	count := 0
	for _, n := range w.Nodes {
		if n.Type == nodeType {
			count++
		}
	}
	return count
}
