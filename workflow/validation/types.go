package validation

import (
	"github.com/flowgraph-io/flowgraph/workflow"
)

// ErrorCode classifies a structural validation problem.
type ErrorCode string

const (
	// CodeCircularDependency means the dependency relation contains a cycle
	CodeCircularDependency ErrorCode = "circular_dependency"
	// CodeOrphanedNode means a non-start/end node has no dependencies at all
	CodeOrphanedNode ErrorCode = "orphaned_node"
	// CodeMissingStartNode means the workflow has no start node
	CodeMissingStartNode ErrorCode = "missing_start_node"
	// CodeMissingEndNode means the workflow has no end node
	CodeMissingEndNode ErrorCode = "missing_end_node"
	// CodeDanglingReference means an id references no node in the workflow
	CodeDanglingReference ErrorCode = "dangling_reference"
	// CodeSelfDependency means a dependency connects a node to itself
	CodeSelfDependency ErrorCode = "self_dependency"
	// CodeDuplicateNodeID means two nodes share an id
	CodeDuplicateNodeID ErrorCode = "duplicate_node_id"
	// CodeDuplicateTrackID means two tracks share an id
	CodeDuplicateTrackID ErrorCode = "duplicate_track_id"
	// CodeInvalidResource means a resource requirement is malformed
	CodeInvalidResource ErrorCode = "invalid_resource"
)

// Error describes one structural defect. Structural defects are data, not
// exceptions: validators collect them instead of raising.
type Error struct {
	// Code is the defect class
	Code ErrorCode `json:"code"`
	// Message is the human-readable description
	Message string `json:"message"`
	// NodeID names the offending node, when one exists
	NodeID string `json:"node_id,omitempty"`
	// DependencyIDs names the offending dependencies, when they exist
	DependencyIDs []string `json:"dependency_ids,omitempty"`
	// TrackID names the offending track, when one exists
	TrackID string `json:"track_id,omitempty"`
}

// Result is the outcome of running a validator registry over a workflow.
type Result struct {
	// Valid is true when no validator reported an error
	Valid bool `json:"valid"`
	// Errors lists every defect in registration/traversal order
	Errors []Error `json:"errors,omitempty"`
}

// ErrorsByCode groups the result's errors by their code.
func (r Result) ErrorsByCode(code ErrorCode) []Error {
	var out []Error
	for _, e := range r.Errors {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}

// Validator is a pure structural check over a fully resolved workflow
// graph. Implementations never mutate the workflow and never panic;
// defects are returned as data.
type Validator interface {
	// Name identifies the validator in logs
	Name() string
	// Validate returns every defect the check finds
	Validate(wf *workflow.Workflow) []Error
}
