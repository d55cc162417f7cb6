package validation

import (
	"fmt"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// OrphanValidator flags nodes with no dependencies at all. Start and end
// nodes are exempt: a start node legitimately has only outgoing edges, an
// end node only incoming ones, and a workflow under interactive editing may
// briefly hold an end node with no edges at all.
type OrphanValidator struct{}

// NewOrphanValidator creates the validator.
func NewOrphanValidator() OrphanValidator { return OrphanValidator{} }

func (OrphanValidator) Name() string { return "orphans" }

func (OrphanValidator) Validate(wf *workflow.Workflow) []Error {
	degree := make(map[string]int, len(wf.Nodes))
	for _, dep := range wf.Dependencies {
		degree[dep.SourceID]++
		degree[dep.TargetID]++
	}

	var errs []Error
	for _, node := range wf.Nodes {
		if node.Type == workflow.NodeTypeStart || node.Type == workflow.NodeTypeEnd {
			continue
		}
		if degree[node.ID] == 0 {
			errs = append(errs, Error{
				Code:    CodeOrphanedNode,
				Message: fmt.Sprintf("node %q has no incoming or outgoing dependencies", node.Name),
				NodeID:  node.ID,
			})
		}
	}
	return errs
}
