package validation

import (
	"fmt"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// StructureValidator checks graph-shape well-formedness: a valid workflow
// has at least one start node and at least one end node.
type StructureValidator struct{}

// NewStructureValidator creates the validator.
func NewStructureValidator() StructureValidator { return StructureValidator{} }

func (StructureValidator) Name() string { return "structure" }

func (StructureValidator) Validate(wf *workflow.Workflow) []Error {
	var errs []Error
	if wf.CountByType(workflow.NodeTypeStart) == 0 {
		errs = append(errs, Error{
			Code:    CodeMissingStartNode,
			Message: fmt.Sprintf("workflow %q has no start node", wf.Name),
		})
	}
	if wf.CountByType(workflow.NodeTypeEnd) == 0 {
		errs = append(errs, Error{
			Code:    CodeMissingEndNode,
			Message: fmt.Sprintf("workflow %q has no end node", wf.Name),
		})
	}
	return errs
}
