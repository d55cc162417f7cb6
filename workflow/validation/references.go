package validation

import (
	"fmt"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// ReferenceValidator re-checks reference integrity defensively. The DSL
// resolver guarantees these invariants for parsed workflows, but graphs can
// also arrive from JSON import or programmatic construction, where nothing
// has checked them yet: every dependency endpoint, track member, decision
// target and sync source must name an existing node, ids must be unique,
// self-loops are defects and resource amounts must be non-negative.
type ReferenceValidator struct{}

// NewReferenceValidator creates the validator.
func NewReferenceValidator() ReferenceValidator { return ReferenceValidator{} }

func (ReferenceValidator) Name() string { return "references" }

func (ReferenceValidator) Validate(wf *workflow.Workflow) []Error {
	var errs []Error

	index := make(map[string]*workflow.Node, len(wf.Nodes))
	for _, node := range wf.Nodes {
		if _, dup := index[node.ID]; dup {
			errs = append(errs, Error{
				Code:    CodeDuplicateNodeID,
				Message: fmt.Sprintf("duplicate node id %q (node %q)", node.ID, node.Name),
				NodeID:  node.ID,
			})
			continue
		}
		index[node.ID] = node
	}

	trackIDs := make(map[string]bool, len(wf.Tracks))
	for _, track := range wf.Tracks {
		if trackIDs[track.ID] {
			errs = append(errs, Error{
				Code:    CodeDuplicateTrackID,
				Message: fmt.Sprintf("duplicate track id %q (track %q)", track.ID, track.Name),
				TrackID: track.ID,
			})
			continue
		}
		trackIDs[track.ID] = true

		for _, member := range track.Nodes {
			if _, ok := index[member]; !ok {
				errs = append(errs, Error{
					Code:    CodeDanglingReference,
					Message: fmt.Sprintf("track %q references unknown node id %q", track.Name, member),
					TrackID: track.ID,
				})
			}
		}
	}

	for _, dep := range wf.Dependencies {
		if _, ok := index[dep.SourceID]; !ok {
			errs = append(errs, Error{
				Code:          CodeDanglingReference,
				Message:       fmt.Sprintf("dependency %s references unknown source node id %q", dep.ID, dep.SourceID),
				DependencyIDs: []string{dep.ID},
			})
		}
		if _, ok := index[dep.TargetID]; !ok {
			errs = append(errs, Error{
				Code:          CodeDanglingReference,
				Message:       fmt.Sprintf("dependency %s references unknown target node id %q", dep.ID, dep.TargetID),
				DependencyIDs: []string{dep.ID},
			})
		}
		if dep.SourceID != "" && dep.SourceID == dep.TargetID {
			errs = append(errs, Error{
				Code:          CodeSelfDependency,
				Message:       fmt.Sprintf("dependency %s connects node %q to itself", dep.ID, nodeLabel(index, dep.SourceID)),
				NodeID:        dep.SourceID,
				DependencyIDs: []string{dep.ID},
			})
		}
	}

	for _, node := range wf.Nodes {
		if node.TrackID != "" && !trackIDs[node.TrackID] {
			errs = append(errs, Error{
				Code:    CodeDanglingReference,
				Message: fmt.Sprintf("node %q references unknown track id %q", node.Name, node.TrackID),
				NodeID:  node.ID,
			})
		}
		if node.Decision != nil {
			for _, branch := range node.Decision.Branches {
				if _, ok := index[branch.TargetID]; !ok {
					errs = append(errs, Error{
						Code:    CodeDanglingReference,
						Message: fmt.Sprintf("decision %q condition targets unknown node id %q", node.Name, branch.TargetID),
						NodeID:  node.ID,
					})
				}
			}
			if node.Decision.DefaultTargetID != "" {
				if _, ok := index[node.Decision.DefaultTargetID]; !ok {
					errs = append(errs, Error{
						Code:    CodeDanglingReference,
						Message: fmt.Sprintf("decision %q default targets unknown node id %q", node.Name, node.Decision.DefaultTargetID),
						NodeID:  node.ID,
					})
				}
			}
		}
		if node.Sync != nil {
			for _, source := range node.Sync.Sources {
				if _, ok := index[source]; !ok {
					errs = append(errs, Error{
						Code:    CodeDanglingReference,
						Message: fmt.Sprintf("sync point %q requires unknown source node id %q", node.Name, source),
						NodeID:  node.ID,
					})
				}
			}
		}
		for _, req := range node.Resources {
			if req.Amount < 0 {
				errs = append(errs, Error{
					Code:    CodeInvalidResource,
					Message: fmt.Sprintf("node %q has a negative %s requirement", node.Name, resourceLabel(req)),
					NodeID:  node.ID,
				})
			}
			if req.Kind == workflow.ResourceCustom && req.CustomKind == "" {
				errs = append(errs, Error{
					Code:    CodeInvalidResource,
					Message: fmt.Sprintf("node %q has a custom resource requirement without a resource name", node.Name),
					NodeID:  node.ID,
				})
			}
		}
	}

	return errs
}

func resourceLabel(req workflow.ResourceRequirement) string {
	if req.Kind == workflow.ResourceCustom && req.CustomKind != "" {
		return req.CustomKind
	}
	return string(req.Kind)
}
