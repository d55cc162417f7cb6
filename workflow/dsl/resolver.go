package dsl

import (
	"github.com/flowgraph-io/flowgraph/workflow"
)

// resolve binds every pending name reference to the id of the node/track
// with that name. It runs after the whole document has been parsed, so
// forward references are available. Duplicate names resolve to the first
// match in document order. It also classifies dependency types: an
// unguarded edge into a sync node becomes a sync edge, and every edge into
// a sync node registers its source on the sync config.
func (p *Parser) resolve(wf *workflow.Workflow) error {
	// Track membership. Iterate nodes in document order so track member
	// lists stay ordered even though the pending map is unordered.
	for _, node := range wf.Nodes {
		trackName, ok := p.pending.nodeTracks[node.ID]
		if !ok {
			continue
		}
		track, ok := wf.TrackByName(trackName)
		if !ok {
			return resolveErrorf("node %q: unknown track %q", node.Name, trackName)
		}
		node.TrackID = track.ID
		track.Nodes = append(track.Nodes, node.ID)
	}

	// Dependency endpoints.
	for _, ref := range p.pending.dependencies {
		dep := findDependency(wf, ref.depID)
		source, ok := wf.NodeByName(ref.sourceName)
		if !ok {
			return resolveErrorf("dependency %q -> %q: unknown source node %q",
				ref.sourceName, ref.targetName, ref.sourceName)
		}
		target, ok := wf.NodeByName(ref.targetName)
		if !ok {
			return resolveErrorf("dependency %q -> %q: unknown target node %q",
				ref.sourceName, ref.targetName, ref.targetName)
		}
		dep.SourceID = source.ID
		dep.TargetID = target.ID

		if target.Sync != nil {
			if dep.Type == workflow.DependencySequential {
				dep.Type = workflow.DependencySync
			}
			if !containsString(target.Sync.Sources, source.ID) {
				target.Sync.Sources = append(target.Sync.Sources, source.ID)
			}
		}
	}

	// Decision condition targets.
	for _, ref := range p.pending.branchTargets {
		node, _ := wf.Node(ref.nodeID)
		target, ok := wf.NodeByName(ref.targetName)
		if !ok {
			return resolveErrorf("decision %q: unknown condition target %q", node.Name, ref.targetName)
		}
		node.Decision.Branches[ref.branch].TargetID = target.ID
	}

	// Decision default targets.
	for nodeID, targetName := range p.pending.decisionDefaults {
		node, _ := wf.Node(nodeID)
		target, ok := wf.NodeByName(targetName)
		if !ok {
			return resolveErrorf("decision %q: unknown default target %q", node.Name, targetName)
		}
		node.Decision.DefaultTargetID = target.ID
	}

	return nil
}

func findDependency(wf *workflow.Workflow, depID string) *workflow.Dependency {
	for _, d := range wf.Dependencies {
		if d.ID == depID {
			return d
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
