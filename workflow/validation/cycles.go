package validation

import (
	"fmt"
	"strings"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// CycleValidator detects cycles in the dependency relation with a
// depth-first traversal and reconstructs the offending path for each one.
// Every edge counts regardless of type: a conditional edge picks one branch
// at runtime, but the graph shape itself must stay acyclic.
type CycleValidator struct{}

// NewCycleValidator creates the validator.
func NewCycleValidator() CycleValidator { return CycleValidator{} }

func (CycleValidator) Name() string { return "cycles" }

func (CycleValidator) Validate(wf *workflow.Workflow) []Error {
	index := wf.NodeIndex()
	adjacency := make(map[string][]*workflow.Dependency, len(wf.Nodes))
	for _, dep := range wf.Dependencies {
		adjacency[dep.SourceID] = append(adjacency[dep.SourceID], dep)
	}

	visited := make(map[string]bool, len(wf.Nodes))
	onStack := make(map[string]bool, len(wf.Nodes))
	var path []string
	var pathEdges []*workflow.Dependency
	var errs []Error

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, dep := range adjacency[id] {
			target := dep.TargetID
			if _, ok := index[target]; !ok {
				// Dangling edge; the reference validator reports it.
				continue
			}
			if !visited[target] {
				pathEdges = append(pathEdges, dep)
				dfs(target)
				pathEdges = pathEdges[:len(pathEdges)-1]
			} else if onStack[target] {
				// Back edge: the cycle runs from target's position on the
				// stack up to the current node, closed by dep.
				errs = append(errs, cycleError(wf, index, path, pathEdges, dep))
			}
		}

		onStack[id] = false
		path = path[:len(path)-1]
	}

	for _, node := range wf.Nodes {
		if !visited[node.ID] {
			dfs(node.ID)
		}
	}
	return errs
}

// cycleError builds one circular_dependency error from the recursion stack
// and the back edge that closed the cycle.
func cycleError(wf *workflow.Workflow, index map[string]*workflow.Node,
	path []string, pathEdges []*workflow.Dependency, closing *workflow.Dependency) Error {

	start := 0
	for i, id := range path {
		if id == closing.TargetID {
			start = i
			break
		}
	}
	cycle := path[start:]

	names := make([]string, 0, len(cycle)+1)
	for _, id := range cycle {
		names = append(names, nodeLabel(index, id))
	}
	names = append(names, nodeLabel(index, closing.TargetID))

	edges := append([]*workflow.Dependency{}, pathEdges[len(pathEdges)-(len(cycle)-1):]...)
	edges = append(edges, closing)

	edgeTexts := make([]string, len(edges))
	depIDs := make([]string, len(edges))
	for i, e := range edges {
		edgeTexts[i] = fmt.Sprintf("%s->%s", nodeLabel(index, e.SourceID), nodeLabel(index, e.TargetID))
		depIDs[i] = e.ID
	}

	return Error{
		Code: CodeCircularDependency,
		Message: fmt.Sprintf("circular dependency detected: %s (edges %s)",
			strings.Join(names, " -> "), strings.Join(edgeTexts, ", ")),
		NodeID:        closing.TargetID,
		DependencyIDs: depIDs,
	}
}

func nodeLabel(index map[string]*workflow.Node, id string) string {
	if n, ok := index[id]; ok && n.Name != "" {
		return n.Name
	}
	return id
}
