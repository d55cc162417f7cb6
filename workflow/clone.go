package workflow

// Clone returns a deep copy of the workflow. The copy shares no mutable
// state with the original, so both may be mutated independently.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	out := &Workflow{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Version:     w.Version,
		Metadata:    cloneMap(w.Metadata),
	}
	if w.Nodes != nil {
		out.Nodes = make([]*Node, len(w.Nodes))
		for i, n := range w.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if w.Dependencies != nil {
		out.Dependencies = make([]*Dependency, len(w.Dependencies))
		for i, d := range w.Dependencies {
			out.Dependencies[i] = d.Clone()
		}
	}
	if w.Tracks != nil {
		out.Tracks = make([]*Track, len(w.Tracks))
		for i, t := range w.Tracks {
			out.Tracks[i] = t.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Resources = append([]ResourceRequirement(nil), n.Resources...)
	out.Metadata = cloneMap(n.Metadata)
	if n.Task != nil {
		task := *n.Task
		task.Parameters = cloneMap(n.Task.Parameters)
		out.Task = &task
	}
	if n.Decision != nil {
		dec := *n.Decision
		dec.Branches = append([]DecisionBranch(nil), n.Decision.Branches...)
		out.Decision = &dec
	}
	if n.Sync != nil {
		sc := *n.Sync
		sc.Sources = append([]string(nil), n.Sync.Sources...)
		out.Sync = &sc
	}
	return &out
}

// Clone returns a deep copy of the dependency.
func (d *Dependency) Clone() *Dependency {
	if d == nil {
		return nil
	}
	out := *d
	if d.Condition != nil {
		cond := *d.Condition
		out.Condition = &cond
	}
	return &out
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	out := *t
	out.Nodes = append([]string(nil), t.Nodes...)
	return &out
}

// cloneMap deep-copies a metadata/parameter map. Nested maps and slices are
// copied; scalar values are shared (they are immutable by convention).
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
