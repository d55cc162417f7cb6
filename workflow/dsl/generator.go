package dsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// Generator walks a resolved workflow graph and emits DSL text matching the
// parser's grammar, with node/track names in place of ids. Generation is
// total: missing optional fields are omitted rather than emitted empty, and
// an id that resolves to no node falls back to the raw id so the output is
// always produced.
//
// Comments and exact whitespace of an original source are not preserved;
// parse(Generate(w)) yields a graph isomorphic to w by name, type and
// properties.
type Generator struct {
	b     strings.Builder
	names map[string]string // node/track id -> name
}

// NewGenerator creates a generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate is a convenience wrapper around a fresh Generator.
func Generate(wf *workflow.Workflow) string {
	return NewGenerator().Generate(wf)
}

// Generate emits the DSL text for the workflow.
func (g *Generator) Generate(wf *workflow.Workflow) string {
	g.b.Reset()
	g.names = make(map[string]string, len(wf.Nodes)+len(wf.Tracks))
	for _, n := range wf.Nodes {
		g.names[n.ID] = n.Name
	}
	for _, t := range wf.Tracks {
		g.names[t.ID] = t.Name
	}

	fmt.Fprintf(&g.b, "workflow %s {\n", quote(wf.Name))
	if wf.Description != "" {
		fmt.Fprintf(&g.b, "  description %s\n", quote(wf.Description))
	}
	if wf.Version != "" {
		fmt.Fprintf(&g.b, "  version %s\n", quote(wf.Version))
	}
	g.b.WriteString("\n")

	for _, t := range wf.Tracks {
		g.writeTrack(t)
	}
	for _, n := range wf.Nodes {
		g.writeNode(n)
	}
	g.writeDependencies(wf)

	g.b.WriteString("}\n")
	return g.b.String()
}

// name translates an id back to a name, falling back to the id itself.
func (g *Generator) name(id string) string {
	if n, ok := g.names[id]; ok {
		return n
	}
	return id
}

func (g *Generator) writeTrack(t *workflow.Track) {
	if t.Description == "" {
		fmt.Fprintf(&g.b, "  track %s {}\n\n", quote(t.Name))
		return
	}
	fmt.Fprintf(&g.b, "  track %s {\n", quote(t.Name))
	fmt.Fprintf(&g.b, "    description %s\n", quote(t.Description))
	g.b.WriteString("  }\n\n")
}

func (g *Generator) writeNode(n *workflow.Node) {
	fmt.Fprintf(&g.b, "  %s %s {\n", string(n.Type), quote(n.Name))
	if n.Description != "" {
		fmt.Fprintf(&g.b, "    description %s\n", quote(n.Description))
	}
	if n.TrackID != "" {
		fmt.Fprintf(&g.b, "    track %s\n", quote(g.name(n.TrackID)))
	}

	switch {
	case n.Task != nil:
		if n.Task.TaskType != "" {
			fmt.Fprintf(&g.b, "    type %s\n", quote(n.Task.TaskType))
		}
		if len(n.Task.Parameters) > 0 {
			fmt.Fprintf(&g.b, "    parameters %s\n", formatValue(n.Task.Parameters))
		}
		if n.Task.Timeout > 0 {
			fmt.Fprintf(&g.b, "    timeout %s\n", formatNumber(n.Task.Timeout))
		}
	case n.Decision != nil:
		for _, branch := range n.Decision.Branches {
			fmt.Fprintf(&g.b, "    condition %s then %s\n",
				quote(formatCondition(branch.Condition)), quote(g.name(branch.TargetID)))
		}
		if n.Decision.DefaultTargetID != "" {
			fmt.Fprintf(&g.b, "    default %s\n", quote(g.name(n.Decision.DefaultTargetID)))
		}
	case n.Sync != nil:
		fmt.Fprintf(&g.b, "    wait_for_all %t\n", n.Sync.WaitForAll)
		if n.Sync.Timeout > 0 {
			fmt.Fprintf(&g.b, "    timeout %s\n", formatNumber(n.Sync.Timeout))
		}
	}

	if len(n.Resources) > 0 {
		g.b.WriteString("    resources {")
		for i, r := range n.Resources {
			if i > 0 {
				g.b.WriteString(", ")
			}
			kind := string(r.Kind)
			if r.Kind == workflow.ResourceCustom && r.CustomKind != "" {
				kind = r.CustomKind
			}
			fmt.Fprintf(&g.b, "%s: %s", kind, formatNumber(r.Amount))
		}
		g.b.WriteString("}\n")
	}
	g.b.WriteString("  }\n\n")
}

func (g *Generator) writeDependencies(wf *workflow.Workflow) {
	g.b.WriteString("  dependencies {\n")
	for _, d := range wf.Dependencies {
		fmt.Fprintf(&g.b, "    %s -> %s", quote(g.name(d.SourceID)), quote(g.name(d.TargetID)))
		if d.Type == workflow.DependencyConditional {
			if d.Condition != nil {
				fmt.Fprintf(&g.b, " when %s", quote(formatCondition(*d.Condition)))
			} else {
				g.b.WriteString(" default")
			}
		}
		g.b.WriteString("\n")
	}
	g.b.WriteString("  }\n")
}

// formatCondition renders a condition as the three-field expression string
// the parser accepts, using the operator's word form.
func formatCondition(c workflow.Condition) string {
	return fmt.Sprintf("%s %s %s", c.Key, string(c.Operator), formatConditionValue(c.Value))
}

func formatConditionValue(v any) string {
	switch val := v.(type) {
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case int:
		return strconv.Itoa(val)
	case string:
		return `"` + val + `"`
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatValue stringifies a parameters value recursively with the literal
// conventions the parser accepts: quoted strings, bracketed arrays, braced
// objects with sorted keys.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return `""`
	case string:
		return quote(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return quote(fmt.Sprintf("%v", val))
	}
}

// formatNumber renders a float without an exponent, which the lexer cannot
// read back.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// quote wraps a string in double quotes, re-encoding the escapes the lexer
// decodes.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, ch := range s {
		switch ch {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(ch)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
