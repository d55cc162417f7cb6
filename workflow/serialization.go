package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Definition is the serializable interchange mirror of a Workflow. Node and
// track collections are keyed by id, which is what visual designers and the
// CRUD store exchange. Definition carries no behavior; converting back to a
// Workflow re-checks nothing — run the validators on the result.
type Definition struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Version      string            `json:"version,omitempty" yaml:"version,omitempty"`
	Nodes        map[string]*Node  `json:"nodes" yaml:"nodes"`
	Dependencies []*Dependency     `json:"dependencies" yaml:"dependencies"`
	Tracks       map[string]*Track `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Metadata     map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ToDefinition converts the workflow into its interchange mirror.
func (w *Workflow) ToDefinition() *Definition {
	def := &Definition{
		ID:           w.ID,
		Name:         w.Name,
		Description:  w.Description,
		Version:      w.Version,
		Nodes:        make(map[string]*Node, len(w.Nodes)),
		Dependencies: make([]*Dependency, 0, len(w.Dependencies)),
		Tracks:       make(map[string]*Track, len(w.Tracks)),
		Metadata:     cloneMap(w.Metadata),
	}
	for _, n := range w.Nodes {
		def.Nodes[n.ID] = n.Clone()
	}
	for _, d := range w.Dependencies {
		def.Dependencies = append(def.Dependencies, d.Clone())
	}
	for _, t := range w.Tracks {
		def.Tracks[t.ID] = t.Clone()
	}
	return def
}

// FromDefinition rebuilds a Workflow from its interchange mirror. The mirror
// keys collections by id, so the original document order is gone; nodes and
// tracks are ordered by name (id as tiebreaker) to keep the result
// deterministic.
func FromDefinition(def *Definition) *Workflow {
	w := &Workflow{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Version:     def.Version,
		Metadata:    cloneMap(def.Metadata),
	}
	for _, n := range def.Nodes {
		w.Nodes = append(w.Nodes, n.Clone())
	}
	sort.Slice(w.Nodes, func(i, j int) bool {
		if w.Nodes[i].Name != w.Nodes[j].Name {
			return w.Nodes[i].Name < w.Nodes[j].Name
		}
		return w.Nodes[i].ID < w.Nodes[j].ID
	})
	for _, d := range def.Dependencies {
		w.Dependencies = append(w.Dependencies, d.Clone())
	}
	for _, t := range def.Tracks {
		w.Tracks = append(w.Tracks, t.Clone())
	}
	sort.Slice(w.Tracks, func(i, j int) bool {
		if w.Tracks[i].Name != w.Tracks[j].Name {
			return w.Tracks[i].Name < w.Tracks[j].Name
		}
		return w.Tracks[i].ID < w.Tracks[j].ID
	})
	return w
}

// ToJSON converts the workflow to an indented JSON interchange document.
func (w *Workflow) ToJSON() (string, error) {
	data, err := json.MarshalIndent(w.ToDefinition(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(data), nil
}

// ToYAML converts the workflow to a YAML interchange document.
func (w *Workflow) ToYAML() (string, error) {
	data, err := yaml.Marshal(w.ToDefinition())
	if err != nil {
		return "", fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return string(data), nil
}

// FromJSON creates a Workflow from a JSON interchange document.
func FromJSON(data []byte) (*Workflow, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal from JSON: %w", err)
	}
	return FromDefinition(&def), nil
}

// FromYAML creates a Workflow from a YAML interchange document.
func FromYAML(data []byte) (*Workflow, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}
	return FromDefinition(&def), nil
}

// LoadJSONFile loads a Workflow from a JSON interchange file.
func LoadJSONFile(filename string) (*Workflow, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return FromJSON(data)
}

// LoadYAMLFile loads a Workflow from a YAML interchange file.
func LoadYAMLFile(filename string) (*Workflow, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return FromYAML(data)
}

// Serializer converts workflows to and from one interchange format.
type Serializer interface {
	// Format returns the format name, e.g. "json"
	Format() string
	// Marshal serializes a workflow
	Marshal(w *Workflow) ([]byte, error)
	// Unmarshal deserializes a workflow
	Unmarshal(data []byte) (*Workflow, error)
}

// JSONSerializer serializes workflows as JSON interchange documents.
type JSONSerializer struct{}

func (JSONSerializer) Format() string { return "json" }

func (JSONSerializer) Marshal(w *Workflow) ([]byte, error) {
	s, err := w.ToJSON()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (JSONSerializer) Unmarshal(data []byte) (*Workflow, error) {
	return FromJSON(data)
}

// YAMLSerializer serializes workflows as YAML interchange documents.
type YAMLSerializer struct{}

func (YAMLSerializer) Format() string { return "yaml" }

func (YAMLSerializer) Marshal(w *Workflow) ([]byte, error) {
	s, err := w.ToYAML()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (YAMLSerializer) Unmarshal(data []byte) (*Workflow, error) {
	return FromYAML(data)
}

// SerializerRegistry is an ordered list of serializers looked up by format
// name. The zero value is usable; NewSerializerRegistry pre-registers the
// built-in JSON and YAML serializers.
type SerializerRegistry struct {
	serializers []Serializer
}

// NewSerializerRegistry creates a registry with the built-in serializers.
func NewSerializerRegistry() *SerializerRegistry {
	r := &SerializerRegistry{}
	r.Register(JSONSerializer{})
	r.Register(YAMLSerializer{})
	return r
}

// Register appends a serializer. A serializer registered later with an
// already-known format shadows the earlier one.
func (r *SerializerRegistry) Register(s Serializer) {
	r.serializers = append(r.serializers, s)
}

// Lookup returns the serializer for the given format.
func (r *SerializerRegistry) Lookup(format string) (Serializer, bool) {
	for i := len(r.serializers) - 1; i >= 0; i-- {
		if r.serializers[i].Format() == format {
			return r.serializers[i], true
		}
	}
	return nil, false
}

// Formats lists the registered format names in registration order.
func (r *SerializerRegistry) Formats() []string {
	seen := make(map[string]bool, len(r.serializers))
	var out []string
	for _, s := range r.serializers {
		if !seen[s.Format()] {
			seen[s.Format()] = true
			out = append(out, s.Format())
		}
	}
	return out
}
