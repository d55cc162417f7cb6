package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interchangeFixture() *Workflow {
	wf := New("interchange")
	wf.Description = "serialization fixture"
	wf.Version = "3.0"
	wf.Metadata = map[string]any{"owner": "platform"}

	wf.AddNode(&Node{ID: "s", Name: "Begin", Type: NodeTypeStart})
	wf.AddNode(&Node{
		ID: "t", Name: "Crunch", Type: NodeTypeTask,
		Task: &TaskConfig{
			TaskType:   "python",
			Parameters: map[string]any{"script": "crunch.py", "workers": 4.0},
			Timeout:    60,
			Retries:    2,
		},
		Resources: []ResourceRequirement{{Kind: ResourceCPU, Amount: 2}},
	})
	wf.AddNode(&Node{
		ID: "d", Name: "Gate", Type: NodeTypeDecision,
		Decision: &DecisionConfig{
			Branches: []DecisionBranch{{
				Condition: Condition{Key: "rows", Operator: OpGreaterThan, Value: 0.0},
				TargetID:  "e",
			}},
			DefaultTargetID: "e",
		},
	})
	wf.AddNode(&Node{
		ID: "j", Name: "Join", Type: NodeTypeSync,
		Sync: &SyncConfig{Sources: []string{"t"}, WaitForAll: true, Timeout: 30},
	})
	wf.AddNode(&Node{ID: "e", Name: "Finish", Type: NodeTypeEnd})

	wf.AddDependency(&Dependency{ID: "d1", SourceID: "s", TargetID: "t", Type: DependencySequential})
	wf.AddDependency(&Dependency{
		ID: "d2", SourceID: "t", TargetID: "d", Type: DependencyConditional,
		Condition: &Condition{Key: "ok", Operator: OpEquals, Value: true},
	})
	wf.AddDependency(&Dependency{ID: "d3", SourceID: "t", TargetID: "j", Type: DependencySync})

	wf.AddTrack(&Track{ID: "tr", Name: "Main", Description: "main lane", Nodes: []string{"t"}})
	wf.Nodes[1].TrackID = "tr"
	return wf
}

func TestToDefinition_KeysById(t *testing.T) {
	wf := interchangeFixture()
	def := wf.ToDefinition()

	assert.Equal(t, wf.ID, def.ID)
	require.Len(t, def.Nodes, 5)
	assert.Equal(t, "Crunch", def.Nodes["t"].Name)
	require.Len(t, def.Tracks, 1)
	assert.Equal(t, "Main", def.Tracks["tr"].Name)

	// 镜像持有克隆，修改镜像不影响原图
	def.Nodes["t"].Name = "mutated"
	assert.Equal(t, "Crunch", wf.Nodes[1].Name)
}

func TestFromDefinition_DeterministicOrder(t *testing.T) {
	wf := interchangeFixture()
	def := wf.ToDefinition()

	first := FromDefinition(def)
	second := FromDefinition(def)
	assert.Equal(t, first, second)

	// 顺序按名称重建
	names := make([]string, len(first.Nodes))
	for i, n := range first.Nodes {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"Begin", "Crunch", "Finish", "Gate", "Join"}, names)
}

func TestJSONRoundTrip(t *testing.T) {
	wf := interchangeFixture()

	doc, err := wf.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, wf.ToDefinition(), restored.ToDefinition())

	// 条件右值在 JSON 往返后保持类型
	gate, ok := restored.NodeByName("Gate")
	require.True(t, ok)
	assert.Equal(t, 0.0, gate.Decision.Branches[0].Condition.Value)

	crunch, _ := restored.NodeByName("Crunch")
	assert.Equal(t, 4.0, crunch.Task.Parameters["workers"])
	assert.Equal(t, 2, crunch.Task.Retries)
}

func TestYAMLRoundTrip(t *testing.T) {
	wf := interchangeFixture()

	doc, err := wf.ToYAML()
	require.NoError(t, err)

	restored, err := FromYAML([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, wf.Name, restored.Name)
	assert.Len(t, restored.Nodes, len(wf.Nodes))
	assert.Len(t, restored.Dependencies, len(wf.Dependencies))

	join, ok := restored.NodeByName("Join")
	require.True(t, ok)
	require.NotNil(t, join.Sync)
	assert.True(t, join.Sync.WaitForAll)
	assert.Equal(t, []string{"t"}, join.Sync.Sources)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestJSON_OmitsEmptyVariantConfigs(t *testing.T) {
	wf := New("lean")
	wf.AddNode(&Node{ID: "s", Name: "Begin", Type: NodeTypeStart})

	doc, err := wf.ToJSON()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	nodes := raw["nodes"].(map[string]any)
	begin := nodes["s"].(map[string]any)

	_, hasTask := begin["task"]
	assert.False(t, hasTask, "nil variant configs must not appear in the document")
}

func TestLoadFiles(t *testing.T) {
	wf := interchangeFixture()
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "wf.json")
	jsonDoc, err := wf.ToJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonDoc), 0o600))

	fromJSON, err := LoadJSONFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, wf.Name, fromJSON.Name)

	yamlPath := filepath.Join(dir, "wf.yaml")
	yamlDoc, err := wf.ToYAML()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0o600))

	fromYAML, err := LoadYAMLFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, wf.Name, fromYAML.Name)

	_, err = LoadJSONFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestSerializerRegistry(t *testing.T) {
	reg := NewSerializerRegistry()
	assert.Equal(t, []string{"json", "yaml"}, reg.Formats())

	js, ok := reg.Lookup("json")
	require.True(t, ok)
	assert.Equal(t, "json", js.Format())

	_, ok = reg.Lookup("toml")
	assert.False(t, ok)

	wf := interchangeFixture()
	data, err := js.Marshal(wf)
	require.NoError(t, err)
	restored, err := js.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, wf.ToDefinition(), restored.ToDefinition())
}

type upperJSONSerializer struct{ JSONSerializer }

func (upperJSONSerializer) Format() string { return "json" }

func TestSerializerRegistry_LaterRegistrationShadows(t *testing.T) {
	reg := NewSerializerRegistry()
	custom := upperJSONSerializer{}
	reg.Register(custom)

	got, ok := reg.Lookup("json")
	require.True(t, ok)
	assert.Equal(t, custom, got)

	// Formats 去重，仍只报告一次
	assert.Equal(t, []string{"json", "yaml"}, reg.Formats())
}
