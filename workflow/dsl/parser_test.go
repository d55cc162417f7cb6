package dsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph-io/flowgraph/workflow"
)

const pipelineSource = `
// Head comment
workflow "Data Pipeline" {
    description "Ingests and scores events"
    version "2.1"

    track "Ingestion" {
        description "Inbound lane"
    }
    track "Scoring" {}

    start "Begin" {}

    task "Fetch" {
        description "Pull raw events"
        track "Ingestion"
        type "http"
        parameters {
            url: "https://events.local/feed",
            batch: 500,
            retry: true,
            tags: ["raw", "hourly"],
            auth: {scheme: "bearer"}
        }
        timeout 45
        resources {cpu: 2, memory: 1024}
    }

    task "Score" {
        track "Scoring"
        type "python"
        resources {gpu: 1, licenses: 2}
    }

    decision "Gate" {
        condition "score >= 0.8" then "Publish"
        condition "flagged == true" then "Review"
        default "Finish"
    }

    task "Publish" { type "kafka" }
    task "Review" { type "manual" }

    sync "Join" {
        wait_for_all true
        timeout 120
    }

    end "Finish" {}

    dependencies {
        "Begin" -> "Fetch"
        "Fetch" -> "Score"
        "Score" -> "Gate"
        "Gate" -> "Publish" when "score >= 0.8"
        "Gate" -> "Review" when "flagged == true"
        "Gate" -> "Finish" default
        "Publish" -> "Join"
        "Review" -> "Join"
        "Join" -> "Finish"
    }
}
`

func mustParse(t *testing.T, source string) *workflow.Workflow {
	t.Helper()
	wf, err := Parse(source)
	require.NoError(t, err)
	return wf
}

func parseErr(t *testing.T, source string) *Error {
	t.Helper()
	wf, err := Parse(source)
	require.Nil(t, wf, "hard failures must not return a partial workflow")
	var derr *Error
	require.True(t, errors.As(err, &derr), "expected *dsl.Error, got %T", err)
	return derr
}

func TestParse_FullPipeline(t *testing.T) {
	wf := mustParse(t, pipelineSource)

	assert.Equal(t, "Data Pipeline", wf.Name)
	assert.Equal(t, "Ingests and scores events", wf.Description)
	assert.Equal(t, "2.1", wf.Version)
	assert.Len(t, wf.Nodes, 8)
	assert.Len(t, wf.Tracks, 2)
	assert.Len(t, wf.Dependencies, 9)
}

func TestParse_TaskProperties(t *testing.T) {
	wf := mustParse(t, pipelineSource)

	fetch, ok := wf.NodeByName("Fetch")
	require.True(t, ok)
	require.NotNil(t, fetch.Task)

	assert.Equal(t, "Pull raw events", fetch.Description)
	assert.Equal(t, "http", fetch.Task.TaskType)
	assert.Equal(t, 45.0, fetch.Task.Timeout)

	assert.Equal(t, map[string]any{
		"url":   "https://events.local/feed",
		"batch": 500.0,
		"retry": true,
		"tags":  []any{"raw", "hourly"},
		"auth":  map[string]any{"scheme": "bearer"},
	}, fetch.Task.Parameters)

	require.Len(t, fetch.Resources, 2)
	assert.Equal(t, workflow.ResourceCPU, fetch.Resources[0].Kind)
	assert.Equal(t, 2.0, fetch.Resources[0].Amount)
	assert.Equal(t, workflow.ResourceMemory, fetch.Resources[1].Kind)
	assert.Equal(t, 1024.0, fetch.Resources[1].Amount)
}

func TestParse_CustomResources(t *testing.T) {
	wf := mustParse(t, pipelineSource)

	score, ok := wf.NodeByName("Score")
	require.True(t, ok)
	require.Len(t, score.Resources, 2)

	assert.Equal(t, workflow.ResourceGPU, score.Resources[0].Kind)
	assert.Equal(t, workflow.ResourceCustom, score.Resources[1].Kind)
	assert.Equal(t, "licenses", score.Resources[1].CustomKind)
	assert.Equal(t, 2.0, score.Resources[1].Amount)
}

func TestParse_ResourcesWithoutCommas(t *testing.T) {
	wf := mustParse(t, `
workflow "W" {
    task "T" {
        resources {
            cpu: 1
            memory: 512
        }
    }
}`)
	task, _ := wf.NodeByName("T")
	require.Len(t, task.Resources, 2)
}

func TestParse_TrackMembership(t *testing.T) {
	wf := mustParse(t, pipelineSource)

	ingestion, ok := wf.TrackByName("Ingestion")
	require.True(t, ok)
	assert.Equal(t, "Inbound lane", ingestion.Description)

	fetch, _ := wf.NodeByName("Fetch")
	assert.Equal(t, ingestion.ID, fetch.TrackID)
	assert.Equal(t, []string{fetch.ID}, ingestion.Nodes)
}

func TestParse_DecisionBranches(t *testing.T) {
	wf := mustParse(t, pipelineSource)

	gate, ok := wf.NodeByName("Gate")
	require.True(t, ok)
	require.NotNil(t, gate.Decision)
	require.Len(t, gate.Decision.Branches, 2)

	publish, _ := wf.NodeByName("Publish")
	review, _ := wf.NodeByName("Review")
	finish, _ := wf.NodeByName("Finish")

	first := gate.Decision.Branches[0]
	assert.Equal(t, "score", first.Condition.Key)
	assert.Equal(t, workflow.OpGreaterOrEqual, first.Condition.Operator)
	assert.Equal(t, 0.8, first.Condition.Value)
	assert.Equal(t, publish.ID, first.TargetID)

	second := gate.Decision.Branches[1]
	assert.Equal(t, "flagged", second.Condition.Key)
	assert.Equal(t, workflow.OpEquals, second.Condition.Operator)
	assert.Equal(t, true, second.Condition.Value)
	assert.Equal(t, review.ID, second.TargetID)

	assert.Equal(t, finish.ID, gate.Decision.DefaultTargetID)
}

func TestParse_DependencyTypes(t *testing.T) {
	wf := mustParse(t, pipelineSource)

	begin, _ := wf.NodeByName("Begin")
	fetch, _ := wf.NodeByName("Fetch")
	gate, _ := wf.NodeByName("Gate")
	publish, _ := wf.NodeByName("Publish")
	finish, _ := wf.NodeByName("Finish")
	join, _ := wf.NodeByName("Join")

	byEndpoints := func(source, target string) *workflow.Dependency {
		for _, d := range wf.Dependencies {
			if d.SourceID == source && d.TargetID == target {
				return d
			}
		}
		return nil
	}

	plain := byEndpoints(begin.ID, fetch.ID)
	require.NotNil(t, plain)
	assert.Equal(t, workflow.DependencySequential, plain.Type)
	assert.Nil(t, plain.Condition)

	guarded := byEndpoints(gate.ID, publish.ID)
	require.NotNil(t, guarded)
	assert.Equal(t, workflow.DependencyConditional, guarded.Type)
	require.NotNil(t, guarded.Condition)
	assert.Equal(t, workflow.OpGreaterOrEqual, guarded.Condition.Operator)

	// default 分支：conditional 且无条件
	fallback := byEndpoints(gate.ID, finish.ID)
	require.NotNil(t, fallback)
	assert.Equal(t, workflow.DependencyConditional, fallback.Type)
	assert.Nil(t, fallback.Condition)

	// 指向 sync 节点的无守卫边被归类为 sync
	intoJoin := byEndpoints(publish.ID, join.ID)
	require.NotNil(t, intoJoin)
	assert.Equal(t, workflow.DependencySync, intoJoin.Type)
}

func TestParse_SyncNode(t *testing.T) {
	wf := mustParse(t, pipelineSource)

	join, ok := wf.NodeByName("Join")
	require.True(t, ok)
	require.NotNil(t, join.Sync)

	assert.True(t, join.Sync.WaitForAll)
	assert.Equal(t, 120.0, join.Sync.Timeout)

	publish, _ := wf.NodeByName("Publish")
	review, _ := wf.NodeByName("Review")
	assert.ElementsMatch(t, []string{publish.ID, review.ID}, join.Sync.Sources)
}

func TestParse_ForwardReferences(t *testing.T) {
	// 依赖、轨道与分支目标全部先于声明引用
	wf := mustParse(t, `
workflow "Forward" {
    dependencies {
        "A" -> "B"
    }
    task "A" { track "Later" }
    end "B" {}
    start "S" {}
    track "Later" {}
}`)

	a, _ := wf.NodeByName("A")
	b, _ := wf.NodeByName("B")
	later, _ := wf.TrackByName("Later")

	assert.Equal(t, later.ID, a.TrackID)
	require.Len(t, wf.Dependencies, 1)
	assert.Equal(t, a.ID, wf.Dependencies[0].SourceID)
	assert.Equal(t, b.ID, wf.Dependencies[0].TargetID)
}

func TestParse_DuplicateNamesResolveToFirst(t *testing.T) {
	wf := mustParse(t, `
workflow "Dupes" {
    start "S" {}
    task "Worker" { type "first" }
    task "Worker" { type "second" }
    end "E" {}
    dependencies {
        "S" -> "Worker"
    }
}`)

	require.Len(t, wf.Dependencies, 1)
	target, ok := wf.Node(wf.Dependencies[0].TargetID)
	require.True(t, ok)
	assert.Equal(t, "first", target.Task.TaskType)
}

func TestParse_CommentsAnywhere(t *testing.T) {
	wf := mustParse(t, `
// file heading
workflow "Commented" { // trailing
    /* block */
    start "S" { /* inside node */ }
    end "E" {}
    dependencies {
        // between edges
        "S" -> "E"
    }
}`)
	assert.Len(t, wf.Nodes, 2)
	assert.Len(t, wf.Dependencies, 1)
}

func TestParse_WordOperators(t *testing.T) {
	wf := mustParse(t, `
workflow "Ops" {
    decision "D" {
        condition "name contains foo" then "T"
        condition "path starts_with /tmp" then "T"
        condition "msg regex ^err" then "T"
    }
    task "T" {}
}`)

	d, _ := wf.NodeByName("D")
	require.Len(t, d.Decision.Branches, 3)
	assert.Equal(t, workflow.OpContains, d.Decision.Branches[0].Condition.Operator)
	assert.Equal(t, workflow.OpStartsWith, d.Decision.Branches[1].Condition.Operator)
	assert.Equal(t, workflow.OpRegex, d.Decision.Branches[2].Condition.Operator)
	assert.Equal(t, "^err", d.Decision.Branches[2].Condition.Value)
}

func TestParse_ConditionValueSniffing(t *testing.T) {
	wf := mustParse(t, `
workflow "Sniff" {
    decision "D" {
        condition "a == 1.5" then "T"
        condition "b == false" then "T"
        condition "c == \"quoted\"" then "T"
        condition "d == bare" then "T"
    }
    task "T" {}
}`)

	d, _ := wf.NodeByName("D")
	values := make([]any, len(d.Decision.Branches))
	for i, b := range d.Decision.Branches {
		values[i] = b.Condition.Value
	}
	assert.Equal(t, []any{1.5, false, "quoted", "bare"}, values)
}

// --- 错误路径 ---

func TestParse_SyntaxErrorLocation(t *testing.T) {
	derr := parseErr(t, "workflow \"X\" {\n  task {\n}")
	assert.Equal(t, ErrSyntax, derr.Code)
	assert.Equal(t, 2, derr.Line)
	assert.Equal(t, 8, derr.Column)
	assert.Contains(t, derr.Message, "expected string")
}

func TestParse_MissingWorkflowKeyword(t *testing.T) {
	derr := parseErr(t, `task "T" {}`)
	assert.Equal(t, ErrSyntax, derr.Code)
}

func TestParse_TrailingInput(t *testing.T) {
	derr := parseErr(t, `workflow "X" {} extra`)
	assert.Equal(t, ErrSyntax, derr.Code)
	assert.Contains(t, derr.Message, "expected end of input")
}

func TestParse_PropertyOnWrongNodeType(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			"type on start",
			`workflow "X" { start "S" { type "http" } }`,
			"'type' is only valid on task nodes",
		},
		{
			"parameters on decision",
			`workflow "X" { decision "D" { parameters {} } }`,
			"'parameters' is only valid on task nodes",
		},
		{
			"condition on task",
			`workflow "X" { task "T" { condition "a == 1" then "T" } }`,
			"'condition' is only valid on decision nodes",
		},
		{
			"wait_for_all on task",
			`workflow "X" { task "T" { wait_for_all true } }`,
			"'wait_for_all' is only valid on sync nodes",
		},
		{
			"timeout on end",
			`workflow "X" { end "E" { timeout 5 } }`,
			"'timeout' is only valid on task and sync nodes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derr := parseErr(t, tt.source)
			assert.Equal(t, ErrSyntax, derr.Code)
			assert.Contains(t, derr.Message, tt.want)
		})
	}
}

func TestParse_MalformedCondition(t *testing.T) {
	derr := parseErr(t, `workflow "X" { decision "D" { condition "too few" then "D" } }`)
	assert.Equal(t, ErrSyntax, derr.Code)
	assert.Contains(t, derr.Message, "<key> <operator> <value>")

	derr = parseErr(t, `workflow "X" { decision "D" { condition "a approx 1" then "D" } }`)
	assert.Contains(t, derr.Message, "unknown condition operator")
}

func TestParse_UnresolvedReferences(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			"unknown dependency target",
			`workflow "X" { start "S" {} dependencies { "S" -> "Ghost" } }`,
		},
		{
			"unknown track",
			`workflow "X" { task "T" { track "Ghost" } }`,
		},
		{
			"unknown branch target",
			`workflow "X" { decision "D" { condition "a == 1" then "Ghost" } }`,
		},
		{
			"unknown default target",
			`workflow "X" { decision "D" { default "Ghost" } }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derr := parseErr(t, tt.source)
			assert.Equal(t, ErrUnresolvedReference, derr.Code)
			assert.Contains(t, derr.Message, "Ghost")
		})
	}
}

func TestParse_LexicalErrorPropagates(t *testing.T) {
	derr := parseErr(t, "workflow \"X\" {\n  # nope\n}")
	assert.Equal(t, ErrLexical, derr.Code)
	assert.Equal(t, 2, derr.Line)
	assert.Equal(t, 3, derr.Column)
}

func TestParser_Reuse(t *testing.T) {
	p := NewParser()

	_, err := p.Parse(`workflow "First" { start "S" {} }`)
	require.NoError(t, err)

	// 错误解析后同一实例可复用
	_, err = p.Parse(`workflow "Broken" {`)
	require.Error(t, err)

	wf, err := p.Parse(`workflow "Second" { end "E" {} }`)
	require.NoError(t, err)
	assert.Equal(t, "Second", wf.Name)
}
