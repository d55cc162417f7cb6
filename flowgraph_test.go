package flowgraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowgraph-io/flowgraph/internal/cache"
	"github.com/flowgraph-io/flowgraph/workflow"
	"github.com/flowgraph-io/flowgraph/workflow/dsl"
	"github.com/flowgraph-io/flowgraph/workflow/store"
	"github.com/flowgraph-io/flowgraph/workflow/validation"
)

const orderPipeline = `
workflow "Order Pipeline" {
    description "Processes incoming orders"
    version "1.0"

    track "Main" {
        description "Primary lane"
    }

    start "Begin" {}

    task "Charge" {
        track "Main"
        type "http"
        parameters {
            url: "https://billing.local/charge",
            attempts: 3
        }
        timeout 30
        resources {cpu: 1, memory: 256}
    }

    decision "Check" {
        condition "amount > 100" then "Review"
        default "Finish"
    }

    task "Review" {
        type "manual"
    }

    end "Finish" {}

    dependencies {
        "Begin" -> "Charge"
        "Charge" -> "Check"
        "Check" -> "Review" when "amount > 100"
        "Check" -> "Finish" default
        "Review" -> "Finish"
    }
}
`

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestNew_Defaults(t *testing.T) {
	eng := newTestEngine(t)

	assert.NotNil(t, eng.store)
	assert.NotNil(t, eng.validation)
	assert.NotNil(t, eng.logger)
	assert.Nil(t, eng.cache)
}

func TestEngine_Parse(t *testing.T) {
	eng := newTestEngine(t)

	wf, err := eng.Parse(orderPipeline)
	require.NoError(t, err)

	assert.Equal(t, "Order Pipeline", wf.Name)
	assert.Equal(t, "1.0", wf.Version)
	assert.Len(t, wf.Nodes, 5)
	assert.Len(t, wf.Dependencies, 5)
	assert.Len(t, wf.Tracks, 1)

	charge, ok := wf.NodeByName("Charge")
	require.True(t, ok)
	require.NotNil(t, charge.Task)
	assert.Equal(t, "http", charge.Task.TaskType)
	assert.Equal(t, 30.0, charge.Task.Timeout)

	check, ok := wf.NodeByName("Check")
	require.True(t, ok)
	require.NotNil(t, check.Decision)
	require.Len(t, check.Decision.Branches, 1)

	review, ok := wf.NodeByName("Review")
	require.True(t, ok)
	assert.Equal(t, review.ID, check.Decision.Branches[0].TargetID)
}

func TestEngine_ParseError(t *testing.T) {
	eng := newTestEngine(t)

	wf, err := eng.Parse(`workflow "Broken" { start }`)
	assert.Nil(t, wf)
	require.Error(t, err)

	var derr *dsl.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, dsl.ErrSyntax, derr.Code)
}

func TestEngine_GenerateRoundTrip(t *testing.T) {
	eng := newTestEngine(t)

	wf, err := eng.Parse(orderPipeline)
	require.NoError(t, err)

	source := eng.Generate(wf)
	reparsed, err := eng.Parse(source)
	require.NoError(t, err, "generated DSL must parse:\n%s", source)

	assert.Equal(t, wf.Name, reparsed.Name)
	assert.Len(t, reparsed.Nodes, len(wf.Nodes))
	assert.Len(t, reparsed.Dependencies, len(wf.Dependencies))
}

func TestEngine_Validate(t *testing.T) {
	eng := newTestEngine(t)

	wf, err := eng.Parse(orderPipeline)
	require.NoError(t, err)

	result := eng.Validate(wf)
	assert.True(t, result.Valid, "errors: %v", result.Errors)

	// 删除起始节点后应产生结构错误
	begin, ok := wf.NodeByName("Begin")
	require.True(t, ok)
	wf.RemoveNode(begin.ID)

	result = eng.Validate(wf)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.ErrorsByCode(validation.CodeMissingStartNode))
}

func TestEngine_SaveLoadListDelete(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	wf, err := eng.Parse(orderPipeline)
	require.NoError(t, err)

	id, err := eng.Save(ctx, wf)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := eng.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, wf.Name, loaded.Name)

	flows, err := eng.List(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 1)

	require.NoError(t, eng.Delete(ctx, id))

	_, err = eng.Load(ctx, id)
	assert.True(t, store.IsNotFound(err))
}

func TestEngine_LoadWithCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	wfCache, err := cache.New(cache.Config{Addr: mr.Addr(), DefaultTTL: time.Minute}, zap.NewNop())
	require.NoError(t, err)

	eng := newTestEngine(t, WithCache(wfCache, time.Minute))
	ctx := context.Background()

	wf, err := eng.Parse(orderPipeline)
	require.NoError(t, err)

	id, err := eng.Save(ctx, wf)
	require.NoError(t, err)

	// 保存后缓存应已填充，直接从缓存命中
	loaded, err := eng.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, wf.Name, loaded.Name)

	// 删除后缓存同步失效
	require.NoError(t, eng.Delete(ctx, id))
	_, err = eng.Load(ctx, id)
	assert.True(t, store.IsNotFound(err))
}

func TestEngine_CustomValidation(t *testing.T) {
	svc := validation.NewService(validation.NewStructureValidator())
	eng := newTestEngine(t, WithValidation(svc))

	// 只注册结构校验器时，孤立节点不再被报告
	wf := workflow.New("loose")
	wf.AddNode(&workflow.Node{Name: "Begin", Type: workflow.NodeTypeStart})
	wf.AddNode(&workflow.Node{Name: "Floating", Type: workflow.NodeTypeTask, Task: &workflow.TaskConfig{}})
	wf.AddNode(&workflow.Node{Name: "Finish", Type: workflow.NodeTypeEnd})

	result := eng.Validate(wf)
	assert.True(t, result.Valid)
}
