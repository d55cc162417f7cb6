// Package flowgraph provides a top-level convenience entry point tying the
// DSL, validation and storage layers together.
//
// Usage:
//
//	import "github.com/flowgraph-io/flowgraph"
//
//	eng, err := flowgraph.New()
//	eng, err := flowgraph.New(flowgraph.WithStore(myStore), flowgraph.WithLogger(logger))
//
//	wf, err := eng.Parse(source)
//	result := eng.Validate(wf)
//	id, err := eng.Save(ctx, wf)
package flowgraph

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/flowgraph-io/flowgraph/internal/cache"
	"github.com/flowgraph-io/flowgraph/internal/metrics"
	"github.com/flowgraph-io/flowgraph/workflow"
	"github.com/flowgraph-io/flowgraph/workflow/dsl"
	"github.com/flowgraph-io/flowgraph/workflow/store"
	"github.com/flowgraph-io/flowgraph/workflow/validation"
)

// Version is the FlowGraph release version.
const Version = "0.3.0"

// Engine bundles parsing, validation, generation and persistence behind one
// handle. The zero set of options yields a fully working in-memory engine.
type Engine struct {
	store      store.Store
	cache      *cache.WorkflowCache
	collector  *metrics.Collector
	validation *validation.Service
	logger     *zap.Logger
	cacheTTL   time.Duration
}

// Option configures the engine created by [New].
type Option func(*Engine)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithStore sets the workflow store. Defaults to an in-memory store.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithCache enables read-through caching of loaded workflows.
func WithCache(c *cache.WorkflowCache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// WithMetrics enables prometheus metrics collection.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// WithValidation replaces the default validator registry.
func WithValidation(s *validation.Service) Option {
	return func(e *Engine) { e.validation = s }
}

// New creates an engine. Without options it parses, validates and stores
// workflows in memory with a no-op logger.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.store == nil {
		e.store = store.NewMemoryStore(e.logger)
	}
	if e.validation == nil {
		e.validation = validation.NewDefaultService().WithLogger(e.logger)
	}

	return e, nil
}

// Parse compiles DSL source into a workflow. Failures return a *dsl.Error
// with code and source location; no partial workflow is ever returned.
func (e *Engine) Parse(source string) (*workflow.Workflow, error) {
	started := time.Now()
	wf, err := dsl.Parse(source)

	if e.collector != nil {
		nodes := 0
		if wf != nil {
			nodes = len(wf.Nodes)
		}
		e.collector.RecordParse(parseStatus(err), time.Since(started), nodes)
	}

	if err != nil {
		e.logger.Debug("dsl parse failed", zap.Error(err))
		return nil, err
	}

	e.logger.Debug("dsl parse succeeded",
		zap.String("workflow", wf.Name),
		zap.Int("nodes", len(wf.Nodes)),
		zap.Int("dependencies", len(wf.Dependencies)),
	)
	return wf, nil
}

// Generate renders the workflow back to DSL text. Generation is total: it
// succeeds for any workflow value, valid or not.
func (e *Engine) Generate(wf *workflow.Workflow) string {
	started := time.Now()
	out := dsl.Generate(wf)
	if e.collector != nil {
		e.collector.RecordGeneration(time.Since(started))
	}
	return out
}

// Validate runs the structural validator registry over the workflow.
func (e *Engine) Validate(wf *workflow.Workflow) validation.Result {
	result := e.validation.Validate(wf)

	if e.collector != nil {
		codes := make([]string, len(result.Errors))
		for i, verr := range result.Errors {
			codes[i] = string(verr.Code)
		}
		e.collector.RecordValidation(result.Valid, codes)
	}
	return result
}

// Save persists the workflow and refreshes the cache entry.
func (e *Engine) Save(ctx context.Context, wf *workflow.Workflow) (string, error) {
	started := time.Now()
	id, err := e.store.Save(ctx, wf)
	if e.collector != nil {
		e.collector.RecordStoreOp("save", err, time.Since(started))
	}
	if err != nil {
		return "", err
	}

	if e.cache != nil {
		if cerr := e.cache.Put(ctx, wf, e.cacheTTL); cerr != nil {
			e.logger.Warn("cache refresh failed", zap.String("id", id), zap.Error(cerr))
		}
	}
	return id, nil
}

// Load fetches a workflow by id, consulting the cache first when one is
// configured.
func (e *Engine) Load(ctx context.Context, id string) (*workflow.Workflow, error) {
	if e.cache != nil {
		wf, err := e.cache.Get(ctx, id)
		if err == nil {
			if e.collector != nil {
				e.collector.RecordCacheHit()
			}
			return wf, nil
		}
		if !cache.IsMiss(err) {
			e.logger.Warn("cache lookup failed", zap.String("id", id), zap.Error(err))
		} else if e.collector != nil {
			e.collector.RecordCacheMiss()
		}
	}

	started := time.Now()
	wf, err := e.store.Get(ctx, id)
	if e.collector != nil {
		e.collector.RecordStoreOp("get", err, time.Since(started))
	}
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if cerr := e.cache.Put(ctx, wf, e.cacheTTL); cerr != nil {
			e.logger.Warn("cache fill failed", zap.String("id", id), zap.Error(cerr))
		}
	}
	return wf, nil
}

// List returns every stored workflow.
func (e *Engine) List(ctx context.Context) ([]*workflow.Workflow, error) {
	started := time.Now()
	flows, err := e.store.List(ctx)
	if e.collector != nil {
		e.collector.RecordStoreOp("list", err, time.Since(started))
	}
	return flows, err
}

// Delete removes a stored workflow and invalidates its cache entry.
func (e *Engine) Delete(ctx context.Context, id string) error {
	started := time.Now()
	err := e.store.Delete(ctx, id)
	if e.collector != nil {
		e.collector.RecordStoreOp("delete", err, time.Since(started))
	}
	if err != nil {
		return err
	}

	if e.cache != nil {
		if cerr := e.cache.Invalidate(ctx, id); cerr != nil {
			e.logger.Warn("cache invalidate failed", zap.String("id", id), zap.Error(cerr))
		}
	}
	return nil
}

// Close releases the store and cache.
func (e *Engine) Close() error {
	var errs []error
	if err := e.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// parseStatus maps a parse outcome onto a metrics label.
func parseStatus(err error) string {
	if err == nil {
		return "success"
	}
	var derr *dsl.Error
	if errors.As(err, &derr) {
		switch derr.Code {
		case dsl.ErrLexical:
			return "lexical_error"
		case dsl.ErrSyntax:
			return "syntax_error"
		case dsl.ErrUnresolvedReference:
			return "unresolved_reference"
		}
	}
	return "error"
}
