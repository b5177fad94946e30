package bundler

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"

	"github.com/solfleet/bundle-engine/internal/bundle"
	"github.com/solfleet/bundle-engine/internal/metrics"
)

const DefaultMaxConcurrentBundles = 16

// Engine runs independent bundle executions concurrently on a bounded worker
// pool. Each SubmitBundle call returns a task future; executions never share
// state beyond the metrics registry.
type Engine struct {
	orchestrator *Orchestrator
	pool         pond.ResultPool[ExecutionResult]
}

// NewEngine builds an orchestrator from cfg and wraps it in a result pool of
// at most maxConcurrent simultaneous executions (0 means the default bound).
func NewEngine(cfg Config, maxConcurrent int) (*Engine, error) {
	orchestrator, err := NewOrchestrator(cfg)
	if err != nil {
		return nil, fmt.Errorf("building orchestrator: %w", err)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBundles
	}
	pool := pond.NewResultPool[ExecutionResult](maxConcurrent)
	orchestrator.metricsService.RegisterPoolMetrics("bundler_engine", pool)
	return &Engine{orchestrator: orchestrator, pool: pool}, nil
}

// SubmitBundle enqueues one bundle execution and returns its future. Wait on
// the returned task to obtain the ExecutionResult; the error from Wait is
// non-nil only when the pool is stopped before the task runs.
func (e *Engine) SubmitBundle(ctx context.Context, b bundle.Bundle) pond.Result[ExecutionResult] {
	return e.pool.Submit(func() ExecutionResult {
		return e.orchestrator.Execute(ctx, b)
	})
}

// Execute runs a single bundle synchronously, bypassing the pool.
func (e *Engine) Execute(ctx context.Context, b bundle.Bundle) ExecutionResult {
	return e.orchestrator.Execute(ctx, b)
}

// MetricsService exposes the engine's prometheus registry.
func (e *Engine) MetricsService() metrics.MetricsService {
	return e.orchestrator.metricsService
}

// Stop drains the pool, waiting for in-flight executions to finish.
func (e *Engine) Stop() {
	e.pool.StopAndWait()
}
