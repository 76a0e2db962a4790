// Package orchestrator drives the conversion engine: one call for single
// fetches, a fail-independent concurrent fan-out for batches. Outcomes are
// joined by index, so batch result order always matches input order no
// matter which sub-fetches finish (or fail) first.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pagefold/mdgate/internal/fetch"
	"github.com/pagefold/mdgate/internal/telemetry"
)

// Orchestrator invokes the engine and captures per-URL outcomes.
type Orchestrator struct {
	engine fetch.Engine
	logger *zap.Logger
}

// New constructs an Orchestrator.
func New(engine fetch.Engine, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{engine: engine, logger: logger}
}

// RunSingle converts one URL. Engine failures are wrapped into a failure
// outcome; nothing escapes this boundary.
func (o *Orchestrator) RunSingle(ctx context.Context, req fetch.Request) fetch.Outcome {
	start := time.Now()
	res, err := o.engine.Convert(ctx, req)
	telemetry.ObserveFetch(err == nil, time.Since(start))
	if err != nil {
		o.logger.Debug("conversion failed",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return fetch.Failure(req.URL, err)
	}
	return fetch.Success(req.URL, res)
}

// RunBatch converts every URL concurrently. Each goroutine owns exactly one
// outcome slot, written once by index; no locking is needed and a failed
// sub-fetch never cancels its siblings. The returned slice length always
// equals len(req.URLs).
func (o *Orchestrator) RunBatch(ctx context.Context, req fetch.BatchRequest) []fetch.Outcome {
	telemetry.ObserveBatch(len(req.URLs))
	outcomes := make([]fetch.Outcome, len(req.URLs))

	done := make(chan int, len(req.URLs))
	for i, u := range req.URLs {
		go func(i int, u string) {
			outcomes[i] = o.RunSingle(ctx, fetch.Request{
				URL:          u,
				TimeoutMs:    req.TimeoutMs,
				HTMLFallback: req.HTMLFallback,
			})
			done <- i
		}(i, u)
	}
	for range req.URLs {
		<-done
	}
	return outcomes
}
