package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/flow"
)

// BrowserWorker is one browser session that pulls flows from the shared queue.
type BrowserWorker struct {
	ID      int
	Driver  core.Driver
	Cleanup func() error // Called once the queue is drained; may be nil
}

// workItem represents a flow and its index in the original flow list.
type workItem struct {
	flow  *flow.Flow
	index int
}

// ParallelRunner coordinates parallel flow execution across several browser
// sessions.
type ParallelRunner struct {
	workers []BrowserWorker
	config  RunnerConfig
}

// NewParallelRunner creates a parallel runner with multiple browser workers.
func NewParallelRunner(workers []BrowserWorker, config RunnerConfig) *ParallelRunner {
	return &ParallelRunner{
		workers: workers,
		config:  config,
	}
}

// Run starts every worker's session, then executes flows using a work queue.
// Results keep the order of flows. Cleanup errors are combined and returned
// alongside the result.
func (pr *ParallelRunner) Run(ctx context.Context, flows []*flow.Flow) (*core.SuiteResult, error) {
	if len(pr.workers) == 0 {
		return nil, fmt.Errorf("no workers available")
	}

	suite := &core.SuiteResult{
		Name:      pr.config.Name,
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}

	if err := pr.startAll(ctx); err != nil {
		return nil, multierr.Append(err, pr.cleanupAll())
	}

	workQueue := make(chan workItem, len(flows))
	for i, f := range flows {
		workQueue <- workItem{flow: f, index: i}
	}
	close(workQueue)

	results := make([]core.FlowResult, len(flows))
	var mu sync.Mutex
	stopAll := false
	var wg sync.WaitGroup

	for i := range pr.workers {
		wg.Add(1)
		worker := pr.workers[i]

		go func(w BrowserWorker) {
			defer wg.Done()

			runner := &Runner{config: pr.config, driver: w.Driver}
			first := true

			for item := range workQueue {
				mu.Lock()
				stop := stopAll
				mu.Unlock()

				var result core.FlowResult
				switch {
				case stop:
					result = runner.skippedFlow(item.flow, "run stopped after failure")
				case ctx.Err() != nil:
					result = runner.skippedFlow(item.flow, "run cancelled")
				default:
					if !first && pr.config.ResetBetweenFlows {
						if err := runner.resetSession(); err != nil {
							result = runner.erroredFlow(item.flow, err)
							break
						}
					}
					first = false
					result = runner.executeFlow(ctx, item.flow, item.index, len(flows))
				}

				mu.Lock()
				results[item.index] = result
				if pr.config.StopOnFail && !result.Status.IsSuccess() && result.Status != core.StatusSkipped {
					stopAll = true
				}
				mu.Unlock()
			}
		}(worker)
	}

	wg.Wait()

	suite.Flows = results
	suite.Duration = time.Since(suite.StartTime)
	suite.ComputeSummary()

	return suite, pr.cleanupAll()
}

// startAll opens every worker's session concurrently and fails on the first
// error.
func (pr *ParallelRunner) startAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range pr.workers {
		w := w
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if w.Driver.IsStarted() {
				return nil
			}
			if err := w.Driver.Start(); err != nil {
				return fmt.Errorf("worker %d: start browser session: %w", w.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (pr *ParallelRunner) cleanupAll() error {
	var errs error
	for _, w := range pr.workers {
		if w.Cleanup == nil {
			continue
		}
		if err := w.Cleanup(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("worker %d: %w", w.ID, err))
		}
	}
	return errs
}
