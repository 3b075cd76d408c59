// Package executor runs parsed flows against a core.Driver and collects
// per-step results.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/flow"
	"github.com/devicelab-dev/wd-adapter/pkg/logger"
)

// Defaults for waits and assertions that do not set their own timeout.
const (
	DefaultWaitTimeout   = 10 * time.Second
	DefaultAssertTimeout = 5 * time.Second
)

// RunnerConfig configures the flow runner.
type RunnerConfig struct {
	Name       string              // Suite name for results
	Browser    string              // Recorded on every FlowResult
	OutputDir  string              // Base directory for takeScreenshot paths
	StopOnFail bool                // Skip remaining flows after a failed flow
	Artifacts  core.ArtifactConfig // When to capture screenshots and page source

	// Env is applied before each flow's own env.
	Env map[string]string

	// Timeouts are re-applied after the session is reset between flows.
	Timeouts core.TimeoutConfig

	// ResetBetweenFlows clears cookies and timeouts before every flow but the first.
	ResetBetweenFlows bool

	// WaitTimeout and AssertTimeout apply when a step has no timeout. Negative
	// values mean a single check.
	WaitTimeout   time.Duration
	AssertTimeout time.Duration

	// Live progress callbacks
	OnFlowStart    func(flowIdx, totalFlows int, name, file string)
	OnStepComplete func(idx int, desc string, status core.StepStatus, duration time.Duration, err string)
	OnFlowEnd      func(name string, status core.StepStatus, duration time.Duration)
}

// Runner orchestrates flow execution on one driver.
type Runner struct {
	config RunnerConfig
	driver core.Driver
}

// New creates a new Runner.
func New(driver core.Driver, cfg RunnerConfig) *Runner {
	return &Runner{
		config: cfg,
		driver: driver,
	}
}

// Run starts the driver if needed and executes flows in order.
func (r *Runner) Run(ctx context.Context, flows []*flow.Flow) (*core.SuiteResult, error) {
	suite := &core.SuiteResult{
		Name:      r.config.Name,
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}

	if !r.driver.IsStarted() {
		if err := r.driver.Start(); err != nil {
			return nil, fmt.Errorf("start browser session: %w", err)
		}
	}

	suite.Flows = r.executeFlows(ctx, flows, 0, len(flows))
	suite.Duration = time.Since(suite.StartTime)
	suite.ComputeSummary()
	return suite, nil
}

// executeFlows runs flows sequentially. offset and total are only used for
// progress reporting.
func (r *Runner) executeFlows(ctx context.Context, flows []*flow.Flow, offset, total int) []core.FlowResult {
	results := make([]core.FlowResult, len(flows))
	stop := false

	for i, f := range flows {
		if stop || ctx.Err() != nil {
			reason := "run cancelled"
			if stop {
				reason = "run stopped after failure"
			}
			results[i] = r.skippedFlow(f, reason)
			continue
		}

		if r.config.ResetBetweenFlows && i > 0 {
			if err := r.resetSession(); err != nil {
				results[i] = r.erroredFlow(f, err)
				stop = r.config.StopOnFail
				continue
			}
		}

		results[i] = r.executeFlow(ctx, f, offset+i, total)
		if r.config.StopOnFail && !results[i].Status.IsSuccess() {
			stop = true
		}
	}

	return results
}

// executeFlow runs a single flow.
func (r *Runner) executeFlow(ctx context.Context, f *flow.Flow, flowIdx, totalFlows int) core.FlowResult {
	fr := &FlowRunner{
		ctx:     ctx,
		flow:    f,
		driver:  r.driver,
		config:  r.config,
		flowIdx: flowIdx,
		total:   totalFlows,
	}
	return fr.Run()
}

func (r *Runner) resetSession() error {
	if err := r.driver.Reset(); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	if len(r.config.Timeouts) > 0 {
		if err := r.driver.SetTimeouts(r.config.Timeouts); err != nil {
			return fmt.Errorf("restore timeouts: %w", err)
		}
	}
	return nil
}

func (r *Runner) skippedFlow(f *flow.Flow, reason string) core.FlowResult {
	logger.Info("skipping flow %s: %s", f.DisplayName(), reason)
	return core.FlowResult{
		Name:      f.DisplayName(),
		FilePath:  f.SourcePath,
		Browser:   r.config.Browser,
		Status:    core.StatusSkipped,
		StartTime: time.Now(),
		Message:   reason,
	}
}

func (r *Runner) erroredFlow(f *flow.Flow, err error) core.FlowResult {
	logger.Error("flow %s not run: %v", f.DisplayName(), err)
	return core.FlowResult{
		Name:      f.DisplayName(),
		FilePath:  f.SourcePath,
		Browser:   r.config.Browser,
		Status:    core.StatusErrored,
		StartTime: time.Now(),
		Error:     err.Error(),
	}
}
