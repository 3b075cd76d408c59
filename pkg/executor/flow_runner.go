package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/flow"
	"github.com/devicelab-dev/wd-adapter/pkg/logger"
)

// maxWhileIterations bounds repeat steps that only have a while condition.
const maxWhileIterations = 1000

// errCancelled is reported when the run context ends mid-flow.
var errCancelled = errors.New("execution cancelled")

// FlowRunner executes a single flow.
type FlowRunner struct {
	ctx     context.Context
	flow    *flow.Flow
	driver  core.Driver
	config  RunnerConfig
	vars    *Variables
	flowIdx int
	total   int
	depth   int // Nesting depth of runFlow and repeat
}

// Run executes the flow and returns the result.
func (fr *FlowRunner) Run() core.FlowResult {
	result := core.FlowResult{
		Name:      fr.flow.DisplayName(),
		FilePath:  fr.flow.SourcePath,
		Browser:   fr.config.Browser,
		StartTime: time.Now(),
	}

	fr.vars = NewVariables()
	fr.vars.ImportSystemEnv()
	fr.vars.SetAll(fr.config.Env)
	fr.vars.SetAll(fr.flow.Config.Env)
	if fr.flow.SourcePath != "" {
		fr.vars.SetFlowDir(filepath.Dir(fr.flow.SourcePath))
	}

	if fr.config.OnFlowStart != nil {
		fr.config.OnFlowStart(fr.flowIdx, fr.total, result.Name, filepath.Base(fr.flow.SourcePath))
	}
	logger.Info("flow started: %s", result.Name)

	// onFlowComplete runs even when the flow fails
	defer func() {
		for _, step := range fr.flow.Config.OnFlowComplete {
			if err := fr.executeNested(step); err != nil {
				logger.Warn("onFlowComplete step %s failed: %v", step.Describe(), err)
			}
		}
	}()

	for _, step := range fr.flow.Config.OnFlowStart {
		if err := fr.executeNested(step); err != nil && !step.IsOptional() {
			for i, s := range fr.flow.Steps {
				result.Steps = append(result.Steps, skippedStep(i, s))
			}
			return fr.finish(result, fmt.Errorf("onFlowStart failed: %w", err))
		}
	}

	var flowErr error
	for i, step := range fr.flow.Steps {
		if flowErr != nil {
			result.Steps = append(result.Steps, skippedStep(i, step))
			continue
		}
		if fr.ctx.Err() != nil {
			flowErr = errCancelled
			result.Steps = append(result.Steps, skippedStep(i, step))
			continue
		}

		sr, err := fr.executeStep(i, step)
		result.Steps = append(result.Steps, sr)

		if fr.config.OnStepComplete != nil {
			fr.config.OnStepComplete(i, step.Describe(), sr.Status, sr.Duration, sr.Error)
		}

		if err != nil && !step.IsOptional() {
			flowErr = err
		}
	}

	return fr.finish(result, flowErr)
}

// finish fills in status, summary and timing.
func (fr *FlowRunner) finish(result core.FlowResult, err error) core.FlowResult {
	result.Duration = time.Since(result.StartTime)
	result.ComputeSummary()
	result.Status = result.AggregateStatus()

	if err != nil {
		result.Error = err.Error()
		if errors.Is(err, errCancelled) {
			result.Status = core.StatusSkipped
			result.Message = "execution cancelled"
		} else {
			result.Status = core.StatusFailed
		}
	}

	if fr.config.OnFlowEnd != nil {
		fr.config.OnFlowEnd(result.Name, result.Status, result.Duration)
	}
	logger.Info("flow finished: %s (%s, %s)", result.Name, result.Status, result.Duration)
	return result
}

// executeStep executes a top-level step and records its result.
func (fr *FlowRunner) executeStep(idx int, step flow.Step) (core.StepResult, error) {
	sr := core.StepResult{
		Index:      idx,
		Command:    string(step.Type()),
		Label:      step.Label(),
		ExecutedBy: executedBy(step),
		Optional:   step.IsOptional(),
		StartTime:  time.Now(),
	}

	out, err := fr.dispatch(step)
	sr.Duration = time.Since(sr.StartTime)
	sr.Data = out.data
	sr.Message = out.message
	sr.Attachments = out.attachments

	switch {
	case err == nil:
		sr.Status = core.StatusPassed
	case step.IsOptional():
		sr.Status = core.StatusWarned
	case core.CategoryOf(err) == core.ErrCategoryAssertion:
		sr.Status = core.StatusFailed
	default:
		sr.Status = core.StatusErrored
	}

	if err != nil {
		sr.Error = err.Error()
		sr.Category = core.CategoryOf(err)
		logger.Warn("step %d %s: %v", idx, step.Describe(), err)
	} else {
		logger.Debug("step %d %s passed in %s", idx, step.Describe(), sr.Duration)
	}

	if fr.config.Artifacts.ShouldCapture(sr.Status) {
		sr.Attachments = append(sr.Attachments, fr.captureArtifacts(idx)...)
	}

	return sr, err
}

// executeNested runs a step inside a hook, repeat or runFlow. Results are
// not recorded individually.
func (fr *FlowRunner) executeNested(step flow.Step) error {
	if fr.ctx.Err() != nil {
		return errCancelled
	}
	logger.Debug("%*s%s", fr.depth*2, "", step.Describe())
	_, err := fr.dispatch(step)
	if err != nil && step.IsOptional() {
		logger.Warn("optional step %s failed: %v", step.Describe(), err)
		return nil
	}
	return err
}

// executeRepeat handles repeat step execution.
func (fr *FlowRunner) executeRepeat(step *flow.RepeatStep) (stepOutput, error) {
	times := fr.vars.ParseInt(step.Times, 1)
	hasWhile := !step.While.IsZero()
	if step.Times == "" && hasWhile {
		times = maxWhileIterations
	}

	fr.depth++
	defer func() { fr.depth-- }()

	iterations := 0
	for ; iterations < times; iterations++ {
		if hasWhile {
			ok, err := fr.checkCondition(fr.vars.expandCondition(step.While))
			if err != nil {
				return stepOutput{}, err
			}
			if !ok {
				break
			}
		}

		for _, nested := range step.Steps {
			if err := fr.executeNested(nested); err != nil {
				return stepOutput{}, fmt.Errorf("repeat iteration %d: %s: %w", iterations+1, nested.Describe(), err)
			}
		}
	}

	return stepOutput{
		message: fmt.Sprintf("Repeat completed (%d iterations)", iterations),
		data:    iterations,
	}, nil
}

// executeRunFlow handles runFlow step execution.
func (fr *FlowRunner) executeRunFlow(step *flow.RunFlowStep) (stepOutput, error) {
	if !step.When.IsZero() {
		ok, err := fr.checkCondition(fr.vars.expandCondition(step.When))
		if err != nil {
			return stepOutput{}, err
		}
		if !ok {
			return stepOutput{message: "Skipped (when condition not met)"}, nil
		}
	}

	fr.depth++
	defer func() { fr.depth-- }()

	defer fr.vars.withEnv(step.Env)()

	if len(step.Steps) > 0 {
		for _, nested := range step.Steps {
			if err := fr.executeNested(nested); err != nil {
				return stepOutput{}, fmt.Errorf("%s: %w", nested.Describe(), err)
			}
		}
		return stepOutput{message: "Inline flow completed"}, nil
	}

	path := fr.vars.ResolvePath(fr.vars.Expand(step.File))
	subFlow, err := flow.ParseFile(path)
	if err != nil {
		return stepOutput{}, fmt.Errorf("load flow %s: %w", path, err)
	}
	return fr.executeSubFlow(subFlow)
}

// executeSubFlow executes a sub-flow without separate result tracking.
func (fr *FlowRunner) executeSubFlow(subFlow *flow.Flow) (stepOutput, error) {
	prevDir := fr.vars.flowDir
	if subFlow.SourcePath != "" {
		fr.vars.SetFlowDir(filepath.Dir(subFlow.SourcePath))
	}
	defer func() { fr.vars.flowDir = prevDir }()

	defer fr.vars.withEnv(subFlow.Config.Env)()

	for _, step := range subFlow.Steps {
		if err := fr.executeNested(step); err != nil {
			return stepOutput{}, fmt.Errorf("%s: %s: %w", subFlow.DisplayName(), step.Describe(), err)
		}
	}

	return stepOutput{message: fmt.Sprintf("Sub-flow '%s' completed", subFlow.DisplayName())}, nil
}

// captureArtifacts captures a screenshot and page source for the report.
// Capture failures are logged and otherwise ignored.
func (fr *FlowRunner) captureArtifacts(idx int) []core.Attachment {
	var attachments []core.Attachment
	base := fmt.Sprintf("flow-%03d/step-%03d", fr.flowIdx, idx)

	if fr.config.Artifacts.Screenshot {
		data, err := fr.driver.GetScreenshot()
		if err != nil {
			logger.Warn("screenshot capture failed: %v", err)
		} else if len(data) > 0 {
			attachments = append(attachments, core.NewScreenshotAttachment(base+"-screenshot.png", data))
		}
	}

	if fr.config.Artifacts.PageSource {
		html, err := fr.driver.GetContent()
		if err != nil {
			logger.Warn("page source capture failed: %v", err)
		} else {
			attachments = append(attachments, core.NewPageSourceAttachment(base+"-page.html", html))
		}
	}

	return attachments
}

func skippedStep(idx int, step flow.Step) core.StepResult {
	return core.StepResult{
		Index:      idx,
		Command:    string(step.Type()),
		Label:      step.Label(),
		ExecutedBy: executedBy(step),
		Optional:   step.IsOptional(),
		Status:     core.StatusSkipped,
	}
}

// executedBy reports whether a step maps onto a driver call or is handled by
// the runner itself.
func executedBy(step flow.Step) core.ExecutedBy {
	switch step.(type) {
	case *flow.WaitStep, *flow.AssertTextStep, *flow.AssertValueStep, *flow.AssertVisibleStep,
		*flow.RepeatStep, *flow.RunFlowStep:
		return core.ExecutedByRunner
	}
	return core.ExecutedByDriver
}
