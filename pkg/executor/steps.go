package executor

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/flow"
)

// stepOutput is what a step hands back besides its error.
type stepOutput struct {
	message     string
	data        interface{}
	attachments []core.Attachment
}

// dispatch expands variables and routes the step to the driver or to the
// runner's own handlers.
//
//nolint:gocyclo
func (fr *FlowRunner) dispatch(step flow.Step) (stepOutput, error) {
	d := fr.driver

	switch s := fr.vars.ExpandStep(step).(type) {
	// Navigation
	case *flow.VisitStep:
		target, err := resolveURL(fr.flow.Config.BaseURL, s.URL)
		if err != nil {
			return stepOutput{}, core.ErrInvalidArgument.WithMessagef("invalid url %q: %v", s.URL, err)
		}
		return stepOutput{message: "Visited " + target}, d.Visit(target)
	case *flow.NavigationStep:
		switch s.Type() {
		case flow.StepReload:
			return stepOutput{}, d.Reload()
		case flow.StepBack:
			return stepOutput{}, d.Back()
		default:
			return stepOutput{}, d.Forward()
		}

	// Pointer and element actions
	case *flow.ElementStep:
		return stepOutput{}, fr.elementAction(s)
	case *flow.DragToStep:
		return stepOutput{}, d.DragTo(s.Source, s.Target)

	// Form values
	case *flow.SetValueStep:
		return stepOutput{}, d.SetValue(s.XPath, core.ValueOf(s.Value))
	case *flow.SelectOptionStep:
		return stepOutput{}, d.SelectOption(s.XPath, s.Value, s.Multiple)
	case *flow.AttachFileStep:
		return stepOutput{}, d.AttachFile(s.XPath, s.Path)

	// Keyboard
	case *flow.KeyStep:
		switch s.Type() {
		case flow.StepKeyDown:
			return stepOutput{}, d.KeyDown(s.XPath, s.Char, s.Modifier)
		case flow.StepKeyUp:
			return stepOutput{}, d.KeyUp(s.XPath, s.Char, s.Modifier)
		default:
			return stepOutput{}, d.KeyPress(s.XPath, s.Char, s.Modifier)
		}

	// Scripts
	case *flow.ScriptStep:
		return fr.runScript(s)
	case *flow.WaitStep:
		return fr.wait(s)

	// Windows and frames
	case *flow.SwitchStep:
		if s.Type() == flow.StepSwitchToIFrame {
			return stepOutput{}, d.SwitchToIFrame(s.Name)
		}
		return stepOutput{}, d.SwitchToWindow(s.Name)
	case *flow.ResizeWindowStep:
		return stepOutput{}, d.ResizeWindow(s.Width, s.Height, s.Window)
	case *flow.MaximizeWindowStep:
		return stepOutput{}, d.MaximizeWindow(s.Window)

	// Session state
	case *flow.SetTimeoutsStep:
		return stepOutput{}, d.SetTimeouts(s.Timeouts())
	case *flow.SetCookieStep:
		return stepOutput{}, d.SetCookie(s.Name, core.ValueOf(s.Value))
	case *flow.AlertStep:
		return fr.handleAlert(s)

	// Media
	case *flow.TakeScreenshotStep:
		return fr.takeScreenshot(s)

	// Assertions
	case *flow.AssertTextStep:
		return stepOutput{}, fr.assertText(s)
	case *flow.AssertValueStep:
		return stepOutput{}, fr.assertValue(s)
	case *flow.AssertVisibleStep:
		return stepOutput{}, fr.assertVisible(s)

	// Flow control
	case *flow.RepeatStep:
		return fr.executeRepeat(s)
	case *flow.RunFlowStep:
		return fr.executeRunFlow(s)
	}

	return stepOutput{}, core.ErrInvalidAction.WithMessagef("unsupported step: %s", step.Type())
}

func (fr *FlowRunner) elementAction(s *flow.ElementStep) error {
	d := fr.driver
	switch s.Type() {
	case flow.StepClick:
		return d.Click(s.XPath)
	case flow.StepDoubleClick:
		return d.DoubleClick(s.XPath)
	case flow.StepRightClick:
		return d.RightClick(s.XPath)
	case flow.StepMouseOver:
		return d.MouseOver(s.XPath)
	case flow.StepFocus:
		return d.Focus(s.XPath)
	case flow.StepBlur:
		return d.Blur(s.XPath)
	case flow.StepCheck:
		return d.Check(s.XPath)
	case flow.StepUncheck:
		return d.Uncheck(s.XPath)
	case flow.StepSubmitForm:
		return d.SubmitForm(s.XPath)
	}
	return core.ErrInvalidAction.WithMessagef("unsupported element step: %s", s.Type())
}

func (fr *FlowRunner) runScript(s *flow.ScriptStep) (stepOutput, error) {
	var (
		result interface{}
		err    error
	)
	switch {
	case s.Type() == flow.StepEvaluateScript:
		result, err = fr.driver.EvaluateScript(s.Script)
	case s.Async:
		result, err = fr.driver.ExecuteAsyncScript(s.Script)
	default:
		result, err = fr.driver.ExecuteScript(s.Script)
	}
	if err != nil {
		return stepOutput{}, err
	}
	return stepOutput{data: result}, nil
}

func (fr *FlowRunner) wait(s *flow.WaitStep) (stepOutput, error) {
	timeout := stepTimeout(s.TimeoutMs, fr.config.WaitTimeout, DefaultWaitTimeout)

	cond := core.ScriptCondition(s.Script)
	if s.Script == "" {
		c := s.Condition
		cond = core.CheckCondition(func() (bool, error) {
			return fr.checkCondition(c)
		})
	}

	ok, err := fr.driver.Wait(timeout, cond)
	if err != nil {
		return stepOutput{}, err
	}
	if !ok {
		return stepOutput{}, core.ErrWaitTimeout.
			WithMessagef("%s not met within %s", s.Describe(), timeout).
			WithDetails(map[string]interface{}{"action": "wait", "timeout": timeout.String()})
	}
	return stepOutput{}, nil
}

// checkCondition evaluates every set check of cond once. A missing element
// counts as not visible.
func (fr *FlowRunner) checkCondition(cond *flow.Condition) (bool, error) {
	if cond.IsZero() {
		return true, nil
	}
	if cond.Visible != "" {
		visible, err := fr.visible(cond.Visible)
		if err != nil || !visible {
			return false, err
		}
	}
	if cond.NotVisible != "" {
		visible, err := fr.visible(cond.NotVisible)
		if err != nil || visible {
			return false, err
		}
	}
	if cond.Script != "" {
		result, err := fr.driver.EvaluateScript(cond.Script)
		if err != nil {
			return false, err
		}
		if !core.ValueOf(result).Truthy() {
			return false, nil
		}
	}
	return true, nil
}

func (fr *FlowRunner) visible(xpath string) (bool, error) {
	visible, err := fr.driver.IsVisible(xpath)
	if core.CategoryOf(err) == core.ErrCategoryElement {
		return false, nil
	}
	return visible, err
}

// poll re-runs check until it passes or the assertion timeout runs out, and
// returns the last error.
func (fr *FlowRunner) poll(timeoutMs int, check func() error) error {
	timeout := stepTimeout(timeoutMs, fr.config.AssertTimeout, DefaultAssertTimeout)
	var last error
	ok, err := fr.driver.Wait(timeout, core.CheckCondition(func() (bool, error) {
		last = check()
		if last == nil {
			return true, nil
		}
		if core.CategoryOf(last) == core.ErrCategoryAssertion || core.CategoryOf(last) == core.ErrCategoryElement {
			return false, nil
		}
		return false, last
	}))
	switch {
	case err != nil:
		return err
	case ok:
		return nil
	default:
		return last
	}
}

func (fr *FlowRunner) assertText(s *flow.AssertTextStep) error {
	return fr.poll(s.TimeoutMs, func() error {
		text, err := fr.driver.GetText(s.XPath)
		if err != nil {
			return err
		}
		if s.Contains && strings.Contains(text, s.Text) || !s.Contains && text == s.Text {
			return nil
		}
		return core.ErrAssertion.
			WithMessagef("text of %s is %q, expected %q", s.XPath, text, s.Text).
			WithDetails(map[string]interface{}{"xpath": s.XPath, "expected": s.Text, "actual": text})
	})
}

func (fr *FlowRunner) assertValue(s *flow.AssertValueStep) error {
	want := core.ValueOf(s.Value)
	return fr.poll(s.TimeoutMs, func() error {
		got, err := fr.driver.GetValue(s.XPath)
		if err != nil {
			return err
		}
		if got.Equal(want) {
			return nil
		}
		return core.ErrAssertion.
			WithMessagef("value of %s is %s, expected %s", s.XPath, got, want).
			WithDetails(map[string]interface{}{"xpath": s.XPath, "expected": want.Text(), "actual": got.Text()})
	})
}

func (fr *FlowRunner) assertVisible(s *flow.AssertVisibleStep) error {
	want := s.Type() == flow.StepAssertVisible
	return fr.poll(s.TimeoutMs, func() error {
		visible, err := fr.visible(s.XPath)
		if err != nil {
			return err
		}
		if visible == want {
			return nil
		}
		state := "hidden"
		if visible {
			state = "visible"
		}
		return core.ErrAssertion.
			WithMessagef("%s is %s", s.XPath, state).
			WithDetails(map[string]interface{}{"xpath": s.XPath, "action": string(s.Type())})
	})
}

func (fr *FlowRunner) handleAlert(s *flow.AlertStep) (stepOutput, error) {
	alert, err := fr.driver.GetCurrentPromptOrAlert()
	if err != nil {
		return stepOutput{}, err
	}
	text, err := alert.Text()
	if err != nil {
		return stepOutput{}, err
	}
	if s.Text != "" {
		if err := alert.SendKeys(s.Text); err != nil {
			return stepOutput{}, err
		}
	}
	if s.Type() == flow.StepDismissAlert {
		err = alert.Dismiss()
	} else {
		err = alert.Accept()
	}
	return stepOutput{data: text}, err
}

func (fr *FlowRunner) takeScreenshot(s *flow.TakeScreenshotStep) (stepOutput, error) {
	data, err := fr.driver.GetScreenshot()
	if err != nil {
		return stepOutput{}, err
	}

	name := s.Path
	if name == "" {
		name = fmt.Sprintf("screenshot-%d.png", time.Now().UnixMilli())
	}
	if filepath.Ext(name) == "" {
		name += ".png"
	}
	path := name
	if !filepath.IsAbs(path) && fr.config.OutputDir != "" {
		path = filepath.Join(fr.config.OutputDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return stepOutput{}, fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return stepOutput{}, fmt.Errorf("write screenshot: %w", err)
	}

	return stepOutput{
		message: "Saved " + path,
		data:    path,
	}, nil
}

// resolveURL joins a relative URL to base. Absolute URLs and an empty base
// are returned unchanged.
func resolveURL(base, ref string) (string, error) {
	if base == "" {
		return ref, nil
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if r.IsAbs() {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// stepTimeout picks the step's own timeout, then the configured one, then
// fallback. A negative configured value means a single check.
func stepTimeout(stepMs int, configured, fallback time.Duration) time.Duration {
	switch {
	case stepMs > 0:
		return time.Duration(stepMs) * time.Millisecond
	case configured < 0:
		return 0
	case configured > 0:
		return configured
	default:
		return fallback
	}
}
