package flow

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// Navigation
	StepVisit   StepType = "visit"
	StepReload  StepType = "reload"
	StepBack    StepType = "back"
	StepForward StepType = "forward"

	// Pointer
	StepClick       StepType = "click"
	StepDoubleClick StepType = "doubleClick"
	StepRightClick  StepType = "rightClick"
	StepMouseOver   StepType = "mouseOver"
	StepFocus       StepType = "focus"
	StepBlur        StepType = "blur"
	StepDragTo      StepType = "dragTo"

	// Form values
	StepSetValue     StepType = "setValue"
	StepCheck        StepType = "check"
	StepUncheck      StepType = "uncheck"
	StepSelectOption StepType = "selectOption"
	StepAttachFile   StepType = "attachFile"
	StepSubmitForm   StepType = "submitForm"

	// Keyboard
	StepKeyPress StepType = "keyPress"
	StepKeyDown  StepType = "keyDown"
	StepKeyUp    StepType = "keyUp"

	// Scripts
	StepExecuteScript  StepType = "executeScript"
	StepEvaluateScript StepType = "evaluateScript"
	StepWait           StepType = "wait"

	// Windows and frames
	StepSwitchToWindow StepType = "switchToWindow"
	StepSwitchToIFrame StepType = "switchToIFrame"
	StepResizeWindow   StepType = "resizeWindow"
	StepMaximizeWindow StepType = "maximizeWindow"

	// Session state
	StepSetTimeouts  StepType = "setTimeouts"
	StepSetCookie    StepType = "setCookie"
	StepAcceptAlert  StepType = "acceptAlert"
	StepDismissAlert StepType = "dismissAlert"

	// Media
	StepTakeScreenshot StepType = "takeScreenshot"

	// Assertions
	StepAssertText       StepType = "assertText"
	StepAssertValue      StepType = "assertValue"
	StepAssertVisible    StepType = "assertVisible"
	StepAssertNotVisible StepType = "assertNotVisible"

	// Flow control
	StepRepeat  StepType = "repeat"
	StepRunFlow StepType = "runFlow"
)

// Step is the interface for all flow steps.
type Step interface {
	Type() StepType
	IsOptional() bool
	Label() string
	Describe() string
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	Optional  bool     `yaml:"optional"`
	StepLabel string   `yaml:"label"`
	TimeoutMs int      `yaml:"timeout"`
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// IsOptional returns whether the step is optional.
func (b *BaseStep) IsOptional() bool { return b.Optional }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

// ============================================
// Navigation Steps
// ============================================

// VisitStep loads a URL. Relative URLs are joined to the flow's baseUrl.
type VisitStep struct {
	BaseStep `yaml:",inline"`
	URL      string `yaml:"url"`
}

// NavigationStep is reload, back or forward.
type NavigationStep struct {
	BaseStep `yaml:",inline"`
}

// ============================================
// Element Steps
// ============================================

// ElementStep acts on the element matched by XPath. It backs click,
// doubleClick, rightClick, mouseOver, focus, blur, check, uncheck and
// submitForm.
type ElementStep struct {
	BaseStep `yaml:",inline"`
	XPath    string `yaml:"xpath"`
}

// DragToStep drags one element onto another.
type DragToStep struct {
	BaseStep `yaml:",inline"`
	Source   string `yaml:"source"`
	Target   string `yaml:"target"`
}

// SetValueStep writes a form value. Value is a string, a bool or a list of
// strings; null clears nothing and is rejected by most elements.
type SetValueStep struct {
	BaseStep `yaml:",inline"`
	XPath    string      `yaml:"xpath"`
	Value    interface{} `yaml:"value"`
}

// SelectOptionStep picks an option of a select or radio group.
type SelectOptionStep struct {
	BaseStep `yaml:",inline"`
	XPath    string `yaml:"xpath"`
	Value    string `yaml:"value"`
	Multiple bool   `yaml:"multiple"`
}

// AttachFileStep sets a file input to a local path.
type AttachFileStep struct {
	BaseStep `yaml:",inline"`
	XPath    string `yaml:"xpath"`
	Path     string `yaml:"path"`
}

// KeyStep is keyPress, keyDown or keyUp. Char is a single character or its
// decimal code point.
type KeyStep struct {
	BaseStep `yaml:",inline"`
	XPath    string `yaml:"xpath"`
	Char     string `yaml:"char"`
	Modifier string `yaml:"modifier"`
}

// ============================================
// Script Steps
// ============================================

// ScriptStep is executeScript or evaluateScript.
type ScriptStep struct {
	BaseStep `yaml:",inline"`
	Script   string `yaml:"script"`
	Async    bool   `yaml:"async"`
}

// WaitStep polls until Script is truthy, or for Condition when set. The
// wait timeout comes from BaseStep.TimeoutMs.
type WaitStep struct {
	BaseStep  `yaml:",inline"`
	Script    string     `yaml:"script"`
	Condition *Condition `yaml:"until"`
}

// Condition is a check against the current page. Set fields are ANDed.
type Condition struct {
	Visible    string `yaml:"visible"`    // XPath that must match a visible element
	NotVisible string `yaml:"notVisible"` // XPath that must match nothing visible
	Script     string `yaml:"script"`     // JavaScript expression that must be truthy
}

// IsZero reports whether no check is set.
func (c *Condition) IsZero() bool {
	return c == nil || (c.Visible == "" && c.NotVisible == "" && c.Script == "")
}

// ============================================
// Window Steps
// ============================================

// SwitchStep is switchToWindow or switchToIFrame. An empty name selects the
// root window or the top-level document.
type SwitchStep struct {
	BaseStep `yaml:",inline"`
	Name     string `yaml:"name"`
}

// ResizeWindowStep resizes a window. Only the current window is supported.
type ResizeWindowStep struct {
	BaseStep `yaml:",inline"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Window   string `yaml:"window"`
}

// MaximizeWindowStep maximizes a window.
type MaximizeWindowStep struct {
	BaseStep `yaml:",inline"`
	Window   string `yaml:"window"`
}

// ============================================
// Session Steps
// ============================================

// SetTimeoutsStep changes session timeouts. Unset keys are left alone.
type SetTimeoutsStep struct {
	BaseStep `yaml:",inline"`
	Implicit *int `yaml:"implicit"`
	PageLoad *int `yaml:"pageLoad"`
	Script   *int `yaml:"script"`
}

// Timeouts returns the set keys as a core.TimeoutConfig.
func (s *SetTimeoutsStep) Timeouts() core.TimeoutConfig {
	out := core.TimeoutConfig{}
	if s.Implicit != nil {
		out[core.TimeoutImplicit] = *s.Implicit
	}
	if s.PageLoad != nil {
		out[core.TimeoutPageLoad] = *s.PageLoad
	}
	if s.Script != nil {
		out[core.TimeoutScript] = *s.Script
	}
	return out
}

// SetCookieStep sets a cookie on the current page. A null value deletes it.
type SetCookieStep struct {
	BaseStep `yaml:",inline"`
	Name     string      `yaml:"name"`
	Value    interface{} `yaml:"value"`
}

// AlertStep is acceptAlert or dismissAlert. Text, when set, is typed into a
// prompt before it is closed.
type AlertStep struct {
	BaseStep `yaml:",inline"`
	Text     string `yaml:"text"`
}

// ============================================
// Media Steps
// ============================================

// TakeScreenshotStep takes a screenshot.
type TakeScreenshotStep struct {
	BaseStep `yaml:",inline"`
	Path     string `yaml:"path"`
}

// ============================================
// Assertion Steps
// ============================================

// AssertTextStep compares the visible text of an element.
type AssertTextStep struct {
	BaseStep `yaml:",inline"`
	XPath    string `yaml:"xpath"`
	Text     string `yaml:"text"`
	Contains bool   `yaml:"contains"`
}

// AssertValueStep compares the form value of an element.
type AssertValueStep struct {
	BaseStep `yaml:",inline"`
	XPath    string      `yaml:"xpath"`
	Value    interface{} `yaml:"value"`
}

// AssertVisibleStep is assertVisible or assertNotVisible.
type AssertVisibleStep struct {
	BaseStep `yaml:",inline"`
	XPath    string `yaml:"xpath"`
}

// ============================================
// Flow Control Steps
// ============================================

// RepeatStep repeats nested steps Times times, or while While holds.
type RepeatStep struct {
	BaseStep `yaml:",inline"`
	Times    string     `yaml:"times"` // String for variable support
	While    *Condition `yaml:"while"`
	Steps    []Step     `yaml:"-"`
}

// RunFlowStep runs another flow file or inline steps.
type RunFlowStep struct {
	BaseStep `yaml:",inline"`
	File     string            `yaml:"file"`
	Steps    []Step            `yaml:"-"` // Inline steps
	When     *Condition        `yaml:"when"`
	Env      map[string]string `yaml:"env"`
}

// ============================================
// Describe() implementations for detailed output
// ============================================

// Describe returns a human-readable description of the visit step.
func (s *VisitStep) Describe() string {
	return "visit: " + s.URL
}

// Describe returns a human-readable description of the element step.
func (s *ElementStep) Describe() string {
	return string(s.StepType) + ": " + s.XPath
}

// Describe returns a human-readable description of the drag step.
func (s *DragToStep) Describe() string {
	return "dragTo: " + s.Source + " -> " + s.Target
}

// Describe returns a human-readable description of the set value step.
func (s *SetValueStep) Describe() string {
	return fmt.Sprintf("setValue: %s = %s", s.XPath, core.ValueOf(s.Value))
}

// Describe returns a human-readable description of the select step.
func (s *SelectOptionStep) Describe() string {
	return fmt.Sprintf("selectOption: %s = %q", s.XPath, s.Value)
}

// Describe returns a human-readable description of the attach step.
func (s *AttachFileStep) Describe() string {
	return "attachFile: " + s.XPath + " <- " + s.Path
}

// Describe returns a human-readable description of the key step.
func (s *KeyStep) Describe() string {
	key := s.Char
	if s.Modifier != "" {
		key = s.Modifier + "+" + key
	}
	return string(s.StepType) + ": " + key
}

// Describe returns a human-readable description of the script step.
func (s *ScriptStep) Describe() string {
	script := strings.TrimSpace(s.Script)
	if len(script) > 40 {
		script = script[:40] + "..."
	}
	return string(s.StepType) + ": " + script
}

// Describe returns a human-readable description of the wait step.
func (s *WaitStep) Describe() string {
	switch {
	case s.Script != "":
		return "wait: " + s.Script
	case s.Condition != nil && s.Condition.Visible != "":
		return "wait: visible " + s.Condition.Visible
	case s.Condition != nil && s.Condition.NotVisible != "":
		return "wait: notVisible " + s.Condition.NotVisible
	}
	return "wait"
}

// Describe returns a human-readable description of the switch step.
func (s *SwitchStep) Describe() string {
	if s.Name == "" {
		return string(s.StepType) + ": <root>"
	}
	return string(s.StepType) + ": " + s.Name
}

// Describe returns a human-readable description of the resize step.
func (s *ResizeWindowStep) Describe() string {
	return fmt.Sprintf("resizeWindow: %dx%d", s.Width, s.Height)
}

// Describe returns a human-readable description of the cookie step.
func (s *SetCookieStep) Describe() string {
	if s.Value == nil {
		return "setCookie: delete " + s.Name
	}
	return "setCookie: " + s.Name
}

// Describe returns a human-readable description of the assert text step.
func (s *AssertTextStep) Describe() string {
	return fmt.Sprintf("assertText: %s = %q", s.XPath, s.Text)
}

// Describe returns a human-readable description of the assert value step.
func (s *AssertValueStep) Describe() string {
	return fmt.Sprintf("assertValue: %s = %s", s.XPath, core.ValueOf(s.Value))
}

// Describe returns a human-readable description of the visibility assertion.
func (s *AssertVisibleStep) Describe() string {
	return string(s.StepType) + ": " + s.XPath
}

// Describe returns a human-readable description of the run flow step.
func (s *RunFlowStep) Describe() string {
	if s.File != "" {
		return "runFlow: " + s.File
	}
	return "runFlow"
}

// Describe returns a human-readable description of the repeat step.
func (s *RepeatStep) Describe() string {
	if s.Times != "" {
		return "repeat: " + s.Times + " times"
	}
	return "repeat"
}
