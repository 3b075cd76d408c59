package core

import (
	"time"
)

// Driver is the browser automation contract callers program against.
// Locators are XPath expressions; every call re-resolves its locator.
// Implementations: webdriver (W3C remote).
type Driver interface {
	// Session lifecycle
	Start() error
	Stop() error
	IsStarted() bool
	Reset() error
	SetTimeouts(timeouts TimeoutConfig) error

	// Navigation and page content
	Visit(url string) error
	Reload() error
	Back() error
	Forward() error
	GetCurrentURL() (string, error)
	GetContent() (string, error)
	GetScreenshot() ([]byte, error)

	// Element queries
	FindElementXpaths(xpath string) ([]string, error)
	GetTagName(xpath string) (string, error)
	GetText(xpath string) (string, error)
	GetHTML(xpath string) (string, error)
	GetOuterHTML(xpath string) (string, error)
	GetAttribute(xpath, name string) (string, bool, error)
	GetValue(xpath string) (Value, error)
	IsVisible(xpath string) (bool, error)
	IsSelected(xpath string) (bool, error)
	IsChecked(xpath string) (bool, error)

	// Form values
	SetValue(xpath string, value Value) error
	Check(xpath string) error
	Uncheck(xpath string) error
	SelectOption(xpath, value string, multiple bool) error
	AttachFile(xpath, path string) error
	SubmitForm(xpath string) error

	// Pointer and keyboard
	Click(xpath string) error
	DoubleClick(xpath string) error
	RightClick(xpath string) error
	MouseOver(xpath string) error
	Focus(xpath string) error
	Blur(xpath string) error
	DragTo(sourceXpath, destinationXpath string) error
	KeyPress(xpath, char, modifier string) error
	KeyDown(xpath, char, modifier string) error
	KeyUp(xpath, char, modifier string) error

	// Scripts
	ExecuteScript(script string) (interface{}, error)
	ExecuteAsyncScript(script string) (interface{}, error)
	EvaluateScript(script string) (interface{}, error)
	Wait(timeout time.Duration, condition Condition) (bool, error)

	// Windows and frames
	SwitchToWindow(name string) error
	SwitchToIFrame(name string) error
	GetWindowNames() ([]string, error)
	GetWindowName() (string, error)
	ResizeWindow(width, height int, name string) error
	MaximizeWindow(name string) error

	// Cookies and dialogs
	GetCookie(name string) (string, bool, error)
	SetCookie(name string, value Value) error
	GetCurrentPromptOrAlert() (Alert, error)
}

// Alert is a handle on the current JavaScript alert, confirm or prompt.
type Alert interface {
	Text() (string, error)
	SendKeys(text string) error
	Accept() error
	Dismiss() error
}

// Condition is what Wait polls for: a JavaScript expression evaluated in the
// page, or a Go callback. Exactly one of Script or Check is set.
type Condition struct {
	Script string
	Check  func() (bool, error)
}

// ScriptCondition waits until expr is truthy in the page.
func ScriptCondition(expr string) Condition {
	return Condition{Script: expr}
}

// CheckCondition waits until fn reports true.
func CheckCondition(fn func() (bool, error)) Condition {
	return Condition{Check: fn}
}

// String describes the condition for logs and step messages.
func (c Condition) String() string {
	if c.Check != nil {
		return "callback"
	}
	return c.Script
}

// TimeoutConfig holds session timeouts in milliseconds keyed by
// "implicit", "pageLoad" and "script".
type TimeoutConfig map[string]int

// Timeout keys
const (
	TimeoutImplicit = "implicit"
	TimeoutPageLoad = "pageLoad"
	TimeoutScript   = "script"
)

// Clone returns an independent copy.
func (t TimeoutConfig) Clone() TimeoutConfig {
	if t == nil {
		return nil
	}
	out := make(TimeoutConfig, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// ExecutedBy indicates what component executed a step
type ExecutedBy string

// ExecutedBy values
const (
	ExecutedByDriver ExecutedBy = "driver" // Executed by the Driver
	ExecutedByRunner ExecutedBy = "runner" // Handled by the executor itself (assertions, waits)
)
