package webdriver

import (
	"errors"
	"fmt"
)

// W3C WebDriver error codes (https://w3c.github.io/webdriver/#errors).
const (
	ErrCodeElementClickIntercepted = "element click intercepted"
	ErrCodeElementNotInteractable  = "element not interactable"
	ErrCodeInvalidArgument         = "invalid argument"
	ErrCodeInvalidElementState     = "invalid element state"
	ErrCodeInvalidSessionID        = "invalid session id"
	ErrCodeJavascriptError         = "javascript error"
	ErrCodeNoSuchAlert             = "no such alert"
	ErrCodeNoSuchCookie            = "no such cookie"
	ErrCodeNoSuchElement           = "no such element"
	ErrCodeNoSuchFrame             = "no such frame"
	ErrCodeNoSuchWindow            = "no such window"
	ErrCodeScriptTimeout           = "script timeout"
	ErrCodeSessionNotCreated       = "session not created"
	ErrCodeStaleElementReference   = "stale element reference"
	ErrCodeTimeout                 = "timeout"
	ErrCodeUnknownCommand          = "unknown command"
	ErrCodeUnknownError            = "unknown error"
	ErrCodeUnsupportedOperation    = "unsupported operation"
)

// Error is an error reported by the remote end.
type Error struct {
	Status  int    // HTTP status code
	Code    string // W3C error code, e.g. "no such element"
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is a remote error with the given W3C code.
func IsCode(err error, code string) bool {
	var wdErr *Error
	if errors.As(err, &wdErr) {
		return wdErr.Code == code
	}
	return false
}

// legacyStatusCodes maps JSON Wire Protocol numeric statuses to W3C codes.
// Some grid nodes still answer with them.
var legacyStatusCodes = map[int]string{
	7:  ErrCodeNoSuchElement,
	8:  ErrCodeNoSuchFrame,
	11: ErrCodeElementNotInteractable,
	12: ErrCodeInvalidElementState,
	17: ErrCodeJavascriptError,
	21: ErrCodeTimeout,
	23: ErrCodeNoSuchWindow,
	27: ErrCodeNoSuchAlert,
	28: ErrCodeScriptTimeout,
	62: ErrCodeNoSuchCookie,
}
