package webdriver

import (
	"errors"
	"fmt"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// errCommand covers remote failures without a dedicated error.
var errCommand = core.NewExecutionError(core.ErrCategoryUnknown, "command_failed", "webdriver command failed")

// failure builds an error from base naming the action and locator.
func failure(base *core.ExecutionError, action, xpath string, cause error) *core.ExecutionError {
	msg := fmt.Sprintf("%s: %s", base.Message, action)
	details := map[string]interface{}{"action": action}
	if xpath != "" {
		msg = fmt.Sprintf("%s: %s %q", base.Message, action, xpath)
		details["xpath"] = xpath
	}
	e := base.WithMessage(msg).WithDetails(details)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}

// translate maps a remote error to the core taxonomy. Errors that already
// belong to it pass through unchanged.
func translate(err error, action, xpath string) error {
	if err == nil {
		return nil
	}
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		return err
	}

	base := errCommand
	switch {
	case wd.IsCode(err, wd.ErrCodeNoSuchElement):
		base = core.ErrNoSuchElement
	case wd.IsCode(err, wd.ErrCodeElementNotInteractable):
		base = core.ErrElementNotInteractable
	case wd.IsCode(err, wd.ErrCodeScriptTimeout):
		base = core.ErrScriptTimeout
	case wd.IsCode(err, wd.ErrCodeNoSuchCookie):
		base = core.ErrNoSuchCookie
	case wd.IsCode(err, wd.ErrCodeInvalidSessionID):
		base = core.ErrNotConnected
	case wd.IsCode(err, wd.ErrCodeInvalidArgument):
		base = core.ErrInvalidArgument
	}
	return failure(base, action, xpath, err)
}

// translateNavigation is translate with page-load timeouts reported as
// ErrNavigationTimeout.
func translateNavigation(err error, action string) error {
	if wd.IsCode(err, wd.ErrCodeTimeout) {
		return failure(core.ErrNavigationTimeout, action, "", err)
	}
	return translate(err, action, "")
}

// isNotInteractable reports a remote "element not interactable" error.
func isNotInteractable(err error) bool {
	return wd.IsCode(err, wd.ErrCodeElementNotInteractable)
}
