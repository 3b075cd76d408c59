package webdriver

import (
	"fmt"
	"sort"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// session is the state tied to one remote session.
type session struct {
	id          string
	browserName string
	rootWindow  string

	// windows maps window.name to handle. The root window is never stored.
	windows map[string]string
}

func newSession(info *wd.SessionInfo, rootWindow string) *session {
	return &session{
		id:          info.ID,
		browserName: info.BrowserName,
		rootWindow:  rootWindow,
		windows:     map[string]string{},
	}
}

// windowName returns the registered name of handle.
func (s *session) windowName(handle string) (string, bool) {
	for name, h := range s.windows {
		if h == handle {
			return name, true
		}
	}
	return "", false
}

// applyTimeouts sends the stored timeouts to the remote end.
func (d *Driver) applyTimeouts() error {
	t, err := timeoutRequest(d.timeouts)
	if err != nil {
		return err
	}
	if err := d.remote.SetTimeouts(t); err != nil {
		return translate(err, "set timeouts", "")
	}
	return nil
}

// timeoutRequest picks one timeout category from cfg: implicit, then
// pageLoad, then script.
func timeoutRequest(cfg core.TimeoutConfig) (wd.Timeouts, error) {
	var t wd.Timeouts
	var key string
	for _, k := range []string{core.TimeoutImplicit, core.TimeoutPageLoad, core.TimeoutScript} {
		if _, ok := cfg[k]; ok {
			key = k
			break
		}
	}

	if key == "" {
		return t, core.ErrInvalidTimeout.
			WithMessage(fmt.Sprintf("invalid timeout option %v: expected one of implicit, pageLoad, script", timeoutKeys(cfg))).
			WithDetails(map[string]interface{}{"action": "set timeouts"})
	}
	ms := cfg[key]
	if ms < 0 {
		return t, core.ErrInvalidTimeout.
			WithMessage(fmt.Sprintf("invalid timeout option: %s must not be negative", key)).
			WithDetails(map[string]interface{}{"action": "set timeouts", "key": key})
	}

	switch key {
	case core.TimeoutImplicit:
		t.Implicit = wd.Millis(int64(ms))
	case core.TimeoutPageLoad:
		t.PageLoad = wd.Millis(int64(ms))
	case core.TimeoutScript:
		t.Script = wd.Millis(int64(ms))
	}
	return t, nil
}

func timeoutKeys(t core.TimeoutConfig) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
