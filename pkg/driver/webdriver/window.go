package webdriver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// SwitchToWindow switches to the window whose window.name is name, or to the
// root window when name is empty. Names that match no window are passed to
// the remote end as handles.
func (d *Driver) SwitchToWindow(name string) error {
	action := "switch to window " + name
	if err := d.ready(action, ""); err != nil {
		return err
	}

	target := name
	if !d.quirks.ResolvesWindowNamesNatively() {
		if err := d.refreshWindows(); err != nil {
			return translate(err, action, "")
		}
		if handle, ok := d.session.windows[name]; ok && name != "" {
			target = handle
		}
	}
	if name == "" {
		target = d.session.rootWindow
	}
	return translate(d.remote.SwitchToWindow(target), action, "")
}

// refreshWindows rebuilds the name registry from the open handles. Handles
// with a known name keep it; others are visited to read window.name. The
// root window is skipped.
func (d *Driver) refreshWindows() error {
	s := d.session
	handles, err := d.remote.WindowHandles()
	if err != nil {
		return err
	}

	fresh := make(map[string]string, len(handles))
	for _, handle := range handles {
		if handle == s.rootWindow {
			continue
		}
		if name, ok := s.windowName(handle); ok {
			fresh[name] = handle
			continue
		}
		if err := d.remote.SwitchToWindow(handle); err != nil {
			return err
		}
		result, err := d.remote.ExecuteScript(returning("window.name"), nil)
		if err != nil {
			return err
		}
		name := fmt.Sprint(result)
		if result == nil {
			name = ""
		}
		d.log.Debug("window probed", zap.String("handle", handle), zap.String("name", name))
		fresh[name] = handle
	}
	s.windows = fresh
	return nil
}

// SwitchToIFrame switches into the frame with the given name attribute, or
// back to the top-level document when name is empty.
func (d *Driver) SwitchToIFrame(name string) error {
	action := "switch to frame " + name
	if err := d.ready(action, ""); err != nil {
		return err
	}
	if name == "" {
		return translate(d.remote.SwitchToFrame(nil), action, "")
	}
	xpath := frameXpath(name)
	id, err := d.find(xpath, action)
	if err != nil {
		return err
	}
	return translate(d.remote.SwitchToFrame(wd.ElementArg(id)), action, xpath)
}

func frameXpath(name string) string {
	return fmt.Sprintf("//*[@name=%s]", xpathLiteral(name))
}

// GetWindowNames returns the handles of all open windows.
func (d *Driver) GetWindowNames() ([]string, error) {
	if err := d.ready("list windows", ""); err != nil {
		return nil, err
	}
	handles, err := d.remote.WindowHandles()
	return handles, translate(err, "list windows", "")
}

// GetWindowName returns the handle of the current window.
func (d *Driver) GetWindowName() (string, error) {
	if err := d.ready("get window", ""); err != nil {
		return "", err
	}
	handle, err := d.remote.WindowHandle()
	return handle, translate(err, "get window", "")
}

// ResizeWindow resizes the current window. Named windows are not supported.
func (d *Driver) ResizeWindow(width, height int, name string) error {
	if err := d.ready("resize window", ""); err != nil {
		return err
	}
	if name != "" {
		return namedWindowUnsupported("resize window", name)
	}
	return translate(d.remote.SetWindowSize(width, height), "resize window", "")
}

// MaximizeWindow maximizes the current window. Named windows are not
// supported.
func (d *Driver) MaximizeWindow(name string) error {
	if err := d.ready("maximize window", ""); err != nil {
		return err
	}
	if name != "" {
		return namedWindowUnsupported("maximize window", name)
	}
	return translate(d.remote.MaximizeWindow(), "maximize window", "")
}

func namedWindowUnsupported(action, name string) error {
	return core.ErrInvalidAction.
		WithMessagef("%s: named windows are not supported (got %q)", action, name).
		WithDetails(map[string]interface{}{"action": action, "window": name})
}
