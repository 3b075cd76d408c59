package webdriver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/driver/mock"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// newFirefoxWindows starts a firefox driver on a remote that only accepts
// handles, with two named popups open.
func newFirefoxWindows(t *testing.T) (*Driver, *mock.Browser) {
	t.Helper()
	b := mock.NewBrowser()
	b.ResolveWindowNames = false
	d := New(b, Options{Browser: "firefox"})
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	b.OpenWindow("h1", "popup1")
	b.OpenWindow("h2", "popup2")
	return d, b
}

func TestSwitchToWindow_ByName(t *testing.T) {
	d, b := newFirefoxWindows(t)

	if err := d.SwitchToWindow("popup2"); err != nil {
		t.Fatalf("SwitchToWindow() error = %v", err)
	}
	if b.CurrentWindow() != "h2" {
		t.Errorf("current window = %s, want h2", b.CurrentWindow())
	}
	// Both popups were probed once, the root never.
	if diff := cmp.Diff([]string{"h1", "h2", "h2"}, b.Switches); diff != "" {
		t.Errorf("switches mismatch (-want +got):\n%s", diff)
	}

	b.Switches = nil
	if err := d.SwitchToWindow("popup1"); err != nil {
		t.Fatalf("SwitchToWindow() error = %v", err)
	}
	if diff := cmp.Diff([]string{"h1"}, b.Switches); diff != "" {
		t.Errorf("known handles must not be probed again (-want +got):\n%s", diff)
	}
}

func TestSwitchToWindow_ReopenedPopup(t *testing.T) {
	d, b := newFirefoxWindows(t)
	if err := d.SwitchToWindow("popup1"); err != nil {
		t.Fatalf("SwitchToWindow() error = %v", err)
	}

	b.CloseWindow("h1")
	b.OpenWindow("h3", "popup1")
	b.Switches = nil

	if err := d.SwitchToWindow("popup1"); err != nil {
		t.Fatalf("SwitchToWindow() error = %v", err)
	}
	if b.CurrentWindow() != "h3" {
		t.Errorf("current window = %s, want the reopened h3", b.CurrentWindow())
	}
	if diff := cmp.Diff([]string{"h3", "h3"}, b.Switches); diff != "" {
		t.Errorf("switches mismatch (-want +got):\n%s", diff)
	}
}

func TestSwitchToWindow_Root(t *testing.T) {
	for _, browser := range []string{"firefox", "chrome"} {
		t.Run(browser, func(t *testing.T) {
			d, b := newStarted(t, browser)
			b.OpenWindow("h1", "popup")
			if err := d.SwitchToWindow("popup"); err != nil {
				t.Fatalf("SwitchToWindow(popup) error = %v", err)
			}

			if err := d.SwitchToWindow(""); err != nil {
				t.Fatalf("SwitchToWindow(\"\") error = %v", err)
			}
			if b.CurrentWindow() != "window-0" {
				t.Errorf("current window = %s, want the root window", b.CurrentWindow())
			}
		})
	}
}

func TestSwitchToWindow_Native(t *testing.T) {
	d, b := newStarted(t, "chrome")
	b.OpenWindow("h1", "popup1")

	if err := d.SwitchToWindow("popup1"); err != nil {
		t.Fatalf("SwitchToWindow() error = %v", err)
	}
	if diff := cmp.Diff([]string{"popup1"}, b.Switches); diff != "" {
		t.Errorf("names should be passed through (-want +got):\n%s", diff)
	}
	if len(b.Scripts) != 0 {
		t.Error("native name resolution should not probe windows")
	}
	if b.CurrentWindow() != "h1" {
		t.Errorf("current window = %s, want h1", b.CurrentWindow())
	}
}

func TestSwitchToWindow_Unknown(t *testing.T) {
	d, _ := newFirefoxWindows(t)

	if err := d.SwitchToWindow("nope"); err == nil {
		t.Error("expected error for an unknown window")
	}
}

func TestWindowNames(t *testing.T) {
	d, b := newStarted(t, "firefox")
	b.OpenWindow("h1", "popup")

	names, err := d.GetWindowNames()
	if err != nil {
		t.Fatalf("GetWindowNames() error = %v", err)
	}
	if diff := cmp.Diff([]string{"window-0", "h1"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	name, err := d.GetWindowName()
	if err != nil || name != "window-0" {
		t.Errorf("GetWindowName() = %q, %v", name, err)
	}
}

func TestSwitchToIFrame(t *testing.T) {
	d, b := newStarted(t, "firefox")
	frame := place(b, frameXpath("content"), &mock.Element{Tag: "iframe", Attrs: map[string]string{"name": "content"}})

	if err := d.SwitchToIFrame("content"); err != nil {
		t.Fatalf("SwitchToIFrame() error = %v", err)
	}
	if err := d.SwitchToIFrame(""); err != nil {
		t.Fatalf("SwitchToIFrame(\"\") error = %v", err)
	}

	if len(b.Frames) != 2 {
		t.Fatalf("frame switches = %d, want 2", len(b.Frames))
	}
	if got := wd.ElementID(b.Frames[0]); got != frame.ID {
		t.Errorf("frame = %s, want %s", got, frame.ID)
	}
	if b.Frames[1] != nil {
		t.Errorf("empty name should select the top-level document, got %v", b.Frames[1])
	}

	assertIs(t, d.SwitchToIFrame("missing"), core.ErrNoSuchElement)
}

func TestResizeAndMaximize(t *testing.T) {
	d, b := newStarted(t, "firefox")

	if err := d.ResizeWindow(1024, 768, ""); err != nil {
		t.Fatalf("ResizeWindow() error = %v", err)
	}
	if diff := cmp.Diff([][2]int{{1024, 768}}, b.WindowSizes); diff != "" {
		t.Errorf("sizes mismatch (-want +got):\n%s", diff)
	}
	if err := d.MaximizeWindow(""); err != nil {
		t.Fatalf("MaximizeWindow() error = %v", err)
	}

	assertIs(t, d.ResizeWindow(800, 600, "popup"), core.ErrInvalidAction)
	assertIs(t, d.MaximizeWindow("popup"), core.ErrInvalidAction)
}

func TestXpathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `'say "hi"'`},
		{`it's "x"`, `concat("it's ", '"', "x", '"')`},
	}
	for _, tt := range tests {
		if got := xpathLiteral(tt.in); got != tt.want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
