// Package webdriver implements core.Driver on top of a W3C WebDriver remote.
//
// The Driver owns one remote session at a time. Every operation re-resolves
// its XPath locator; element ids are never kept between calls.
package webdriver

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/logger"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// DefaultBrowser is used when Options.Browser is empty.
const DefaultBrowser = "firefox"

// DefaultPollInterval is how often Wait re-evaluates its condition.
const DefaultPollInterval = 250 * time.Millisecond

// Options configures a Driver.
type Options struct {
	// Browser selects default capabilities and quirks.
	Browser string

	// Capabilities are merged over the browser defaults when a session starts.
	Capabilities map[string]interface{}

	// Quirks overrides the quirks derived from Browser.
	Quirks BrowserQuirks

	// PollInterval is the Wait polling interval.
	PollInterval time.Duration

	// FileUpload sends local files to the remote end before attaching them.
	FileUpload bool
}

// Driver implements core.Driver using a WebDriver remote.
type Driver struct {
	remote       wd.Remote
	browserName  string
	capabilities map[string]interface{}
	quirks       BrowserQuirks
	pollInterval time.Duration
	fileUpload   bool

	timeouts core.TimeoutConfig
	session  *session
	log      *zap.Logger
}

var _ core.Driver = (*Driver)(nil)

// New creates a driver for the given remote. No session is opened until Start.
func New(remote wd.Remote, opts Options) *Driver {
	browser := strings.ToLower(opts.Browser)
	if browser == "" {
		browser = DefaultBrowser
	}
	quirks := opts.Quirks
	if quirks == nil {
		quirks = QuirksFor(browser)
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Driver{
		remote:       remote,
		browserName:  browser,
		capabilities: copyCapabilities(opts.Capabilities),
		quirks:       quirks,
		pollInterval: poll,
		fileUpload:   opts.FileUpload,
		log:          logger.Named("webdriver"),
	}
}

// NewRemote creates a driver talking HTTP to the WebDriver server at host.
func NewRemote(host string, opts Options) *Driver {
	return New(wd.NewClient(host), opts)
}

// BrowserName returns the configured browser name.
func (d *Driver) BrowserName() string {
	return d.browserName
}

// Start opens a session. It is a no-op when one is already open.
func (d *Driver) Start() error {
	if d.session != nil {
		return nil
	}

	info, err := d.remote.NewSession(d.Capabilities())
	if err != nil {
		return failure(core.ErrConnection, "open session", "", err)
	}
	root, err := d.remote.WindowHandle()
	if err != nil {
		d.abandon()
		return failure(core.ErrConnection, "read root window", "", err)
	}
	d.session = newSession(info, root)

	if len(d.timeouts) > 0 {
		if err := d.applyTimeouts(); err != nil {
			d.abandon()
			return failure(core.ErrConnection, "apply timeouts", "", err)
		}
	}

	d.log.Debug("session started",
		zap.String("session", info.ID),
		zap.String("browser", info.BrowserName),
		zap.String("rootWindow", root))
	return nil
}

// abandon deletes a half-initialized session. Errors are logged only, the
// caller is already reporting the failure that led here.
func (d *Driver) abandon() {
	if err := d.remote.DeleteSession(); err != nil {
		d.log.Warn("failed to delete session", zap.Error(err))
	}
	d.session = nil
}

// IsStarted reports whether a session is open.
func (d *Driver) IsStarted() bool {
	return d.session != nil
}

// Stop closes the session. The session is kept when the remote end fails to
// close it.
func (d *Driver) Stop() error {
	if d.session == nil {
		return failure(core.ErrNotConnected, "stop session", "", nil)
	}
	if err := d.remote.DeleteSession(); err != nil {
		return failure(core.ErrConnection, "close session", "", err)
	}
	d.log.Debug("session stopped", zap.String("session", d.session.id))
	d.session = nil
	return nil
}

// Reset clears cookies, maximizes the window and forgets configured timeouts.
// The session stays open.
func (d *Driver) Reset() error {
	if err := d.ready("reset", ""); err != nil {
		return err
	}
	if err := d.remote.DeleteAllCookies(); err != nil {
		return translate(err, "delete cookies", "")
	}
	if err := d.remote.MaximizeWindow(); err != nil {
		return translate(err, "maximize window", "")
	}
	d.timeouts = nil
	return nil
}

// SetTimeouts stores timeouts and applies them when a session is open. They
// are re-applied to every new session until Reset. Without a session they
// are stored unchecked and validated by Start; with one, an invalid config
// is rejected and the previous one kept.
func (d *Driver) SetTimeouts(timeouts core.TimeoutConfig) error {
	if d.session == nil {
		d.timeouts = timeouts.Clone()
		return nil
	}
	t, err := timeoutRequest(timeouts)
	if err != nil {
		return err
	}
	d.timeouts = timeouts.Clone()
	if err := d.remote.SetTimeouts(t); err != nil {
		return translate(err, "set timeouts", "")
	}
	return nil
}

// SetCapabilities replaces the user capabilities. It fails once a session is
// open.
func (d *Driver) SetCapabilities(capabilities map[string]interface{}) error {
	if d.session != nil {
		return core.ErrInvalidAction.WithMessage("unable to set capabilities, the session has already started")
	}
	d.capabilities = copyCapabilities(capabilities)
	return nil
}

// Capabilities returns the browser defaults merged with user capabilities.
func (d *Driver) Capabilities() map[string]interface{} {
	caps := defaultCapabilities(d.browserName)
	for k, v := range d.capabilities {
		caps[k] = v
	}
	return caps
}

// SessionID returns the remote session id, "" when no session is open.
func (d *Driver) SessionID() string {
	if d.session == nil {
		return ""
	}
	return d.session.id
}

// ready fails with ErrNotConnected when no session is open.
func (d *Driver) ready(action, xpath string) error {
	if d.session == nil {
		return failure(core.ErrNotConnected, action, xpath, nil)
	}
	return nil
}

func defaultCapabilities(browser string) map[string]interface{} {
	switch browser {
	case "firefox", "chrome":
		return map[string]interface{}{"browserName": browser}
	default:
		return map[string]interface{}{}
	}
}

func copyCapabilities(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
