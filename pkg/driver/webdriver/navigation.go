package webdriver

import (
	"strings"
)

// Visit navigates to url. A page load exceeding the pageLoad timeout fails
// with ErrNavigationTimeout.
func (d *Driver) Visit(url string) error {
	if err := d.ready("visit "+url, ""); err != nil {
		return err
	}
	return translateNavigation(d.remote.Navigate(url), "visit "+url)
}

// Reload reloads the current page.
func (d *Driver) Reload() error {
	if err := d.ready("reload", ""); err != nil {
		return err
	}
	return translateNavigation(d.remote.Refresh(), "reload")
}

// Back goes back in history.
func (d *Driver) Back() error {
	if err := d.ready("back", ""); err != nil {
		return err
	}
	return translate(d.remote.Back(), "back", "")
}

// Forward goes forward in history.
func (d *Driver) Forward() error {
	if err := d.ready("forward", ""); err != nil {
		return err
	}
	return translate(d.remote.Forward(), "forward", "")
}

// GetCurrentURL returns the URL of the current page.
func (d *Driver) GetCurrentURL() (string, error) {
	if err := d.ready("get current url", ""); err != nil {
		return "", err
	}
	u, err := d.remote.CurrentURL()
	return u, translate(err, "get current url", "")
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// GetContent returns the page source with "\n" line endings.
func (d *Driver) GetContent() (string, error) {
	if err := d.ready("get content", ""); err != nil {
		return "", err
	}
	source, err := d.remote.PageSource()
	if err != nil {
		return "", translate(err, "get content", "")
	}
	return lineEndings.Replace(source), nil
}

// GetScreenshot returns a PNG of the current window.
func (d *Driver) GetScreenshot() ([]byte, error) {
	if err := d.ready("take screenshot", ""); err != nil {
		return nil, err
	}
	png, err := d.remote.Screenshot()
	return png, translate(err, "take screenshot", "")
}
