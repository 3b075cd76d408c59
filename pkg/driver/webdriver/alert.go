package webdriver

import (
	"github.com/devicelab-dev/wd-adapter/pkg/core"
)

// alert is a handle on whichever user prompt is open when a method is called.
type alert struct {
	d *Driver
}

// GetCurrentPromptOrAlert returns an alert handle, nil when no session is
// open. Whether a prompt is actually open is checked by the handle's methods.
func (d *Driver) GetCurrentPromptOrAlert() (core.Alert, error) {
	if d.session == nil {
		return nil, nil
	}
	return &alert{d: d}, nil
}

func (a *alert) Text() (string, error) {
	if err := a.d.ready("read alert", ""); err != nil {
		return "", err
	}
	text, err := a.d.remote.AlertText()
	return text, translate(err, "read alert", "")
}

func (a *alert) SendKeys(text string) error {
	if err := a.d.ready("answer prompt", ""); err != nil {
		return err
	}
	return translate(a.d.remote.SendAlertText(text), "answer prompt", "")
}

func (a *alert) Accept() error {
	if err := a.d.ready("accept alert", ""); err != nil {
		return err
	}
	return translate(a.d.remote.AcceptAlert(), "accept alert", "")
}

func (a *alert) Dismiss() error {
	if err := a.d.ready("dismiss alert", ""); err != nil {
		return err
	}
	return translate(a.d.remote.DismissAlert(), "dismiss alert", "")
}
