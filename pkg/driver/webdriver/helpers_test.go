package webdriver

import (
	"errors"
	"testing"
	"time"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/driver/mock"
)

// newStarted returns a started driver for browser backed by a fresh mock.
func newStarted(t *testing.T, browser string) (*Driver, *mock.Browser) {
	t.Helper()
	b := mock.NewBrowser()
	d := New(b, Options{Browser: browser, PollInterval: 5 * time.Millisecond})
	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return d, b
}

func input(typ string) *mock.Element {
	return &mock.Element{Tag: "input", Attrs: map[string]string{"type": typ}}
}

func option(value, text string) *mock.Element {
	return &mock.Element{Tag: "option", Attrs: map[string]string{"value": value}, Text: text}
}

// place adds el to the document and registers xpath for it.
func place(b *mock.Browser, xpath string, el *mock.Element) *mock.Element {
	b.AddElement(nil, el)
	b.AddQuery("", xpath, el)
	return el
}

func assertIs(t *testing.T, err error, target *core.ExecutionError) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", target.Code)
	}
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want %s", err, target.Code)
	}
}
