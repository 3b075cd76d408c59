package webdriver

import (
	"net/url"
	"strings"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// GetCookie returns the decoded cookie value and whether the cookie exists.
func (d *Driver) GetCookie(name string) (string, bool, error) {
	if err := d.ready("get cookie "+name, ""); err != nil {
		return "", false, err
	}
	cookie, err := d.remote.Cookie(name)
	if wd.IsCode(err, wd.ErrCodeNoSuchCookie) {
		return "", false, nil
	}
	if err != nil {
		return "", false, translate(err, "get cookie "+name, "")
	}
	value, err := url.PathUnescape(cookie.Value)
	if err != nil {
		return cookie.Value, true, nil
	}
	return value, true, nil
}

// SetCookie stores a cookie for the current page. A null value deletes it.
func (d *Driver) SetCookie(name string, value core.Value) error {
	if err := d.ready("set cookie "+name, ""); err != nil {
		return err
	}
	if value.IsNull() {
		return translate(d.remote.DeleteCookie(name), "delete cookie "+name, "")
	}
	cookie := wd.Cookie{Name: name, Value: rawURLEncode(value.Text())}
	return translate(d.remote.AddCookie(cookie), "set cookie "+name, "")
}

// rawURLEncode percent-encodes everything but unreserved characters, spaces
// included.
func rawURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
