package webdriver

import (
	"fmt"
	"strings"

	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// find resolves xpath to a single element.
func (d *Driver) find(xpath, action string) (string, error) {
	if err := d.ready(action, xpath); err != nil {
		return "", err
	}
	id, err := d.remote.FindElement(wd.ByXPath, xpath)
	if err != nil {
		return "", translate(err, action, xpath)
	}
	return id, nil
}

// FindElementXpaths returns one indexed expression per element matching
// xpath: "(xpath)[1]", "(xpath)[2]", ...
func (d *Driver) FindElementXpaths(xpath string) ([]string, error) {
	if err := d.ready("find elements", xpath); err != nil {
		return nil, err
	}
	ids, err := d.remote.FindElements(wd.ByXPath, xpath)
	if err != nil {
		return nil, translate(err, "find elements", xpath)
	}
	xpaths := make([]string, 0, len(ids))
	for i := range ids {
		xpaths = append(xpaths, fmt.Sprintf("(%s)[%d]", xpath, i+1))
	}
	return xpaths, nil
}

// GetTagName returns the element's tag name.
func (d *Driver) GetTagName(xpath string) (string, error) {
	id, err := d.find(xpath, "get tag name")
	if err != nil {
		return "", err
	}
	tag, err := d.remote.ElementTagName(id)
	return tag, translate(err, "get tag name", xpath)
}

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// GetText returns the visible text with each CR and LF turned into a space.
func (d *Driver) GetText(xpath string) (string, error) {
	id, err := d.find(xpath, "get text")
	if err != nil {
		return "", err
	}
	text, err := d.remote.ElementText(id)
	if err != nil {
		return "", translate(err, "get text", xpath)
	}
	return lineBreaks.Replace(text), nil
}

// GetHTML returns the element's inner HTML.
func (d *Driver) GetHTML(xpath string) (string, error) {
	return d.scriptString(xpath, "get html", "return {{ELEMENT}}.innerHTML;")
}

// GetOuterHTML returns the element's outer HTML.
func (d *Driver) GetOuterHTML(xpath string) (string, error) {
	return d.scriptString(xpath, "get outer html", "return {{ELEMENT}}.outerHTML;")
}

func (d *Driver) scriptString(xpath, action, script string) (string, error) {
	result, err := d.executeOnXpath(xpath, action, script, true)
	if err != nil {
		return "", err
	}
	s, _ := result.(string)
	return s, nil
}

// GetAttribute returns an attribute value and whether the attribute is set.
func (d *Driver) GetAttribute(xpath, name string) (string, bool, error) {
	id, err := d.find(xpath, "get attribute")
	if err != nil {
		return "", false, err
	}
	value, ok, err := d.remote.ElementAttribute(id, name)
	if err != nil {
		return "", false, translate(err, "get attribute "+name, xpath)
	}
	return value, ok, nil
}

// IsVisible reports whether the element is displayed.
func (d *Driver) IsVisible(xpath string) (bool, error) {
	id, err := d.find(xpath, "check visibility")
	if err != nil {
		return false, err
	}
	visible, err := d.remote.ElementDisplayed(id)
	return visible, translate(err, "check visibility", xpath)
}

// IsSelected reports whether an option, checkbox or radio is selected.
func (d *Driver) IsSelected(xpath string) (bool, error) {
	id, err := d.find(xpath, "check selection")
	if err != nil {
		return false, err
	}
	selected, err := d.remote.ElementSelected(id)
	return selected, translate(err, "check selection", xpath)
}

// IsChecked is IsSelected for checkboxes and radios.
func (d *Driver) IsChecked(xpath string) (bool, error) {
	return d.IsSelected(xpath)
}

// tagName returns the lower-cased tag of an element.
func (d *Driver) tagName(id, xpath, action string) (string, error) {
	tag, err := d.remote.ElementTagName(id)
	if err != nil {
		return "", translate(err, action, xpath)
	}
	return strings.ToLower(tag), nil
}

// inputType returns the lower-cased type attribute, "text" when unset.
func (d *Driver) inputType(id, xpath, action string) (string, error) {
	typ, _, err := d.remote.ElementAttribute(id, "type")
	if err != nil {
		return "", translate(err, action, xpath)
	}
	if typ == "" {
		return "text", nil
	}
	return strings.ToLower(typ), nil
}

// xpathLiteral quotes s as an XPath string literal.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
