package webdriver

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// changeEventScript fires "change" after typing; browsers only fire it on blur.
const changeEventScript = `{{ELEMENT}}.dispatchEvent(new Event("change", {
    bubbles: true,
    cancelable: false,
}));`

// GetValue returns the logical value of a form element:
//   - checkbox: its value when checked, else null
//   - radio: the value of the checked radio of its group, else null
//   - multiple select: the selected values in option order
//   - select: the first selected value, else ""
//   - anything else: the live value property, null when unset
func (d *Driver) GetValue(xpath string) (core.Value, error) {
	const action = "get value"
	id, err := d.find(xpath, action)
	if err != nil {
		return core.Null(), err
	}
	tag, err := d.tagName(id, xpath, action)
	if err != nil {
		return core.Null(), err
	}

	switch tag {
	case "input":
		typ, err := d.inputType(id, xpath, action)
		if err != nil {
			return core.Null(), err
		}
		switch typ {
		case "checkbox":
			selected, err := d.remote.ElementSelected(id)
			if err != nil {
				return core.Null(), translate(err, action, xpath)
			}
			if !selected {
				return core.Null(), nil
			}
		case "radio":
			group, err := d.radioGroup(id, xpath, action)
			if err != nil {
				return core.Null(), err
			}
			res, err := d.firstSelected(group, xpath, action)
			if err != nil {
				return core.Null(), err
			}
			if res.state != choiceFound {
				return core.Null(), nil
			}
			return core.String(res.value), nil
		}

	case "select":
		options, err := d.selectOptions(id, xpath, action)
		if err != nil {
			return core.Null(), err
		}
		multiple, err := d.isMultiple(id, xpath, action)
		if err != nil {
			return core.Null(), err
		}
		if multiple {
			selected, err := d.allSelected(options, xpath, action)
			if err != nil {
				return core.Null(), err
			}
			values := make([]string, 0, len(selected))
			for _, c := range selected {
				values = append(values, c.value)
			}
			return core.List(values...), nil
		}
		res, err := d.firstSelected(options, xpath, action)
		if err != nil {
			return core.Null(), err
		}
		return core.String(res.value), nil
	}

	value, ok, err := d.remote.ElementProperty(id, "value")
	if err != nil {
		return core.Null(), translate(err, action, xpath)
	}
	if !ok {
		return core.Null(), nil
	}
	return core.String(value), nil
}

// SetValue writes the logical value of a form element. See GetValue for the
// shape each element kind expects.
func (d *Driver) SetValue(xpath string, value core.Value) error {
	const action = "set value"
	id, err := d.find(xpath, action)
	if err != nil {
		return err
	}
	tag, err := d.tagName(id, xpath, action)
	if err != nil {
		return err
	}

	if tag == "select" {
		return d.setSelect(id, xpath, value)
	}

	if tag == "input" {
		typ, err := d.inputType(id, xpath, action)
		if err != nil {
			return err
		}
		switch typ {
		case "submit", "image", "button", "reset":
			return core.ErrInvalidAction.
				WithMessagef("impossible to set value on the element with XPath %q as it is not a select, textarea or textbox", xpath).
				WithDetails(map[string]interface{}{"action": action, "xpath": xpath})
		case "checkbox":
			return d.setChecked(id, xpath, value.Truthy())
		case "radio":
			return d.selectRadio(id, xpath, value.Text(), action)
		case "file":
			return d.AttachFile(xpath, value.Text())
		case "color":
			literal, _ := json.Marshal(value.Text())
			_, err := d.executeOnElement(id, xpath, action, fmt.Sprintf("return {{ELEMENT}}.value = %s", literal), true)
			return err
		case "date", "time":
			date, err := normalizeDate(value.Text())
			if err != nil {
				return core.ErrInvalidArgument.
					WithMessagef("cannot parse %q as a date or time for the element with XPath %q", value.Text(), xpath).
					WithDetails(map[string]interface{}{"action": action, "xpath": xpath}).
					WithCause(err)
			}
			_, err = d.executeOnElement(id, xpath, action, fmt.Sprintf(`return {{ELEMENT}}.valueAsDate = new Date("%s")`, date), true)
			return err
		}
	}

	keys := value.Text()
	if tag == "input" || tag == "textarea" {
		existing, _, err := d.remote.ElementProperty(id, "value")
		if err != nil {
			return translate(err, action, xpath)
		}
		keys = strings.Repeat(wd.KeyBackspace+wd.KeyDelete, utf8.RuneCountInString(existing)) + keys
	}
	if err := d.remote.ElementSendKeys(id, keys); err != nil {
		return translate(err, action, xpath)
	}

	_, err = d.executeOnXpath(xpath, action, changeEventScript, true)
	return err
}

func (d *Driver) setSelect(id, xpath string, value core.Value) error {
	const action = "set value"
	options, err := d.selectOptions(id, xpath, action)
	if err != nil {
		return err
	}
	multiple, err := d.isMultiple(id, xpath, action)
	if err != nil {
		return err
	}

	values, isList := value.AsList()
	if !isList {
		values = []string{value.Text()}
	} else if !multiple && len(values) != 1 {
		return core.ErrInvalidAction.
			WithMessagef("cannot select %d options on the single select with XPath %q", len(values), xpath).
			WithDetails(map[string]interface{}{"action": action, "xpath": xpath})
	}

	if multiple {
		if err := d.deselectAll(options, xpath, action); err != nil {
			return err
		}
	}
	for _, v := range values {
		if err := d.selectByValue(options, xpath, v, action); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) selectByValue(options []choice, xpath, value, action string) error {
	res := byValue(options, value, true)
	if res.state == choiceMissing {
		return core.ErrNoSuchElement.
			WithMessagef("cannot locate option with value or text %q in the select with XPath %q", value, xpath).
			WithDetails(map[string]interface{}{"action": action, "xpath": xpath, "value": value})
	}
	return d.pick(res, xpath, action)
}

func (d *Driver) selectRadio(id, xpath, value, action string) error {
	group, err := d.radioGroup(id, xpath, action)
	if err != nil {
		return err
	}
	res := byValue(group, value, false)
	if res.state == choiceMissing {
		return core.ErrNoSuchElement.
			WithMessagef("cannot locate radio with value %q in the group of the element with XPath %q", value, xpath).
			WithDetails(map[string]interface{}{"action": action, "xpath": xpath, "value": value})
	}
	return d.pick(res, xpath, action)
}

// setChecked clicks a checkbox when its state differs from checked.
func (d *Driver) setChecked(id, xpath string, checked bool) error {
	selected, err := d.remote.ElementSelected(id)
	if err != nil {
		return translate(err, "set value", xpath)
	}
	if selected == checked {
		return nil
	}
	return d.clickElement(id, xpath)
}

// Check checks a checkbox.
func (d *Driver) Check(xpath string) error {
	id, err := d.find(xpath, "check")
	if err != nil {
		return err
	}
	if err := d.ensureInputType(id, xpath, "checkbox", "check"); err != nil {
		return err
	}
	return d.setChecked(id, xpath, true)
}

// Uncheck unchecks a checkbox.
func (d *Driver) Uncheck(xpath string) error {
	id, err := d.find(xpath, "uncheck")
	if err != nil {
		return err
	}
	if err := d.ensureInputType(id, xpath, "checkbox", "uncheck"); err != nil {
		return err
	}
	return d.setChecked(id, xpath, false)
}

// SelectOption selects an option of a select by value or visible text, or a
// radio of a group by value. Unless multiple is set, other options of a
// multiple select are deselected first.
func (d *Driver) SelectOption(xpath, value string, multiple bool) error {
	const action = "select option"
	id, err := d.find(xpath, action)
	if err != nil {
		return err
	}
	tag, err := d.tagName(id, xpath, action)
	if err != nil {
		return err
	}

	switch tag {
	case "input":
		typ, err := d.inputType(id, xpath, action)
		if err != nil {
			return err
		}
		if typ == "radio" {
			return d.selectRadio(id, xpath, value, action)
		}
	case "select":
		options, err := d.selectOptions(id, xpath, action)
		if err != nil {
			return err
		}
		isMultiple, err := d.isMultiple(id, xpath, action)
		if err != nil {
			return err
		}
		if !multiple && isMultiple {
			if err := d.deselectAll(options, xpath, action); err != nil {
				return err
			}
		}
		return d.selectByValue(options, xpath, value, action)
	}

	return core.ErrInvalidAction.
		WithMessagef("impossible to select an option on the element with XPath %q as it is not a select or radio input", xpath).
		WithDetails(map[string]interface{}{"action": action, "xpath": xpath})
}

// AttachFile types path into a file input. With file upload enabled, a path
// that exists locally is first sent to the remote end.
func (d *Driver) AttachFile(xpath, path string) error {
	const action = "attach a file on"
	id, err := d.find(xpath, action)
	if err != nil {
		return err
	}
	if err := d.ensureInputType(id, xpath, "file", action); err != nil {
		return err
	}

	target := path
	if d.fileUpload {
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			remotePath, err := d.remote.UploadFile(path)
			if err != nil {
				return translate(err, "upload file "+path, xpath)
			}
			target = remotePath
		}
	}
	return translate(d.remote.ElementSendKeys(id, target), action, xpath)
}

// submitScript submits the element's form, or the element itself when it is
// a form, firing the submit event first.
const submitScript = `var form = {{ELEMENT}};
if (form.tagName.toLowerCase() !== "form") {
    form = form.form;
}
if (!form) {
    throw new Error("element is not in a form");
}
var event = new Event("submit", {bubbles: true, cancelable: true});
if (form.dispatchEvent(event)) {
    HTMLFormElement.prototype.submit.call(form);
}`

// SubmitForm submits the form containing the element.
func (d *Driver) SubmitForm(xpath string) error {
	_, err := d.executeOnXpath(xpath, "submit form", submitScript, true)
	return err
}

// ensureInputType fails with ErrInvalidAction unless the element is an input
// of the given type.
func (d *Driver) ensureInputType(id, xpath, typ, action string) error {
	tag, err := d.tagName(id, xpath, action)
	if err != nil {
		return err
	}
	actual := ""
	if tag == "input" {
		if actual, err = d.inputType(id, xpath, action); err != nil {
			return err
		}
	}
	if tag != "input" || actual != typ {
		return core.ErrInvalidAction.
			WithMessagef("impossible to %s the element with XPath %q as it is not a %s input", action, xpath, typ).
			WithDetails(map[string]interface{}{"action": action, "xpath": xpath})
	}
	return nil
}

// clockLayouts cover time-only input, which dateparse rejects.
var clockLayouts = []string{"15:04", "15:04:05"}

// normalizeDate parses a date or time and formats it as RFC 3339. Times
// without a date are placed on the current day.
func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			now := time.Now()
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
			return t.Format(time.RFC3339), nil
		}
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return "", err
	}
	return t.Format(time.RFC3339), nil
}
