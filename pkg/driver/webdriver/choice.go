package webdriver

import (
	"fmt"

	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// choiceState is the outcome of looking for an option or radio.
type choiceState int

const (
	choiceFound choiceState = iota
	choiceUnselected
	choiceMissing
)

// choiceResult is what the select and radio query layer returns instead of
// errors for "nothing selected" and "no such value".
type choiceResult struct {
	state choiceState
	id    string
	value string
}

// choice is one option of a select or one radio of a group.
type choice struct {
	id    string
	value string
	text  string
}

// selectOptions lists the options of a select in document order.
func (d *Driver) selectOptions(selectID, xpath, action string) ([]choice, error) {
	ids, err := d.remote.FindElementsFrom(selectID, wd.ByXPath, ".//option")
	if err != nil {
		return nil, translate(err, action, xpath)
	}
	options := make([]choice, 0, len(ids))
	for _, id := range ids {
		text, err := d.remote.ElementText(id)
		if err != nil {
			return nil, translate(err, action, xpath)
		}
		value, ok, err := d.remote.ElementProperty(id, "value")
		if err != nil {
			return nil, translate(err, action, xpath)
		}
		if !ok {
			value = text
		}
		options = append(options, choice{id: id, value: value, text: text})
	}
	return options, nil
}

// isMultiple reports whether a select accepts several options.
func (d *Driver) isMultiple(selectID, xpath, action string) (bool, error) {
	v, ok, err := d.remote.ElementAttribute(selectID, "multiple")
	if err != nil {
		return false, translate(err, action, xpath)
	}
	return ok && v != "false", nil
}

// radioGroup lists the radios sharing the element's name: within its form
// when it has one, else among the radios outside any form. A radio without a
// name is its own group.
func (d *Driver) radioGroup(radioID, xpath, action string) ([]choice, error) {
	name, _, err := d.remote.ElementAttribute(radioID, "name")
	if err != nil {
		return nil, translate(err, action, xpath)
	}

	ids := []string{radioID}
	if name != "" {
		inForm, err := d.remote.FindElementsFrom(radioID, wd.ByXPath, formRadiosXpath(name))
		if err != nil {
			return nil, translate(err, action, xpath)
		}
		if len(inForm) > 0 {
			ids = inForm
		} else {
			loose, err := d.remote.FindElements(wd.ByXPath, looseRadiosXpath(name))
			if err != nil {
				return nil, translate(err, action, xpath)
			}
			if len(loose) > 0 {
				ids = loose
			}
		}
	}

	group := make([]choice, 0, len(ids))
	for _, id := range ids {
		value, _, err := d.remote.ElementProperty(id, "value")
		if err != nil {
			return nil, translate(err, action, xpath)
		}
		group = append(group, choice{id: id, value: value})
	}
	return group, nil
}

func formRadiosXpath(name string) string {
	return fmt.Sprintf(`ancestor::form[1]//input[@type="radio" and @name=%s]`, xpathLiteral(name))
}

func looseRadiosXpath(name string) string {
	return fmt.Sprintf(`//input[@type="radio" and @name=%s and not(ancestor::form)]`, xpathLiteral(name))
}

// firstSelected returns the first selected choice.
func (d *Driver) firstSelected(choices []choice, xpath, action string) (choiceResult, error) {
	for _, c := range choices {
		selected, err := d.remote.ElementSelected(c.id)
		if err != nil {
			return choiceResult{}, translate(err, action, xpath)
		}
		if selected {
			return choiceResult{state: choiceFound, id: c.id, value: c.value}, nil
		}
	}
	return choiceResult{state: choiceUnselected}, nil
}

// allSelected returns the selected choices in document order.
func (d *Driver) allSelected(choices []choice, xpath, action string) ([]choice, error) {
	var selected []choice
	for _, c := range choices {
		ok, err := d.remote.ElementSelected(c.id)
		if err != nil {
			return nil, translate(err, action, xpath)
		}
		if ok {
			selected = append(selected, c)
		}
	}
	return selected, nil
}

// byValue finds the choice with the given value, or else by visible text when
// byText is set.
func byValue(choices []choice, value string, byText bool) choiceResult {
	for _, c := range choices {
		if c.value == value {
			return choiceResult{state: choiceFound, id: c.id, value: c.value}
		}
	}
	if byText {
		for _, c := range choices {
			if c.text == value {
				return choiceResult{state: choiceFound, id: c.id, value: c.value}
			}
		}
	}
	return choiceResult{state: choiceMissing}
}

// pick selects a choice unless it is already selected.
func (d *Driver) pick(c choiceResult, xpath, action string) error {
	selected, err := d.remote.ElementSelected(c.id)
	if err != nil {
		return translate(err, action, xpath)
	}
	if selected {
		return nil
	}
	return translate(d.remote.ElementClick(c.id), action, xpath)
}

// deselectAll clears every selected option of a multiple select.
func (d *Driver) deselectAll(options []choice, xpath, action string) error {
	selected, err := d.allSelected(options, xpath, action)
	if err != nil {
		return err
	}
	for _, c := range selected {
		if err := d.remote.ElementClick(c.id); err != nil {
			return translate(err, action, xpath)
		}
	}
	return nil
}
