package webdriver

import (
	"go.uber.org/zap"

	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// maxClickDepth bounds how far below a rejected element Click looks for a
// clickable descendant.
const maxClickDepth = 8

// scrollIntoViewScript scrolls the element into view unless it is already
// the topmost element at its center.
const scrollIntoViewScript = `var node = {{ELEMENT}};
var rect = node.getBoundingClientRect();
var nodeAtRect = document.elementFromPoint(rect.left + (rect.width / 2), rect.top + (rect.height / 2));
if (!node.contains(nodeAtRect)) {
    node.scrollIntoView();
}`

// Click clicks the element. When the browser needs click compensation, the
// element is scrolled into view and hovered first, and a "not interactable"
// rejection is retried on its descendants in document order.
func (d *Driver) Click(xpath string) error {
	id, err := d.find(xpath, "click")
	if err != nil {
		return err
	}
	return d.clickElement(id, xpath)
}

func (d *Driver) clickElement(id, xpath string) error {
	if !d.quirks.NeedsClickCompensation() {
		return translate(d.remote.ElementClick(id), "click", xpath)
	}

	err := d.compensatedClick(id)
	if err == nil || !isNotInteractable(err) {
		return translate(err, "click", xpath)
	}

	d.log.Debug("click rejected, trying descendants", zap.String("xpath", xpath))
	clicked, abortErr := d.clickDescendant(id)
	if abortErr != nil {
		return translate(abortErr, "click", xpath)
	}
	if clicked {
		return nil
	}
	return translate(err, "click", xpath)
}

// compensatedClick scrolls, hovers and clicks.
func (d *Driver) compensatedClick(id string) error {
	if _, err := d.remote.ExecuteScript(bindElement(scrollIntoViewScript), []interface{}{wd.ElementArg(id)}); err != nil {
		return err
	}
	if err := d.remote.PerformActions(wd.NewPointer().MoveToElement(id)); err != nil {
		return err
	}
	return d.remote.ElementClick(id)
}

// clickDescendant walks the element's descendants depth first, in document
// order, until one accepts a click. Errors other than "not interactable" stop
// the walk and are returned.
func (d *Driver) clickDescendant(id string) (bool, error) {
	type node struct {
		id    string
		depth int
	}

	var stack []node
	push := func(parent string, depth int) error {
		children, err := d.remote.FindElementsFrom(parent, wd.ByXPath, "./*")
		if err != nil {
			return err
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, node{id: children[i], depth: depth})
		}
		return nil
	}

	if err := push(id, 1); err != nil {
		return false, err
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		err := d.compensatedClick(n.id)
		if err == nil {
			return true, nil
		}
		if !isNotInteractable(err) {
			return false, err
		}
		if n.depth < maxClickDepth {
			if err := push(n.id, n.depth+1); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// DoubleClick double-clicks the element.
func (d *Driver) DoubleClick(xpath string) error {
	return d.pointer(xpath, "double click", func(id string, p *wd.InputSource) {
		p.MoveToElement(id).Click(wd.ButtonLeft).Click(wd.ButtonLeft)
	})
}

// RightClick opens the context menu on the element.
func (d *Driver) RightClick(xpath string) error {
	return d.pointer(xpath, "right click", func(id string, p *wd.InputSource) {
		p.MoveToElement(id).Click(wd.ButtonRight)
	})
}

// MouseOver moves the pointer over the element.
func (d *Driver) MouseOver(xpath string) error {
	return d.pointer(xpath, "mouse over", func(id string, p *wd.InputSource) {
		p.MoveToElement(id)
	})
}

// Focus moves the pointer over the element and focuses it.
func (d *Driver) Focus(xpath string) error {
	if err := d.MouseOver(xpath); err != nil {
		return err
	}
	_, err := d.executeOnXpath(xpath, "focus", "return {{ELEMENT}}.focus()", true)
	return err
}

// Blur removes focus from the element.
func (d *Driver) Blur(xpath string) error {
	_, err := d.executeOnXpath(xpath, "blur", "return {{ELEMENT}}.blur()", true)
	return err
}

// DragTo drags the source element onto the destination element.
func (d *Driver) DragTo(sourceXpath, destinationXpath string) error {
	source, err := d.find(sourceXpath, "drag")
	if err != nil {
		return err
	}
	destination, err := d.find(destinationXpath, "drop")
	if err != nil {
		return err
	}
	p := wd.NewPointer().
		MoveToElement(source).
		Down(wd.ButtonLeft).
		MoveToElement(destination).
		Up(wd.ButtonLeft)
	return translate(d.remote.PerformActions(p), "drag to "+destinationXpath, sourceXpath)
}

// pointer locates xpath and performs the pointer actions built by fill.
func (d *Driver) pointer(xpath, action string, fill func(id string, p *wd.InputSource)) error {
	id, err := d.find(xpath, action)
	if err != nil {
		return err
	}
	p := wd.NewPointer()
	fill(id, p)
	return translate(d.remote.PerformActions(p), action, xpath)
}
