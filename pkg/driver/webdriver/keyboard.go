package webdriver

import (
	"strconv"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// modifierKeys maps modifier names to key code points.
var modifierKeys = map[string]string{
	"alt":        wd.KeyAlt,
	"left alt":   wd.KeyLeftAlt,
	"ctrl":       wd.KeyControl,
	"left ctrl":  wd.KeyLeftControl,
	"shift":      wd.KeyShift,
	"left shift": wd.KeyLeftShift,
	"meta":       wd.KeyMeta,
	"command":    wd.KeyCommand,
}

// keyModifier resolves a modifier name. Other strings are returned as is so
// raw code points pass through.
func keyModifier(modifier string) string {
	if key, ok := modifierKeys[modifier]; ok {
		return key
	}
	return modifier
}

// decodeChar turns a numeric character code into the character.
func decodeChar(char string) string {
	if code, err := strconv.Atoi(char); err == nil {
		return string(rune(code))
	}
	return char
}

// KeyPress types char into the element, with modifier held for that one
// character.
func (d *Driver) KeyPress(xpath, char, modifier string) error {
	id, err := d.find(xpath, "key press")
	if err != nil {
		return err
	}
	keys := decodeChar(char)
	if modifier != "" {
		keys = keyModifier(modifier) + keys
	}
	return translate(d.remote.ElementSendKeys(id, keys), "key press", xpath)
}

// KeyDown clicks the element and presses a modifier key without releasing it.
func (d *Driver) KeyDown(xpath, char, modifier string) error {
	return d.modifierAction(xpath, char, "key down", (*wd.InputSource).Press)
}

// KeyUp clicks the element and releases a modifier key.
func (d *Driver) KeyUp(xpath, char, modifier string) error {
	return d.modifierAction(xpath, char, "key up", (*wd.InputSource).Release)
}

// modifierAction focuses the element with a click, then runs the key action.
// The keyboard source pauses while the pointer clicks so the key event comes
// last. Pressed keys are deliberately not released.
func (d *Driver) modifierAction(xpath, char, action string, keyAction func(*wd.InputSource, string) *wd.InputSource) error {
	id, err := d.find(xpath, action)
	if err != nil {
		return err
	}
	key := keyModifier(char)
	if !wd.IsModifier(key) {
		return core.ErrInvalidArgument.
			WithMessagef("%s events only make sense for modifier keys, got %q", action, char).
			WithDetails(map[string]interface{}{"action": action, "xpath": xpath})
	}

	pointer := wd.NewPointer().MoveToElement(id).Click(wd.ButtonLeft)
	keyboard := wd.NewKeyboard()
	for range pointer.Actions {
		keyboard.Pause(0)
	}
	keyAction(keyboard, key)

	return translate(d.remote.PerformActions(pointer, keyboard), action, xpath)
}
