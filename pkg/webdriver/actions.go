package webdriver

// Mouse buttons for pointer actions.
const (
	ButtonLeft   = 0
	ButtonMiddle = 1
	ButtonRight  = 2
)

// InputSource is one input device of a W3C action chain.
type InputSource struct {
	Type       string                   `json:"type"`
	ID         string                   `json:"id"`
	Parameters map[string]interface{}   `json:"parameters,omitempty"`
	Actions    []map[string]interface{} `json:"actions"`
}

// NewPointer creates a mouse input source.
func NewPointer() *InputSource {
	return &InputSource{
		Type:       "pointer",
		ID:         "mouse",
		Parameters: map[string]interface{}{"pointerType": "mouse"},
	}
}

// NewKeyboard creates a key input source.
func NewKeyboard() *InputSource {
	return &InputSource{Type: "key", ID: "keyboard"}
}

// MoveToElement moves the pointer to the in-view center of an element.
func (s *InputSource) MoveToElement(elementID string) *InputSource {
	s.Actions = append(s.Actions, map[string]interface{}{
		"type":     "pointerMove",
		"duration": 0,
		"x":        0,
		"y":        0,
		"origin":   ElementArg(elementID),
	})
	return s
}

// Down presses a pointer button.
func (s *InputSource) Down(button int) *InputSource {
	s.Actions = append(s.Actions, map[string]interface{}{"type": "pointerDown", "button": button})
	return s
}

// Up releases a pointer button.
func (s *InputSource) Up(button int) *InputSource {
	s.Actions = append(s.Actions, map[string]interface{}{"type": "pointerUp", "button": button})
	return s
}

// Click presses and releases a pointer button.
func (s *InputSource) Click(button int) *InputSource {
	return s.Down(button).Up(button)
}

// Press presses a key without releasing it.
func (s *InputSource) Press(key string) *InputSource {
	s.Actions = append(s.Actions, map[string]interface{}{"type": "keyDown", "value": key})
	return s
}

// Release releases a key.
func (s *InputSource) Release(key string) *InputSource {
	s.Actions = append(s.Actions, map[string]interface{}{"type": "keyUp", "value": key})
	return s
}

// Pause idles the source for the given number of milliseconds.
func (s *InputSource) Pause(ms int) *InputSource {
	s.Actions = append(s.Actions, map[string]interface{}{"type": "pause", "duration": ms})
	return s
}

// ActionTypes lists the action types of the source in order.
func (s *InputSource) ActionTypes() []string {
	types := make([]string, 0, len(s.Actions))
	for _, a := range s.Actions {
		t, _ := a["type"].(string)
		types = append(types, t)
	}
	return types
}
