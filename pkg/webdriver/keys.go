package webdriver

// Key code points from https://w3c.github.io/webdriver/#keyboard-actions.
const (
	KeyNull      = "\uE000"
	KeyCancel    = "\uE001"
	KeyHelp      = "\uE002"
	KeyBackspace = "\uE003"
	KeyTab       = "\uE004"
	KeyClear     = "\uE005"
	KeyReturn    = "\uE006"
	KeyEnter     = "\uE007"
	KeyShift     = "\uE008"
	KeyControl   = "\uE009"
	KeyAlt       = "\uE00A"
	KeyPause     = "\uE00B"
	KeyEscape    = "\uE00C"
	KeySpace     = "\uE00D"
	KeyPageUp    = "\uE00E"
	KeyPageDown  = "\uE00F"
	KeyEnd       = "\uE010"
	KeyHome      = "\uE011"
	KeyLeft      = "\uE012"
	KeyUp        = "\uE013"
	KeyRight     = "\uE014"
	KeyDown      = "\uE015"
	KeyInsert    = "\uE016"
	KeyDelete    = "\uE017"
	KeyMeta      = "\uE03D"

	// Left-hand modifiers share the generic code points; right-hand ones differ.
	KeyLeftShift   = KeyShift
	KeyLeftControl = KeyControl
	KeyLeftAlt     = KeyAlt
	KeyCommand     = KeyMeta

	KeyRightShift   = "\uE050"
	KeyRightControl = "\uE051"
	KeyRightAlt     = "\uE052"
	KeyRightMeta    = "\uE053"
)

// IsModifier reports whether key is one of the modifier code points.
func IsModifier(key string) bool {
	switch key {
	case KeyShift, KeyControl, KeyAlt, KeyMeta,
		KeyRightShift, KeyRightControl, KeyRightAlt, KeyRightMeta:
		return true
	}
	return false
}
