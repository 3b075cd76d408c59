package core

import (
	"fmt"
	"strings"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

// Value kinds
const (
	KindNull ValueKind = iota
	KindBool
	KindString
	KindList
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "null"
	}
}

// Value is a form value as read from or written to an element: null, a
// boolean (checkboxes), a string, or a list of strings (multiple selects).
// The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	s    string
	list []string
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List wraps items. A nil slice yields an empty list, not null.
func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

// Kind returns the variant held.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string and whether v holds one.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns a copy of the list and whether v holds one.
func (v Value) AsList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out, true
}

// Truthy follows loose scripting truthiness: "" and "0" are false, empty
// lists are false, null is false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.s != "" && v.s != "0"
	case KindList:
		return len(v.list) > 0
	default:
		return false
	}
}

// Text renders v as plain text: "true"/"false", the string itself, list
// items joined by commas, or "" for null.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindString:
		return v.s
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
	}
	return true
}

// GoString is used by %#v and by test diffs.
func (v Value) GoString() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("core.Bool(%t)", v.b)
	case KindString:
		return fmt.Sprintf("core.String(%q)", v.s)
	case KindList:
		return fmt.Sprintf("core.List(%q)", v.list)
	default:
		return "core.Null()"
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.Text()
}

// ValueOf converts a decoded YAML/JSON scalar into a Value: nil → null,
// bool → bool, []interface{} → list, anything else → its string form.
func ValueOf(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case []string:
		return List(x...)
	case []interface{}:
		items := make([]string, 0, len(x))
		for _, item := range x {
			items = append(items, fmt.Sprint(item))
		}
		return List(items...)
	default:
		return String(fmt.Sprint(x))
	}
}
