package core

import (
	"testing"
)

func TestValue_Truthy(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"null", Null(), false},
		{"zero value", Value{}, false},
		{"true", Bool(true), true},
		{"false", Bool(false), false},
		{"text", String("hello"), true},
		{"empty string", String(""), false},
		{"zero string", String("0"), false},
		{"zero zero string", String("00"), true},
		{"list", List("a"), true},
		{"empty list", List(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	if !Null().IsNull() {
		t.Error("Null().IsNull() should be true")
	}
	if b, ok := Bool(true).AsBool(); !ok || !b {
		t.Errorf("AsBool() = %v, %v", b, ok)
	}
	if _, ok := String("x").AsBool(); ok {
		t.Error("AsBool() on string should report false")
	}
	if s, ok := String("x").AsString(); !ok || s != "x" {
		t.Errorf("AsString() = %q, %v", s, ok)
	}
	list, ok := List("a", "b").AsList()
	if !ok || len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Errorf("AsList() = %v, %v", list, ok)
	}
}

func TestValue_ListIsCopied(t *testing.T) {
	items := []string{"a", "b"}
	v := List(items...)
	items[0] = "changed"

	got, _ := v.AsList()
	if got[0] != "a" {
		t.Errorf("List() aliased caller slice: %v", got)
	}

	got[1] = "changed"
	again, _ := v.AsList()
	if again[1] != "b" {
		t.Errorf("AsList() exposed internal slice: %v", again)
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Null(), Null(), true},
		{Null(), String(""), false},
		{Bool(true), Bool(true), true},
		{Bool(true), Bool(false), false},
		{String("a"), String("a"), true},
		{List("a", "b"), List("a", "b"), true},
		{List("a", "b"), List("b", "a"), false},
		{List(), List(), true},
		{List("a"), String("a"), false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%#v.Equal(%#v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Null(), ""},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{String("abc"), "abc"},
		{List("a", "b"), "a,b"},
	}

	for _, tt := range tests {
		if got := tt.value.Text(); got != tt.want {
			t.Errorf("%#v.Text() = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		raw  interface{}
		want Value
	}{
		{nil, Null()},
		{true, Bool(true)},
		{"text", String("text")},
		{42, String("42")},
		{[]interface{}{"a", 2}, List("a", "2")},
		{[]string{"x"}, List("x")},
		{Bool(false), Bool(false)},
	}

	for _, tt := range tests {
		if got := ValueOf(tt.raw); !got.Equal(tt.want) {
			t.Errorf("ValueOf(%v) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

func TestValueKind_String(t *testing.T) {
	if KindList.String() != "list" {
		t.Errorf("KindList.String() = %s", KindList.String())
	}
	if KindNull.String() != "null" {
		t.Errorf("KindNull.String() = %s", KindNull.String())
	}
}
