package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindSyntax, "SyntaxError"},
		{KindName, "NameError"},
		{KindAttribute, "AttributeError"},
		{KindKey, "KeyError"},
		{KindType, "TypeError"},
		{KindIndex, "IndexError"},
		{KindZeroDivision, "ZeroDivisionError"},
		{KindValue, "ValueError"},
		{Kind(99), "UnknownError"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind(%d).String() = %s, want %s", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"name", Name("foo"), "NameError: name 'foo' is not defined"},
		{"attribute", Attribute("Foo", "bar"), "AttributeError: 'Foo' object has no attribute 'bar'"},
		{"key", Key("'missing'"), "KeyError: 'missing'"},
		{"type", Type("bad %s", "thing"), "TypeError: bad thing"},
		{"index", Index("list"), "IndexError: list index out of range"},
		{"syntax", Syntax(7, "unexpected token %v", "x"), "SyntaxError: unexpected token x (at offset 7)"},
		{"bare sentinel", ErrKey, "KeyError"},
		{"zero division", New(KindZeroDivision, "float division by zero"), "ZeroDivisionError: float division by zero"},
		{"value", Value("%d is not in list", 3), "ValueError: 3 is not in list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("rule %q: %w", "r1", Name("x"))

	if !errors.Is(err, ErrName) {
		t.Error("wrapped NameError should match ErrName")
	}
	if errors.Is(err, ErrKey) {
		t.Error("NameError should not match ErrKey")
	}
	if errors.Is(errors.New("plain"), ErrName) {
		t.Error("plain error should not match ErrName")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("wrap: %w", Index("tuple"))); got != KindIndex {
		t.Errorf("KindOf() = %v, want %v", got, KindIndex)
	}
	if got := KindOf(errors.New("plain")); got != 0 {
		t.Errorf("KindOf(plain) = %v, want 0", got)
	}
	if got := KindOf(nil); got != 0 {
		t.Errorf("KindOf(nil) = %v, want 0", got)
	}
}

func TestNewHasNoPosition(t *testing.T) {
	if e := Type("x"); e.Pos != -1 {
		t.Errorf("Pos = %d, want -1", e.Pos)
	}
}
