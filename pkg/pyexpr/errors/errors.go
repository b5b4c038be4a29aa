// Package errors defines the closed set of failure kinds raised while
// tokenizing, parsing and evaluating expressions.
//
// Every failure is an *Error carrying a Kind. Kinds can be matched with the
// standard library:
//
//	_, err := pyexpr.Eval(`d["missing"]`, vars)
//	if errors.Is(err, pyerrors.ErrKey) {
//	    // handle absent key
//	}
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an evaluation failure.
type Kind int

const (
	// KindSyntax is a malformed token stream or an unexpected token.
	KindSyntax Kind = iota + 1

	// KindName is a free variable absent from the context and builtins.
	KindName

	// KindAttribute is an attribute missing from the instance, type and
	// parent chain.
	KindAttribute

	// KindKey is a dict subscript with an absent key.
	KindKey

	// KindType is an invalid operand type or a call of a non-callable.
	KindType

	// KindIndex is an out-of-range sequence subscript.
	KindIndex

	// KindZeroDivision is a division by zero.
	KindZeroDivision

	// KindValue is an operand of the right type with an unusable value,
	// such as a repetition count too large to materialize or a missing
	// sequence item.
	KindValue
)

// String returns the Python-style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindName:
		return "NameError"
	case KindAttribute:
		return "AttributeError"
	case KindKey:
		return "KeyError"
	case KindType:
		return "TypeError"
	case KindIndex:
		return "IndexError"
	case KindZeroDivision:
		return "ZeroDivisionError"
	case KindValue:
		return "ValueError"
	default:
		return "UnknownError"
	}
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrSyntax       = &Error{Kind: KindSyntax}
	ErrName         = &Error{Kind: KindName}
	ErrAttribute    = &Error{Kind: KindAttribute}
	ErrKey          = &Error{Kind: KindKey}
	ErrType         = &Error{Kind: KindType}
	ErrIndex        = &Error{Kind: KindIndex}
	ErrZeroDivision = &Error{Kind: KindZeroDivision}
	ErrValue        = &Error{Kind: KindValue}
)

// Error is a failure raised by the interpreter.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Msg is the human readable detail.
	Msg string

	// Pos is the byte offset in the source for syntax errors, -1 otherwise.
	Pos int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	if e.Kind == KindSyntax && e.Pos >= 0 {
		return fmt.Sprintf("%s: %s (at offset %d)", e.Kind, e.Msg, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: -1}
}

// Syntax creates a SyntaxError at a source offset.
func Syntax(pos int, format string, args ...any) *Error {
	return &Error{Kind: KindSyntax, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// Name creates a NameError for an undefined variable.
func Name(name string) *Error {
	return New(KindName, "name '%s' is not defined", name)
}

// Attribute creates an AttributeError.
func Attribute(typeName, attr string) *Error {
	return New(KindAttribute, "'%s' object has no attribute '%s'", typeName, attr)
}

// Key creates a KeyError for the rendered key.
func Key(repr string) *Error {
	return New(KindKey, "%s", repr)
}

// Type creates a TypeError.
func Type(format string, args ...any) *Error {
	return New(KindType, format, args...)
}

// Index creates an IndexError.
func Index(typeName string) *Error {
	return New(KindIndex, "%s index out of range", typeName)
}

// Value creates a ValueError.
func Value(format string, args ...any) *Error {
	return New(KindValue, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or 0 when
// err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
