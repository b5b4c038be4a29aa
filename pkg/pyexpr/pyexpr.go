package pyexpr

import (
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/bridge"
	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/interp"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/object"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/syntax"
)

// Aliases for the types hosts handle most often.
type (
	Value    = object.Value
	Type     = object.Type
	Kwargs   = object.Kwargs
	Token    = syntax.Token
	Func     = bridge.Func
	Hooks    = object.Hooks
	Instance = object.Instance

	TypeOption = object.TypeOption
)

// Type options for DefineType.
var (
	WithHooks        = object.WithHooks
	WithEq           = object.WithEq
	WithCompare      = object.WithCompare
	WithBool         = object.WithBool
	WithGetAttribute = object.WithGetAttribute
	WithNative       = object.WithNative
)

// Singletons and built-in types.
var (
	None  = object.None
	True  = object.True
	False = object.False

	Object    = object.ObjectType
	FloatType = object.FloatType
	BoolType  = object.BoolType
	StrType   = object.StrType
	TupleType = object.TupleType
	ListType  = object.ListType
	DictType  = object.DictType
)

// Error sentinels, re-exported for errors.Is.
var (
	ErrSyntax       = pyerrors.ErrSyntax
	ErrName         = pyerrors.ErrName
	ErrAttribute    = pyerrors.ErrAttribute
	ErrKey          = pyerrors.ErrKey
	ErrType         = pyerrors.ErrType
	ErrIndex        = pyerrors.ErrIndex
	ErrZeroDivision = pyerrors.ErrZeroDivision
	ErrValue        = pyerrors.ErrValue
)

// Tokenize splits source into tokens, ending with an (end) token.
func Tokenize(src string) ([]syntax.Token, error) {
	return syntax.Tokenize(src)
}

// Parse builds an expression tree from tokens.
func Parse(tokens []syntax.Token) (*syntax.Token, error) {
	return syntax.Parse(tokens)
}

// Evaluate evaluates a tree against vars.
func Evaluate(tree *syntax.Token, vars map[string]any) (Value, error) {
	return interp.Evaluate(tree, vars)
}

// Eval tokenizes, parses and evaluates src, then projects the result to a
// host value.
func Eval(src string, vars map[string]any) (any, error) {
	tree, err := syntax.ParseString(src)
	if err != nil {
		return nil, err
	}
	v, err := interp.Evaluate(tree, vars)
	if err != nil {
		return nil, err
	}
	return bridge.ToNative(v)
}

// DefineType creates a user type. A nil base means object. Attribute
// values are converted like context variables, so Func values become
// methods.
func DefineType(name string, base *Type, attrs map[string]any, opts ...TypeOption) (*Type, error) {
	return object.NewType(name, base, bridge.FromNativeMap(attrs), opts...)
}

// IsSubclass reports whether b appears in a's parent chain. Every type is
// a subclass of itself.
func IsSubclass(a, b *Type) bool {
	return object.IsSubclass(a, b)
}

// Call invokes a callable value: a function, a bound method, a type or an
// instance whose type defines a Call hook. kwargs may be nil.
func Call(callee Value, args []Value, kwargs *Kwargs) (Value, error) {
	return object.Call(callee, args, kwargs)
}

// Truth reports the truthiness of a value.
func Truth(v Value) bool {
	return object.Truth(v)
}

// ToNative projects a value to a host value.
func ToNative(v Value) (any, error) {
	return bridge.ToNative(v)
}

// FromNative converts a host value.
func FromNative(v any) Value {
	return bridge.FromNative(v)
}

// NewFunc wraps a host function under a name.
func NewFunc(name string, fn Func) Value {
	return bridge.NewFunc(name, fn)
}
