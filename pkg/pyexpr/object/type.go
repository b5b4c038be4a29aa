package object

import (
	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
)

// Hooks is the closed set of protocol overrides a type may define. Every
// field is optional; a type inherits the hooks of its parent chain and its
// own hooks take precedence. Built-in semantics apply when no hook is set.
type Hooks struct {
	// Eq reports equality. The second result is false when the hook does
	// not handle other, in which case the reflected hook or the default
	// applies.
	Eq func(self, other Value) (bool, bool)

	// Compare orders self against other (-1, 0, 1). The second result
	// reports whether the hook handled other.
	Compare func(self, other Value) (int, bool)

	// Bool overrides truthiness.
	Bool func(self Value) bool

	// Len reports the length for len() and, absent Bool, truthiness.
	Len func(self Value) int

	// GetAttribute fully replaces default attribute resolution.
	GetAttribute func(self Value, name string) (Value, error)

	// Contains implements the in operator with self as the container.
	Contains func(self, item Value) (bool, error)

	// GetItem implements subscripting.
	GetItem func(self, key Value) (Value, error)

	// Call makes instances callable.
	Call func(self Value, args []Value, kwargs *Kwargs) (Value, error)

	// Native projects the value to a host value.
	Native func(self Value) (any, error)

	// Repr renders the value for repr() and str().
	Repr func(self Value) string
}

// Constructor builds a value when a type is called.
type Constructor func(t *Type, args []Value, kwargs *Kwargs) (Value, error)

// Type is a named class with a single parent. The parent chain is fixed at
// creation, so it is always acyclic and ends at object.
type Type struct {
	name  string
	base  *Type
	attrs *OrderedMap[string, Value]
	hooks Hooks
	new   Constructor
	final bool
}

// TypeOption configures a type at creation.
type TypeOption func(*Type)

// Type returns the metatype.
func (*Type) Type() *Type { return TypeType }

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// Base returns the parent type, nil only for object.
func (t *Type) Base() *Type { return t.base }

// NewType creates a type. A nil base means object. attrs become the type's
// own attribute mapping; functions in it resolve as methods on instances.
func NewType(name string, base *Type, attrs map[string]Value, opts ...TypeOption) (*Type, error) {
	if name == "" {
		return nil, pyerrors.Type("type name must not be empty")
	}
	if base == nil {
		base = ObjectType
	}
	if base.final {
		return nil, pyerrors.Type("type '%s' is not an acceptable base type", base.name)
	}

	t := &Type{
		name:  name,
		base:  base,
		attrs: NewOrderedMap[string, Value](),
		hooks: base.hooks,
	}
	for _, k := range sortedKeys(attrs) {
		t.attrs.Set(k, attrs[k])
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// MustType is NewType that panics on error, for package-level declarations.
func MustType(name string, base *Type, attrs map[string]Value, opts ...TypeOption) *Type {
	t, err := NewType(name, base, attrs, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// WithHooks sets every non-nil hook in h.
func WithHooks(h Hooks) TypeOption {
	return func(t *Type) {
		if h.Eq != nil {
			t.hooks.Eq = h.Eq
		}
		if h.Compare != nil {
			t.hooks.Compare = h.Compare
		}
		if h.Bool != nil {
			t.hooks.Bool = h.Bool
		}
		if h.Len != nil {
			t.hooks.Len = h.Len
		}
		if h.GetAttribute != nil {
			t.hooks.GetAttribute = h.GetAttribute
		}
		if h.Contains != nil {
			t.hooks.Contains = h.Contains
		}
		if h.GetItem != nil {
			t.hooks.GetItem = h.GetItem
		}
		if h.Call != nil {
			t.hooks.Call = h.Call
		}
		if h.Native != nil {
			t.hooks.Native = h.Native
		}
		if h.Repr != nil {
			t.hooks.Repr = h.Repr
		}
	}
}

// WithEq overrides equality.
func WithEq(fn func(self, other Value) (bool, bool)) TypeOption {
	return WithHooks(Hooks{Eq: fn})
}

// WithCompare overrides ordering.
func WithCompare(fn func(self, other Value) (int, bool)) TypeOption {
	return WithHooks(Hooks{Compare: fn})
}

// WithBool overrides truthiness.
func WithBool(fn func(self Value) bool) TypeOption {
	return WithHooks(Hooks{Bool: fn})
}

// WithGetAttribute replaces attribute resolution.
func WithGetAttribute(fn func(self Value, name string) (Value, error)) TypeOption {
	return WithHooks(Hooks{GetAttribute: fn})
}

// WithNative sets the host projection.
func WithNative(fn func(self Value) (any, error)) TypeOption {
	return WithHooks(Hooks{Native: fn})
}

// Lookup resolves name through the type's own attributes and then its
// parent chain.
func (t *Type) Lookup(name string) (Value, bool) {
	for c := t; c != nil; c = c.base {
		if v, ok := c.attrs.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// SetAttr sets an attribute on the type itself.
func (t *Type) SetAttr(name string, v Value) {
	if t.attrs == nil {
		t.attrs = NewOrderedMap[string, Value]()
	}
	t.attrs.Set(name, v)
}

// Hooks returns the effective hooks, inherited ones included.
func (t *Type) Hooks() Hooks {
	return t.hooks
}

// IsSubclass reports whether of appears in t's parent chain, t included.
func (t *Type) IsSubclass(of *Type) bool {
	for c := t; c != nil; c = c.base {
		if c == of {
			return true
		}
	}
	return false
}

// IsSubclass reports whether b appears in a's parent chain.
func IsSubclass(a, b *Type) bool {
	return a.IsSubclass(b)
}

// construct creates a value by calling the type.
func (t *Type) construct(args []Value, kwargs *Kwargs) (Value, error) {
	if t.new != nil {
		return t.new(t, args, kwargs)
	}

	inst := NewInstance(t)
	if ctor, ok := t.Lookup("__init__"); ok {
		if _, err := Call(ctor, append([]Value{inst}, args...), kwargs); err != nil {
			return nil, err
		}
		return inst, nil
	}
	if len(args) > 0 || kwargs.Len() > 0 {
		return nil, pyerrors.Type("%s() takes no arguments", t.name)
	}
	return inst, nil
}
