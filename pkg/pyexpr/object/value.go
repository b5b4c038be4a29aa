// Package object implements the value and type model of the expression
// language: built-in types, user defined types with single inheritance,
// and the protocols (equality, ordering, truthiness, containment, attribute
// resolution, subscripting, calls) the evaluator dispatches through.
package object

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Value is any language value. Every value has exactly one Type.
type Value interface {
	Type() *Type
}

// Float is the single numeric type.
type Float float64

// Bool is a boolean.
type Bool bool

// Str is a string.
type Str string

// NoneType is the type of the None singleton.
type NoneType struct{}

// Singletons.
var (
	None  Value = NoneType{}
	True  Value = Bool(true)
	False Value = Bool(false)
)

// Tuple is an immutable sequence.
type Tuple struct {
	Items []Value
}

// List is a sequence.
type List struct {
	Items []Value
}

// Instance is an instance of a user defined type, or of object itself.
type Instance struct {
	typ   *Type
	attrs *OrderedMap[string, Value]
}

// Function wraps a host callable.
type Function struct {
	Name string
	Fn   func(args []Value, kwargs *Kwargs) (Value, error)
}

// BoundMethod is a function resolved through a type, bound to the receiver
// it was looked up on.
type BoundMethod struct {
	Self Value
	Fn   *Function
}

// Opaque wraps a host value that has no language counterpart.
type Opaque struct {
	V any
}

func (Float) Type() *Type        { return FloatType }
func (Bool) Type() *Type         { return BoolType }
func (Str) Type() *Type          { return StrType }
func (NoneType) Type() *Type     { return NoneTypeType }
func (*Tuple) Type() *Type       { return TupleType }
func (*List) Type() *Type        { return ListType }
func (i *Instance) Type() *Type  { return i.typ }
func (*Function) Type() *Type    { return FunctionType }
func (*BoundMethod) Type() *Type { return MethodType }
func (*Opaque) Type() *Type      { return OpaqueType }

// BoolOf converts a Go bool to True or False.
func BoolOf(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewTuple creates a tuple of items.
func NewTuple(items ...Value) *Tuple {
	return &Tuple{Items: items}
}

// NewList creates a list of items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// NewFunction wraps fn as a callable value.
func NewFunction(name string, fn func(args []Value, kwargs *Kwargs) (Value, error)) *Function {
	return &Function{Name: name, Fn: fn}
}

// Call invokes the function. A nil kwargs is treated as empty.
func (f *Function) Call(args []Value, kwargs *Kwargs) (Value, error) {
	if kwargs == nil {
		kwargs = NewKwargs()
	}
	v, err := f.Fn(args, kwargs)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return None, nil
	}
	return v, nil
}

// NewInstance creates an instance of t with an empty attribute map.
func NewInstance(t *Type) *Instance {
	return &Instance{typ: t, attrs: NewOrderedMap[string, Value]()}
}

// Attr returns an attribute set directly on the instance.
func (i *Instance) Attr(name string) (Value, bool) {
	return i.attrs.Get(name)
}

// SetAttr sets an attribute on the instance.
func (i *Instance) SetAttr(name string, v Value) {
	i.attrs.Set(name, v)
}

// Attrs returns the instance's own attribute names in insertion order.
func (i *Instance) Attrs() []string {
	return i.attrs.Keys()
}

// number returns the numeric value of floats and bools.
func number(v Value) (float64, bool) {
	switch x := v.(type) {
	case Float:
		return float64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// intLimit is 2**63, the first float64 past the int range.
var intLimit = math.Ldexp(1, 63)

// integral returns the value of a whole number.
func integral(v Value) (float64, bool) {
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// fitsInt reports whether the whole number f converts to int exactly.
func fitsInt(f float64) bool {
	return f >= -intLimit && f < intLimit
}

// integer returns the value of an integral number. Values outside the int
// range saturate at math.MinInt or math.MaxInt.
func integer(v Value) (int, bool) {
	f, ok := integral(v)
	switch {
	case !ok:
		return 0, false
	case f >= intLimit:
		return math.MaxInt, true
	case f < -intLimit:
		return math.MinInt, true
	}
	return int(f), true
}

// identical reports whether a and b are the same object. Values of
// non-comparable host types are never identical.
func identical(a, b Value) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || tb == nil {
		return ta == tb
	}
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// FormatFloat renders a number the way str() does: integral values without
// a fractional part.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e16:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToString renders v as str() does.
func ToString(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return Repr(v)
}

// Repr renders v as repr() does.
func Repr(v Value) string {
	if h := v.Type().hooks.Repr; h != nil {
		return h(v)
	}
	switch x := v.(type) {
	case Float:
		return FormatFloat(float64(x))
	case Bool:
		if x {
			return "True"
		}
		return "False"
	case Str:
		if strings.Contains(string(x), "'") && !strings.Contains(string(x), `"`) {
			return `"` + string(x) + `"`
		}
		return "'" + string(x) + "'"
	case NoneType:
		return "None"
	case *Tuple:
		if len(x.Items) == 1 {
			return "(" + Repr(x.Items[0]) + ",)"
		}
		return "(" + joinRepr(x.Items) + ")"
	case *List:
		return "[" + joinRepr(x.Items) + "]"
	case *Dict:
		parts := make([]string, 0, x.Len())
		x.Range(func(k, val Value) bool {
			parts = append(parts, Repr(k)+": "+Repr(val))
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case *Type:
		return fmt.Sprintf("<class '%s'>", x.name)
	case *Function:
		return fmt.Sprintf("<function %s>", x.Name)
	case *BoundMethod:
		return fmt.Sprintf("<bound method %s.%s>", x.Self.Type().name, x.Fn.Name)
	case *Opaque:
		return fmt.Sprintf("<native %T>", x.V)
	}
	return fmt.Sprintf("<%s object>", v.Type().name)
}

func joinRepr(items []Value) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = Repr(item)
	}
	return strings.Join(parts, ", ")
}
