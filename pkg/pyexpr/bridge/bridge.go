// Package bridge converts between host Go values and expression values.
//
// FromNative recognises a fixed set of host shapes:
//
//	bool                          -> bool
//	ints, uints, floats, json.Number -> float
//	string                        -> str
//	nil                           -> None
//	slices and arrays             -> list (elements converted)
//	string-keyed maps             -> dict (sorted keys, values converted)
//	*object.OrderedMap[string, any] -> dict (insertion order)
//	Func and its underlying type  -> callable
//	object.Value                  -> itself
//
// Anything else is wrapped in an *object.Opaque. ToNative is the inverse
// projection.
package bridge

import (
	"encoding/json"
	"reflect"
	"sort"

	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/object"
)

// Func is a host function callable from expressions. It receives the
// positional arguments and the keyword arguments in source order. A
// returned host value is converted with FromNative.
type Func func(args []object.Value, kwargs *object.Kwargs) (any, error)

// NativeMap is an insertion ordered host mapping.
type NativeMap = object.OrderedMap[string, any]

// NewNativeMap creates an empty insertion ordered host mapping.
func NewNativeMap() *NativeMap {
	return object.NewOrderedMap[string, any]()
}

// FromNative converts a host value to an expression value.
func FromNative(v any) object.Value {
	switch x := v.(type) {
	case nil:
		return object.None
	case object.Value:
		return x
	case bool:
		return object.BoolOf(x)
	case string:
		return object.Str(x)
	case float64:
		return object.Float(x)
	case int:
		return object.Float(x)
	case int64:
		return object.Float(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return object.Float(f)
		}
		return object.Str(x.String())
	case []any:
		items := make([]object.Value, len(x))
		for i, item := range x {
			items[i] = FromNative(item)
		}
		return object.NewList(items...)
	case map[string]any:
		d := object.NewDict()
		for _, k := range sortedKeys(x) {
			d.SetStr(k, FromNative(x[k]))
		}
		return d
	case *NativeMap:
		d := object.NewDict()
		x.Range(func(k string, item any) bool {
			d.SetStr(k, FromNative(item))
			return true
		})
		return d
	case Func:
		return wrapFunc("function", x)
	case func(args []object.Value, kwargs *object.Kwargs) (any, error):
		return wrapFunc("function", x)
	case func(args []object.Value, kwargs *object.Kwargs) (object.Value, error):
		return object.NewFunction("function", x)
	}
	return fromReflect(reflect.ValueOf(v))
}

// FromNativeMap converts every value of a host mapping, keeping the keys.
func FromNativeMap(m map[string]any) map[string]object.Value {
	out := make(map[string]object.Value, len(m))
	for k, v := range m {
		out[k] = FromNative(v)
	}
	return out
}

// NewFunc wraps a host function under a name used in error messages and
// reprs.
func NewFunc(name string, fn Func) *object.Function {
	return wrapFunc(name, fn)
}

func wrapFunc(name string, fn Func) *object.Function {
	return object.NewFunction(name, func(args []object.Value, kwargs *object.Kwargs) (object.Value, error) {
		out, err := fn(args, kwargs)
		if err != nil {
			return nil, err
		}
		return FromNative(out), nil
	})
}

// fromReflect handles numeric kinds, slices and string-keyed maps of any
// element type.
func fromReflect(rv reflect.Value) object.Value {
	switch rv.Kind() {
	case reflect.Bool:
		return object.BoolOf(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return object.Float(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return object.Float(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return object.Float(rv.Float())
	case reflect.String:
		return object.Str(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return object.None
		}
		items := make([]object.Value, rv.Len())
		for i := range items {
			items[i] = FromNative(rv.Index(i).Interface())
		}
		return object.NewList(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return object.None
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		d := object.NewDict()
		for _, k := range keys {
			d.SetStr(k.String(), FromNative(rv.MapIndex(k).Interface()))
		}
		return d
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return object.None
		}
	}
	return &object.Opaque{V: rv.Interface()}
}

// ToNative projects an expression value to a host value. Instances of user
// types project through their Native hook; without one they are returned
// unchanged, as are types and callables. Dict keys become their str()
// text, and two keys with the same text are a TypeError.
func ToNative(v object.Value) (any, error) {
	switch x := v.(type) {
	case object.Float:
		return float64(x), nil
	case object.Bool:
		return bool(x), nil
	case object.Str:
		return string(x), nil
	case object.NoneType:
		return nil, nil
	case *object.Tuple:
		return toNativeSlice(x.Items)
	case *object.List:
		return toNativeSlice(x.Items)
	case *object.Dict:
		out := make(map[string]any, x.Len())
		var err error
		x.Range(func(k, item object.Value) bool {
			key := object.ToString(k)
			if _, taken := out[key]; taken {
				err = keyCollision(k, key)
				return false
			}
			var n any
			if n, err = ToNative(item); err != nil {
				return false
			}
			out[key] = n
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case *object.Opaque:
		return x.V, nil
	}
	if h := v.Type().Hooks().Native; h != nil {
		return h(v)
	}
	return v, nil
}

// ToNativeOrdered projects a dict to an insertion ordered host mapping;
// other values project as ToNative does.
func ToNativeOrdered(v object.Value) (any, error) {
	d, ok := v.(*object.Dict)
	if !ok {
		return ToNative(v)
	}
	out := NewNativeMap()
	var err error
	d.Range(func(k, item object.Value) bool {
		key := object.ToString(k)
		if _, taken := out.Get(key); taken {
			err = keyCollision(k, key)
			return false
		}
		var n any
		if n, err = ToNativeOrdered(item); err != nil {
			return false
		}
		out.Set(key, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// keyCollision reports a dict key whose str() matches an earlier key, as
// 1 and '1' do.
func keyCollision(k object.Value, key string) error {
	return pyerrors.Type("dict key %s collides with another key as host key %q", object.Repr(k), key)
}

func toNativeSlice(items []object.Value) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		n, err := ToNative(item)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Kwarg returns a keyword argument converted to a host value, or def when
// it was not passed.
func Kwarg(kwargs *object.Kwargs, name string, def any) (any, error) {
	v, ok := kwargs.Get(name)
	if !ok {
		return def, nil
	}
	return ToNative(v)
}

// Args converts positional arguments to host values.
func Args(args []object.Value) ([]any, error) {
	return toNativeSlice(args)
}

// Expect returns a TypeError unless exactly n positional arguments were
// passed.
func Expect(name string, args []object.Value, n int) error {
	if len(args) != n {
		return pyerrors.Type("%s() takes exactly %d argument(s) (%d given)", name, n, len(args))
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
