package object

import (
	"reflect"
	"strings"
	"unicode/utf8"

	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
)

// Equal implements ==. Hooks are tried on a, then reflected on b; without
// a hook, built-in values compare structurally and everything else by
// identity.
func Equal(a, b Value) bool {
	if h := a.Type().hooks.Eq; h != nil {
		if r, ok := h(a, b); ok {
			return r
		}
	}
	if h := b.Type().hooks.Eq; h != nil {
		if r, ok := h(b, a); ok {
			return r
		}
	}

	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	switch x := a.(type) {
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && equalItems(x.Items, y.Items)
	case *List:
		y, ok := b.(*List)
		return ok && equalItems(x.Items, y.Items)
	case *Dict:
		y, ok := b.(*Dict)
		return ok && equalDicts(x, y)
	case *Opaque:
		y, ok := b.(*Opaque)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		t := reflect.TypeOf(x.V)
		return t != nil && t == reflect.TypeOf(y.V) && t.Comparable() && x.V == y.V
	case *BoundMethod:
		y, ok := b.(*BoundMethod)
		return ok && x.Fn == y.Fn && identical(x.Self, y.Self)
	}
	return identical(a, b)
}

func equalItems(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalDicts(a, b *Dict) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Range(func(k, v Value) bool {
		other, ok, err := b.Get(k)
		equal = err == nil && ok && Equal(v, other)
		return equal
	})
	return equal
}

// Compare orders a against b, returning -1, 0 or 1. Numbers and strings
// use their native order and same-kind sequences compare lexicographically.
// Anything else falls back to None < numbers < other values, then to the
// lexicographic order of the type names.
func Compare(a, b Value) int {
	if h := a.Type().hooks.Compare; h != nil {
		if r, ok := h(a, b); ok {
			return r
		}
	}
	if h := b.Type().hooks.Compare; h != nil {
		if r, ok := h(b, a); ok {
			return -r
		}
	}

	x, xok := number(a)
	y, yok := number(b)
	if xok && yok {
		return compareFloats(x, y)
	}
	switch x := a.(type) {
	case Str:
		if y, ok := b.(Str); ok {
			return strings.Compare(string(x), string(y))
		}
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			return compareItems(x.Items, y.Items)
		}
	case *List:
		if y, ok := b.(*List); ok {
			return compareItems(x.Items, y.Items)
		}
	}

	if ra, rb := fallbackRank(a), fallbackRank(b); ra != rb {
		return compareInts(ra, rb)
	}
	return strings.Compare(a.Type().name, b.Type().name)
}

func fallbackRank(v Value) int {
	if _, ok := v.(NoneType); ok {
		return 0
	}
	if _, ok := number(v); ok {
		return 1
	}
	return 2
}

func compareItems(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if !Equal(a[i], b[i]) {
			return Compare(a[i], b[i])
		}
	}
	return compareInts(len(a), len(b))
}

func compareFloats(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func compareInts(x, y int) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// CompareOp applies a comparison operator: == != <> < > <= >= in, not in,
// is, is not.
func CompareOp(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return Equal(a, b), nil
	case "!=", "<>":
		return !Equal(a, b), nil
	case "in":
		return Contains(b, a)
	case "not in":
		in, err := Contains(b, a)
		return !in, err
	case "is":
		return identical(a, b), nil
	case "is not":
		return !identical(a, b), nil
	}

	// Native float comparison keeps NaN unordered.
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			switch op {
			case "<":
				return x < y, nil
			case ">":
				return x > y, nil
			case "<=":
				return x <= y, nil
			case ">=":
				return x >= y, nil
			}
		}
	}

	c := Compare(a, b)
	switch op {
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, pyerrors.Type("unknown comparison operator '%s'", op)
}

// Truth implements truthiness.
func Truth(v Value) bool {
	hooks := v.Type().hooks
	if hooks.Bool != nil {
		return hooks.Bool(v)
	}
	if hooks.Len != nil {
		return hooks.Len(v) > 0
	}
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Float:
		return x != 0
	case Str:
		return x != ""
	case NoneType:
		return false
	case *Tuple:
		return len(x.Items) > 0
	case *List:
		return len(x.Items) > 0
	case *Dict:
		return x.Len() > 0
	}
	return true
}

// Len implements len().
func Len(v Value) (int, error) {
	if h := v.Type().hooks.Len; h != nil {
		return h(v), nil
	}
	switch x := v.(type) {
	case Str:
		return utf8.RuneCountInString(string(x)), nil
	case *Tuple:
		return len(x.Items), nil
	case *List:
		return len(x.Items), nil
	case *Dict:
		return x.Len(), nil
	}
	return 0, pyerrors.Type("object of type '%s' has no len()", v.Type().name)
}

// GetAttr resolves an attribute. A GetAttribute hook on the type chain
// replaces the default resolution entirely.
func GetAttr(v Value, name string) (Value, error) {
	if h := v.Type().hooks.GetAttribute; h != nil {
		return hookResult(h(v, name))
	}
	return DefaultGetAttr(v, name)
}

// DefaultGetAttr resolves name on the instance, then the type and its
// parents. Functions found on the type are bound to v. Dicts fall back to
// their string keys so host mappings read like objects.
func DefaultGetAttr(v Value, name string) (Value, error) {
	switch x := v.(type) {
	case *Instance:
		if attr, ok := x.attrs.Get(name); ok {
			return attr, nil
		}
	case *Type:
		if name == "__name__" {
			return Str(x.name), nil
		}
		if attr, ok := x.Lookup(name); ok {
			return attr, nil
		}
		if name == "__class__" {
			return TypeType, nil
		}
		return nil, pyerrors.New(pyerrors.KindAttribute, "type object '%s' has no attribute '%s'", x.name, name)
	}

	t := v.Type()
	if name == "__class__" {
		return t, nil
	}
	if attr, ok := t.Lookup(name); ok {
		if fn, ok := attr.(*Function); ok {
			return &BoundMethod{Self: v, Fn: fn}, nil
		}
		return attr, nil
	}
	if d, ok := v.(*Dict); ok {
		if attr, ok := d.GetStr(name); ok {
			return attr, nil
		}
	}
	return nil, pyerrors.Attribute(t.name, name)
}

// Contains implements item in container.
func Contains(container, item Value) (bool, error) {
	if h := container.Type().hooks.Contains; h != nil {
		return h(container, item)
	}
	switch x := container.(type) {
	case Str:
		s, ok := item.(Str)
		if !ok {
			return false, pyerrors.Type("'in <string>' requires string as left operand, not %s", item.Type().name)
		}
		return strings.Contains(string(x), string(s)), nil
	case *Tuple:
		return containsItem(x.Items, item), nil
	case *List:
		return containsItem(x.Items, item), nil
	case *Dict:
		_, ok, err := x.Get(item)
		return ok, err
	}
	return false, pyerrors.Type("argument of type '%s' is not iterable", container.Type().name)
}

func containsItem(items []Value, item Value) bool {
	for _, candidate := range items {
		if Equal(candidate, item) {
			return true
		}
	}
	return false
}

// GetItem implements v[key].
func GetItem(v, key Value) (Value, error) {
	if h := v.Type().hooks.GetItem; h != nil {
		return hookResult(h(v, key))
	}
	switch x := v.(type) {
	case *Dict:
		val, ok, err := x.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pyerrors.Key(Repr(key))
		}
		return val, nil
	case *Tuple:
		i, err := index(v, key, len(x.Items))
		if err != nil {
			return nil, err
		}
		return x.Items[i], nil
	case *List:
		i, err := index(v, key, len(x.Items))
		if err != nil {
			return nil, err
		}
		return x.Items[i], nil
	case Str:
		runes := []rune(string(x))
		i, err := index(v, key, len(runes))
		if err != nil {
			return nil, err
		}
		return Str(runes[i]), nil
	}
	return nil, pyerrors.Type("'%s' object is not subscriptable", v.Type().name)
}

// index normalises a sequence index, counting negative values from the end.
func index(seq, key Value, n int) (int, error) {
	i, ok := integer(key)
	if !ok {
		return 0, pyerrors.Type("%s indices must be integers, not %s", seq.Type().name, key.Type().name)
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, pyerrors.Index(seq.Type().name)
	}
	return i, nil
}

// Call invokes a callable value.
func Call(v Value, args []Value, kwargs *Kwargs) (Value, error) {
	if kwargs == nil {
		kwargs = NewKwargs()
	}
	switch f := v.(type) {
	case *Function:
		return f.Call(args, kwargs)
	case *BoundMethod:
		return f.Fn.Call(append([]Value{f.Self}, args...), kwargs)
	case *Type:
		return f.construct(args, kwargs)
	}
	if h := v.Type().hooks.Call; h != nil {
		return hookResult(h(v, args, kwargs))
	}
	return nil, pyerrors.Type("'%s' object is not callable", v.Type().name)
}

// hookResult maps a nil value returned by a host hook to None.
func hookResult(v Value, err error) (Value, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return None, nil
	}
	return v, nil
}

// Iterate returns the elements produced by iterating v: sequence items,
// string characters or dict keys.
func Iterate(v Value) ([]Value, error) {
	switch x := v.(type) {
	case *Tuple:
		return x.Items, nil
	case *List:
		return x.Items, nil
	case *Dict:
		return x.Keys(), nil
	case Str:
		items := make([]Value, 0, len(x))
		for _, r := range string(x) {
			items = append(items, Str(r))
		}
		return items, nil
	}
	return nil, pyerrors.Type("'%s' object is not iterable", v.Type().name)
}
