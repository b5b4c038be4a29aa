package object

import (
	"math"
	"strconv"
	"strings"

	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
)

// Built-in types. They are created once and never modified after package
// initialisation, so they are safe to share across evaluations.
var (
	ObjectType   = &Type{name: "object", attrs: NewOrderedMap[string, Value]()}
	TypeType     = builtinType("type")
	FloatType    = builtinType("float")
	BoolType     = builtinType("bool")
	StrType      = builtinType("str")
	NoneTypeType = builtinType("NoneType")
	TupleType    = builtinType("tuple")
	ListType     = builtinType("list")
	DictType     = builtinType("dict")
	FunctionType = builtinType("function")
	MethodType   = builtinType("method")
	OpaqueType   = builtinType("native")
)

var builtins = NewOrderedMap[string, Value]()

func builtinType(name string) *Type {
	return &Type{name: name, base: ObjectType, attrs: NewOrderedMap[string, Value](), final: true}
}

func init() {
	TypeType.new = newType
	FloatType.new = newFloat
	BoolType.new = newBool
	StrType.new = newStr
	NoneTypeType.new = func(_ *Type, args []Value, kwargs *Kwargs) (Value, error) {
		return None, arity("NoneType", args, kwargs, 0, 0)
	}
	TupleType.new = newSequence
	ListType.new = newSequence
	DictType.new = newDict

	installDictMethods()
	installStrMethods()
	installSequenceMethods(TupleType)
	installSequenceMethods(ListType)

	for _, t := range []*Type{ObjectType, TypeType, FloatType, BoolType, StrType, TupleType, ListType, DictType} {
		builtins.Set(t.name, t)
	}
	builtins.Set("len", NewFunction("len", builtinLen))
	builtins.Set("repr", NewFunction("repr", builtinRepr))
	builtins.Set("abs", NewFunction("abs", builtinAbs))
	builtins.Set("min", NewFunction("min", func(args []Value, kwargs *Kwargs) (Value, error) {
		return extremum("min", args, kwargs, -1)
	}))
	builtins.Set("max", NewFunction("max", func(args []Value, kwargs *Kwargs) (Value, error) {
		return extremum("max", args, kwargs, 1)
	}))
	builtins.Set("issubclass", NewFunction("issubclass", builtinIsSubclass))
	builtins.Set("isinstance", NewFunction("isinstance", builtinIsInstance))
}

// LookupBuiltin returns the builtin bound to name.
func LookupBuiltin(name string) (Value, bool) {
	return builtins.Get(name)
}

// BuiltinNames returns the builtin names in registration order.
func BuiltinNames() []string {
	return builtins.Keys()
}

// arity validates positional argument counts for functions that accept no
// keyword arguments.
func arity(name string, args []Value, kwargs *Kwargs, min, max int) error {
	if kwargs.Len() > 0 {
		return pyerrors.Type("%s() takes no keyword arguments", name)
	}
	if len(args) < min || len(args) > max {
		if min == max {
			return pyerrors.Type("%s() takes exactly %d argument(s) (%d given)", name, min, len(args))
		}
		return pyerrors.Type("%s() takes from %d to %d arguments (%d given)", name, min, max, len(args))
	}
	return nil
}

// method declares fn as an attribute of t. The receiver arrives as self
// and args excludes it.
func method(t *Type, name string, min, max int, fn func(self Value, args []Value) (Value, error)) {
	qualified := t.name + "." + name
	t.attrs.Set(name, NewFunction(name, func(args []Value, kwargs *Kwargs) (Value, error) {
		if len(args) == 0 || !args[0].Type().IsSubclass(t) {
			return nil, pyerrors.Type("descriptor '%s' requires a '%s' object", name, t.name)
		}
		if err := arity(qualified, args[1:], kwargs, min, max); err != nil {
			return nil, err
		}
		return fn(args[0], args[1:])
	}))
}

func newType(_ *Type, args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("type", args, kwargs, 1, 3); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return args[0].Type(), nil
	}

	name, ok := args[0].(Str)
	if !ok {
		return nil, pyerrors.Type("type() argument 1 must be str, not %s", args[0].Type().name)
	}
	base, err := baseArg(args[1])
	if err != nil {
		return nil, err
	}
	attrs := map[string]Value{}
	if len(args) == 3 {
		d, ok := args[2].(*Dict)
		if !ok {
			return nil, pyerrors.Type("type() argument 3 must be dict, not %s", args[2].Type().name)
		}
		var keyErr error
		d.Range(func(k, v Value) bool {
			s, ok := k.(Str)
			if !ok {
				keyErr = pyerrors.Type("type() attribute names must be str, not %s", k.Type().name)
				return false
			}
			attrs[string(s)] = v
			return true
		})
		if keyErr != nil {
			return nil, keyErr
		}
	}
	return NewType(string(name), base, attrs)
}

// baseArg accepts None, a type or a one-element tuple holding a type.
func baseArg(v Value) (*Type, error) {
	switch x := v.(type) {
	case NoneType:
		return ObjectType, nil
	case *Type:
		return x, nil
	case *Tuple:
		switch len(x.Items) {
		case 0:
			return ObjectType, nil
		case 1:
			return baseArg(x.Items[0])
		}
		return nil, pyerrors.Type("multiple inheritance is not supported")
	}
	return nil, pyerrors.Type("type() argument 2 must be a type, not %s", v.Type().name)
}

func newFloat(_ *Type, args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("float", args, kwargs, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Float(0), nil
	}
	if x, ok := number(args[0]); ok {
		return Float(x), nil
	}
	if s, ok := args[0].(Str); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
		if err != nil {
			return nil, pyerrors.Type("could not convert string to float: %s", Repr(s))
		}
		return Float(f), nil
	}
	return nil, pyerrors.Type("float() argument must be a string or a number, not '%s'", args[0].Type().name)
}

func newBool(_ *Type, args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("bool", args, kwargs, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return False, nil
	}
	return BoolOf(Truth(args[0])), nil
}

func newStr(_ *Type, args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("str", args, kwargs, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Str(""), nil
	}
	return Str(ToString(args[0])), nil
}

func newSequence(t *Type, args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity(t.name, args, kwargs, 0, 1); err != nil {
		return nil, err
	}
	var items []Value
	if len(args) == 1 {
		src, err := Iterate(args[0])
		if err != nil {
			return nil, err
		}
		items = append(items, src...)
	}
	if t == TupleType {
		return NewTuple(items...), nil
	}
	return NewList(items...), nil
}

func newDict(_ *Type, args []Value, kwargs *Kwargs) (Value, error) {
	if len(args) > 1 {
		return nil, pyerrors.Type("dict expected at most 1 argument, got %d", len(args))
	}
	d := NewDict()
	if len(args) == 1 {
		if err := fillDict(d, args[0]); err != nil {
			return nil, err
		}
	}
	kwargs.Range(func(k string, v Value) bool {
		d.SetStr(k, v)
		return true
	})
	return d, nil
}

// fillDict copies a dict or a sequence of key/value pairs into d.
func fillDict(d *Dict, src Value) error {
	if other, ok := src.(*Dict); ok {
		var err error
		other.Range(func(k, v Value) bool {
			err = d.Set(k, v)
			return err == nil
		})
		return err
	}
	pairs, err := Iterate(src)
	if err != nil {
		return err
	}
	for i, pair := range pairs {
		kv, err := Iterate(pair)
		if err != nil || len(kv) != 2 {
			return pyerrors.Type("cannot convert dictionary update sequence element #%d to a key/value pair", i)
		}
		if err := d.Set(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func installDictMethods() {
	method(DictType, "get", 1, 2, func(self Value, args []Value) (Value, error) {
		v, ok, err := self.(*Dict).Get(args[0])
		if err != nil {
			return nil, err
		}
		if ok {
			return v, nil
		}
		if len(args) == 2 {
			return args[1], nil
		}
		return None, nil
	})
	method(DictType, "keys", 0, 0, func(self Value, _ []Value) (Value, error) {
		return NewList(self.(*Dict).Keys()...), nil
	})
	method(DictType, "values", 0, 0, func(self Value, _ []Value) (Value, error) {
		d := self.(*Dict)
		values := make([]Value, 0, d.Len())
		d.Range(func(_, v Value) bool {
			values = append(values, v)
			return true
		})
		return NewList(values...), nil
	})
	method(DictType, "items", 0, 0, func(self Value, _ []Value) (Value, error) {
		d := self.(*Dict)
		items := make([]Value, 0, d.Len())
		d.Range(func(k, v Value) bool {
			items = append(items, NewTuple(k, v))
			return true
		})
		return NewList(items...), nil
	})
}

// strArg extracts a string argument for str methods.
func strArg(name string, v Value) (string, error) {
	s, ok := v.(Str)
	if !ok {
		return "", pyerrors.Type("%s() argument must be str, not %s", name, v.Type().name)
	}
	return string(s), nil
}

func installStrMethods() {
	method(StrType, "upper", 0, 0, func(self Value, _ []Value) (Value, error) {
		return Str(strings.ToUpper(string(self.(Str)))), nil
	})
	method(StrType, "lower", 0, 0, func(self Value, _ []Value) (Value, error) {
		return Str(strings.ToLower(string(self.(Str)))), nil
	})
	method(StrType, "strip", 0, 1, func(self Value, args []Value) (Value, error) {
		s := string(self.(Str))
		if len(args) == 0 || args[0] == None {
			return Str(strings.TrimSpace(s)), nil
		}
		cutset, err := strArg("strip", args[0])
		if err != nil {
			return nil, err
		}
		return Str(strings.Trim(s, cutset)), nil
	})
	method(StrType, "startswith", 1, 1, func(self Value, args []Value) (Value, error) {
		return matchAffix("startswith", string(self.(Str)), args[0], strings.HasPrefix)
	})
	method(StrType, "endswith", 1, 1, func(self Value, args []Value) (Value, error) {
		return matchAffix("endswith", string(self.(Str)), args[0], strings.HasSuffix)
	})
	method(StrType, "split", 0, 1, func(self Value, args []Value) (Value, error) {
		s := string(self.(Str))
		var parts []string
		if len(args) == 0 || args[0] == None {
			parts = strings.Fields(s)
		} else {
			sep, err := strArg("split", args[0])
			if err != nil {
				return nil, err
			}
			if sep == "" {
				return nil, pyerrors.Type("empty separator")
			}
			parts = strings.Split(s, sep)
		}
		items := make([]Value, len(parts))
		for i, p := range parts {
			items[i] = Str(p)
		}
		return NewList(items...), nil
	})
	method(StrType, "replace", 2, 2, func(self Value, args []Value) (Value, error) {
		old, err := strArg("replace", args[0])
		if err != nil {
			return nil, err
		}
		repl, err := strArg("replace", args[1])
		if err != nil {
			return nil, err
		}
		return Str(strings.ReplaceAll(string(self.(Str)), old, repl)), nil
	})
	method(StrType, "join", 1, 1, func(self Value, args []Value) (Value, error) {
		items, err := Iterate(args[0])
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(items))
		for i, item := range items {
			s, ok := item.(Str)
			if !ok {
				return nil, pyerrors.Type("sequence item %d: expected str instance, %s found", i, item.Type().name)
			}
			parts[i] = string(s)
		}
		return Str(strings.Join(parts, string(self.(Str)))), nil
	})
	method(StrType, "find", 1, 1, func(self Value, args []Value) (Value, error) {
		sub, err := strArg("find", args[0])
		if err != nil {
			return nil, err
		}
		s := string(self.(Str))
		i := strings.Index(s, sub)
		if i < 0 {
			return Float(-1), nil
		}
		return Float(len([]rune(s[:i]))), nil
	})
}

func matchAffix(name, s string, affix Value, match func(string, string) bool) (Value, error) {
	if t, ok := affix.(*Tuple); ok {
		for _, item := range t.Items {
			a, err := strArg(name, item)
			if err != nil {
				return nil, err
			}
			if match(s, a) {
				return True, nil
			}
		}
		return False, nil
	}
	a, err := strArg(name, affix)
	if err != nil {
		return nil, err
	}
	return BoolOf(match(s, a)), nil
}

func installSequenceMethods(t *Type) {
	method(t, "count", 1, 1, func(self Value, args []Value) (Value, error) {
		items, _ := Iterate(self)
		n := 0
		for _, item := range items {
			if Equal(item, args[0]) {
				n++
			}
		}
		return Float(n), nil
	})
	method(t, "index", 1, 3, func(self Value, args []Value) (Value, error) {
		items, _ := Iterate(self)
		start, end, err := sliceBounds(t.name+".index", args[1:], len(items))
		if err != nil {
			return nil, err
		}
		for i := start; i < end; i++ {
			if Equal(items[i], args[0]) {
				return Float(i), nil
			}
		}
		if t == ListType {
			return nil, pyerrors.Value("%s is not in list", Repr(args[0]))
		}
		return nil, pyerrors.Value("%s.index(x): x not in %s", t.name, t.name)
	})
}

// sliceBounds resolves optional start and end arguments against a sequence
// of length n, counting negative values from the end and clamping to
// [0, n].
func sliceBounds(name string, args []Value, n int) (int, int, error) {
	bounds := [2]int{0, n}
	for i, arg := range args {
		v, ok := integer(arg)
		if !ok {
			return 0, 0, pyerrors.Type("%s() slice indices must be integers, not %s", name, arg.Type().name)
		}
		if v < 0 {
			v = max(v+n, 0)
		}
		bounds[i] = min(v, n)
	}
	return bounds[0], bounds[1], nil
}

func builtinLen(args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("len", args, kwargs, 1, 1); err != nil {
		return nil, err
	}
	n, err := Len(args[0])
	if err != nil {
		return nil, err
	}
	return Float(n), nil
}

func builtinRepr(args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("repr", args, kwargs, 1, 1); err != nil {
		return nil, err
	}
	return Str(Repr(args[0])), nil
}

func builtinAbs(args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("abs", args, kwargs, 1, 1); err != nil {
		return nil, err
	}
	x, ok := number(args[0])
	if !ok {
		return nil, pyerrors.Type("bad operand type for abs(): '%s'", args[0].Type().name)
	}
	return Float(math.Abs(x)), nil
}

// extremum implements min (sign -1) and max (sign 1) over either the
// arguments or a single iterable argument.
func extremum(name string, args []Value, kwargs *Kwargs, sign int) (Value, error) {
	if kwargs.Len() > 0 {
		return nil, pyerrors.Type("%s() takes no keyword arguments", name)
	}
	items := args
	if len(args) == 1 {
		var err error
		if items, err = Iterate(args[0]); err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		return nil, pyerrors.Type("%s() arg is an empty sequence", name)
	}
	best := items[0]
	for _, item := range items[1:] {
		if Compare(item, best)*sign > 0 {
			best = item
		}
	}
	return best, nil
}

// typesArg accepts a type or a tuple of types.
func typesArg(name string, v Value) ([]*Type, error) {
	switch x := v.(type) {
	case *Type:
		return []*Type{x}, nil
	case *Tuple:
		types := make([]*Type, 0, len(x.Items))
		for _, item := range x.Items {
			t, ok := item.(*Type)
			if !ok {
				return nil, pyerrors.Type("%s() arg 2 must be a type or tuple of types", name)
			}
			types = append(types, t)
		}
		return types, nil
	}
	return nil, pyerrors.Type("%s() arg 2 must be a type or tuple of types", name)
}

func builtinIsSubclass(args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("issubclass", args, kwargs, 2, 2); err != nil {
		return nil, err
	}
	t, ok := args[0].(*Type)
	if !ok {
		return nil, pyerrors.Type("issubclass() arg 1 must be a class")
	}
	candidates, err := typesArg("issubclass", args[1])
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if t.IsSubclass(c) {
			return True, nil
		}
	}
	return False, nil
}

func builtinIsInstance(args []Value, kwargs *Kwargs) (Value, error) {
	if err := arity("isinstance", args, kwargs, 2, 2); err != nil {
		return nil, err
	}
	candidates, err := typesArg("isinstance", args[1])
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if args[0].Type().IsSubclass(c) {
			return True, nil
		}
	}
	return False, nil
}
