package object

import (
	"strings"

	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
)

func unsupported(op string, a, b Value) error {
	return pyerrors.Type("unsupported operand type(s) for %s: '%s' and '%s'", op, a.Type().name, b.Type().name)
}

// Add implements +: numeric addition and concatenation of strings, lists
// and tuples.
func Add(a, b Value) (Value, error) {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return Float(x + y), nil
		}
	}
	switch x := a.(type) {
	case Str:
		if y, ok := b.(Str); ok {
			return x + y, nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			return NewList(concat(x.Items, y.Items)...), nil
		}
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			return NewTuple(concat(x.Items, y.Items)...), nil
		}
	}
	return nil, unsupported("+", a, b)
}

// Sub implements -.
func Sub(a, b Value) (Value, error) {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return Float(x - y), nil
		}
	}
	return nil, unsupported("-", a, b)
}

// MaxRepeat bounds the length of a sequence built by repetition: bytes for
// strings, items for lists and tuples.
const MaxRepeat = 1 << 24

// Mul implements *: numeric multiplication and repetition of strings,
// lists and tuples by an integral count.
func Mul(a, b Value) (Value, error) {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return Float(x * y), nil
		}
	}
	seq, count := a, b
	if _, ok := number(a); ok {
		seq, count = b, a
	}
	var size int
	switch x := seq.(type) {
	case Str:
		size = len(x)
	case *List:
		size = len(x.Items)
	case *Tuple:
		size = len(x.Items)
	default:
		return nil, unsupported("*", a, b)
	}
	f, ok := integral(count)
	if !ok {
		return nil, unsupported("*", a, b)
	}
	if !fitsInt(f) {
		return nil, pyerrors.Value("repetition count %s does not fit in an integer", Repr(count))
	}
	n := max(int(f), 0)
	if size > 0 && n > MaxRepeat/size {
		return nil, pyerrors.Value("repeated %s would exceed %d elements", seq.Type().name, MaxRepeat)
	}

	switch x := seq.(type) {
	case Str:
		return Str(strings.Repeat(string(x), n)), nil
	case *List:
		return NewList(repeat(x.Items, n)...), nil
	default:
		return NewTuple(repeat(seq.(*Tuple).Items, n)...), nil
	}
}

// Div implements true division.
func Div(a, b Value) (Value, error) {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			if y == 0 {
				return nil, pyerrors.New(pyerrors.KindZeroDivision, "float division by zero")
			}
			return Float(x / y), nil
		}
	}
	return nil, unsupported("/", a, b)
}

// Neg implements unary minus.
func Neg(v Value) (Value, error) {
	if x, ok := number(v); ok {
		return Float(-x), nil
	}
	return nil, pyerrors.Type("bad operand type for unary -: '%s'", v.Type().name)
}

func concat(a, b []Value) []Value {
	out := make([]Value, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func repeat(items []Value, n int) []Value {
	out := make([]Value, 0, len(items)*n)
	for i := 0; i < n; i++ {
		out = append(out, items...)
	}
	return out
}
