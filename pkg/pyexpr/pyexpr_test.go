package pyexpr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"1", 1.0},
		{"42", 42.0},
		{"-42", -42.0},
		{".42", 0.42},
		{"1.2", 1.2},
		{"True", true},
		{"False", false},
		{"None", nil},
		{`"somestring"`, "somestring"},
		{"'somestring'", "somestring"},
		{"()", []any{}},
		{"(1, 2, 3)", []any{1.0, 2.0, 3.0}},
		{"[]", []any{}},
		{"[1, 2, 3]", []any{1.0, 2.0, 3.0}},
		{"{}", map[string]any{}},
		{"{'foo': 1, 'bar': 2}", map[string]any{"foo": 1.0, "bar": 2.0}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Eval(tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalFreeVariables(t *testing.T) {
	for _, v := range []any{1.0, true, false, nil, "bar"} {
		got, err := Eval("foo", map[string]any{"foo": v})
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestEvalComparisons(t *testing.T) {
	tests := []struct {
		src  string
		vars map[string]any
		want bool
	}{
		{"1 == 1", nil, true},
		{`"foo" == "bar"`, nil, false},
		{"1 == a", map[string]any{"a": 1}, true},
		{`foo == "bar"`, map[string]any{"foo": "qux"}, false},
		{"1 != a", map[string]any{"a": 42}, true},
		{"foo != bar", map[string]any{"foo": "qux", "bar": "quux"}, true},
		{"1 <> 2", nil, true},
		{`"foo" <> "foo"`, nil, false},
		{"3 < 5", nil, true},
		{"5 >= 3", nil, true},
		{"3 >= 3", nil, true},
		{"3 > 5", nil, false},
		{"1 < 3 < 5", nil, true},
		{"5 > 3 > 1", nil, true},
		{"1 < 3 > 2 == 2 > -2", nil, true},
		{"date >= current", map[string]any{"date": "2010-06-08", "current": "2010-06-05"}, true},
		{`state == "cancel"`, map[string]any{"state": "open"}, false},
		{"None < 42", nil, true},
		{"42 > None", nil, true},
		{"None > 42", nil, false},
		{"None < False", nil, true},
		{"None < True", nil, true},
		{"False > None", nil, true},
		{"True > None", nil, true},
		{"None > False", nil, false},
		{"None > True", nil, false},
		{`False < ""`, nil, true},
		{`"" > False`, nil, true},
		{`False > ""`, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Eval(tt.src, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalBooleanOperators(t *testing.T) {
	tests := []struct {
		src  string
		vars map[string]any
		want any
	}{
		{"foo == 'foo' or foo == 'bar'", map[string]any{"foo": "bar"}, true},
		{"foo == 'foo' and bar == 'bar'", map[string]any{"foo": "foo", "bar": "bar"}, true},
		{"foo == 'foo' or bar == 'bar'", map[string]any{"foo": "foo"}, true},
		{"foo == 'foo' and bar == 'bar'", map[string]any{"foo": "bar"}, false},
		{`"foo" or "bar"`, nil, "foo"},
		{`None or "bar"`, nil, "bar"},
		{"False or None", nil, nil},
		{"0 or 1", nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Eval(tt.src, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalContainment(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"'bar' in ('foo', 'bar')", true},
		{"1 in (1, 2, 3, 4)", true},
		{"1 in (2, 3, 4)", false},
		{`"url" in ("url",)`, true},
		{`"foo" in ["foo", "bar"]`, true},
		{`"ur" in ("url",)`, false},
		{"1 not in (2, 3, 4)", true},
		{`"ur" not in ("url",)`, true},
		{"-2 not in (1, 2, 3)", true},
		{`"view" in "view"`, true},
		{`"bob" in "view"`, false},
		{`"ur" in "url"`, true},
		{`"a" in {"a": 1}`, true},
		{`(1, 2) in [(1, 2)]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Eval(tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"1 + 1", 2.0},
		{"1.5 + 2", 3.5},
		{"1 + -1", 0.0},
		{"1 - 1", 0.0},
		{"1.5 - 2", -0.5},
		{"2 - 1.5", 0.5},
		{"1 * 3", 3.0},
		{"0 * 5", 0.0},
		{"42 * -2", -84.0},
		{"1 / 2", 0.5},
		{"2 / 1", 2.0},
		{`"foo" + "bar"`, "foobar"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Eval(tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalDicts(t *testing.T) {
	d := map[string]any{"foo": 3, "bar": 4, "baz": 5}

	got, err := Eval(`d["foo"]`, map[string]any{"d": d})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = Eval(`d["baz"]`, map[string]any{"d": d})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	_, err = Eval(`d["foo"]`, map[string]any{"d": map[string]any{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKey)
	assert.Regexp(t, "^KeyError", err.Error())

	withFoo := map[string]any{"d": map[string]any{"foo": 3}}
	for src, want := range map[string]any{
		`d.get("foo")`:     3.0,
		`d.get("bar")`:     nil,
		`d.get("bar", 42)`: 42.0,
	} {
		got, err := Eval(src, withFoo)
		require.NoError(t, err, src)
		assert.Equal(t, want, got, src)
	}

	nullFoo := map[string]any{"d": map[string]any{"foo": nil}}
	got, err = Eval(`d.get("foo")`, nullFoo)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEvalHostConversion(t *testing.T) {
	got, err := Eval("foo.bar", map[string]any{"foo": map[string]any{"bar": 3}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = Eval("foo[3]", map[string]any{"foo": []int{9, 8, 7, 6, 5}})
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)

	got, err = Eval(`bool(date_deadline)`, map[string]any{"date_deadline": "2008"})
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = Eval("bool(s)", map[string]any{"s": ""})
	require.NoError(t, err)
	assert.Equal(t, false, got)

	got, err = Eval(`bool("foo")`, nil)
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestEvalAttributes(t *testing.T) {
	obj, err := Call(Object, nil, nil)
	require.NoError(t, err)
	o := obj.(*Instance)

	o.SetAttr("bar", True)
	got, err := Eval("foo.bar", map[string]any{"foo": o})
	require.NoError(t, err)
	assert.Equal(t, true, got)

	o.SetAttr("bar", False)
	got, err = Eval("foo.bar", map[string]any{"foo": o})
	require.NoError(t, err)
	assert.Equal(t, false, got)

	o.SetAttr("fn", NewFunc("fn", func([]Value, *Kwargs) (any, error) {
		return "ok", nil
	}))
	got, err = Eval("foo.fn()", map[string]any{"foo": o})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	bar, err := DefineType("bar", nil, map[string]any{"baz": true})
	require.NoError(t, err)
	o.SetAttr("bar", bar)
	got, err = Eval("foo.bar.baz", map[string]any{"foo": o})
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestDefineTypeMethods(t *testing.T) {
	myType, err := DefineType("MyType", nil, map[string]any{
		"attr": 3,
		"some_method": Func(func([]Value, *Kwargs) (any, error) {
			return "ok", nil
		}),
		"get_attr": Func(func(args []Value, _ *Kwargs) (any, error) {
			v, _ := args[0].Type().Lookup("attr")
			return v, nil
		}),
	})
	require.NoError(t, err)
	vars := map[string]any{"MyType": myType}

	for src, want := range map[string]any{
		"MyType().attr":          3.0,
		"MyType().some_method()": "ok",
		"MyType().get_attr()":    3.0,
		"MyType() == MyType()":   false,
	} {
		got, err := Eval(src, vars)
		require.NoError(t, err, src)
		assert.Equal(t, want, got, src)
	}
}

func TestDefineTypeHooks(t *testing.T) {
	proxy, err := DefineType("Proxy", nil, nil, WithGetAttribute(func(_ Value, name string) (Value, error) {
		return FromNative("proxied " + name), nil
	}))
	require.NoError(t, err)

	_, err = Eval("p.anything", map[string]any{"p": proxy})
	assert.ErrorIs(t, err, ErrAttribute, "hooks apply to instances, not to the type itself")

	got, err := Eval("P().anything", map[string]any{"P": proxy})
	require.NoError(t, err)
	assert.Equal(t, "proxied anything", got)

	hollow, err := DefineType("Hollow", nil, nil, WithGetAttribute(func(Value, string) (Value, error) {
		return nil, nil
	}))
	require.NoError(t, err)
	got, err = Eval("W().x or 1", map[string]any{"W": hollow})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	jsonable, err := DefineType("MyType", nil, nil, WithNative(func(Value) (any, error) {
		return true, nil
	}))
	require.NoError(t, err)
	got, err = Eval("MyType()", map[string]any{"MyType": jsonable})
	require.NoError(t, err)
	assert.Equal(t, true, got)

	t1, err := DefineType("Type1", nil, nil)
	require.NoError(t, err)
	t2, err := DefineType("Type2", nil, nil)
	require.NoError(t, err)
	vars := map[string]any{"T1": t1, "T2": t2}

	got, err = Eval("T1() < T2()", vars)
	require.NoError(t, err)
	assert.Equal(t, true, got)
	got, err = Eval("T1() > T2()", vars)
	require.NoError(t, err)
	assert.Equal(t, false, got)
}

func TestEvalCallables(t *testing.T) {
	got, err := Eval("foo()", map[string]any{"foo": Func(func([]Value, *Kwargs) (any, error) {
		return 3, nil
	})})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = Eval("foo(ok=True)", map[string]any{"foo": Func(func(_ []Value, kwargs *Kwargs) (any, error) {
		v, _ := kwargs.Get("ok")
		return v, nil
	})})
	require.NoError(t, err)
	assert.Equal(t, true, got)

	var positional []any
	var keys []string
	capture := Func(func(args []Value, kwargs *Kwargs) (any, error) {
		positional = positional[:0]
		for _, a := range args {
			n, err := ToNative(a)
			if err != nil {
				return nil, err
			}
			positional = append(positional, n)
		}
		keys = kwargs.Keys()
		nok, _ := kwargs.Get("nok")
		if Truth(nok) {
			return nil, errors.New("nok should be False")
		}
		ok, _ := kwargs.Get("ok")
		return ok, nil
	})
	got, err = Eval("foo(1, 2, 3, ok=True, nok=False)", map[string]any{"foo": capture})
	require.NoError(t, err)
	assert.Equal(t, true, got)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, positional)
	assert.Equal(t, []string{"ok", "nok"}, keys)
}

func TestIsSubclass(t *testing.T) {
	assert.True(t, IsSubclass(DictType, DictType))
	assert.True(t, IsSubclass(BoolType, Object))
	assert.False(t, IsSubclass(Object, BoolType))

	got, err := Eval("issubclass(dict, dict)", nil)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	base, err := DefineType("Base", nil, nil)
	require.NoError(t, err)
	mid, err := DefineType("Mid", base, nil)
	require.NoError(t, err)
	leaf, err := DefineType("Leaf", mid, nil)
	require.NoError(t, err)
	assert.True(t, IsSubclass(leaf, base))
	assert.True(t, IsSubclass(leaf, Object))
	assert.False(t, IsSubclass(base, leaf))
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		src     string
		vars    map[string]any
		wantErr error
		wantMsg string
	}{
		{"1 +", nil, ErrSyntax, "SyntaxError: unexpected end of expression"},
		{"'abc", nil, ErrSyntax, "unterminated string literal"},
		{"x", nil, ErrName, "NameError: name 'x' is not defined"},
		{"o.nope", map[string]any{"o": map[string]any{}}, ErrAttribute, "'dict' object has no attribute 'nope'"},
		{"d['k']", map[string]any{"d": map[string]any{}}, ErrKey, "KeyError: 'k'"},
		{"1 + 'a'", nil, ErrType, "unsupported operand type(s) for +: 'float' and 'str'"},
		{"'a'()", nil, ErrType, "'str' object is not callable"},
		{"[1][1]", nil, ErrIndex, "IndexError: list index out of range"},
		{"1 / 0", nil, ErrZeroDivision, "ZeroDivisionError"},
		{`"ab" * 1000000000000000000`, nil, ErrValue, "ValueError: repeated str would exceed"},
		{`"ab" * 5000000000000000000`, nil, ErrValue, "repeated str would exceed"},
		{"[1] * 100000000000000000000000", nil, ErrValue, "does not fit in an integer"},
		{"(1, 2).index(3)", nil, ErrValue, "ValueError: tuple.index(x): x not in tuple"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Eval(tt.src, tt.vars)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTokenizeParseEvaluate(t *testing.T) {
	tokens, err := Tokenize("a * 2")
	require.NoError(t, err)
	assert.Equal(t, "(end)", tokens[len(tokens)-1].ID)

	tree, err := Parse(tokens)
	require.NoError(t, err)

	v, err := Evaluate(tree, map[string]any{"a": 21})
	require.NoError(t, err)
	assert.Equal(t, FloatType, v.Type())

	native, err := ToNative(v)
	require.NoError(t, err)
	assert.Equal(t, 42.0, native)
}
