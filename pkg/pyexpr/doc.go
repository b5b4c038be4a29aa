/*
Package pyexpr evaluates a safe subset of Python expressions against a
host supplied context.

# Overview

Expressions are side-effect free: there are no statements, assignments or
loops. A host passes in variables and functions and gets back a value.
Typical uses are business rules and configuration driven filters:

	ok, err := pyexpr.Eval(`user.age >= 18 and user.country in ("DE", "FR")`, vars)

# Expression Syntax

	literals     42  3.5  .5  'str'  "str"  None  True  False
	collections  (a, b)  (a,)  ()  [a, b]  {k: v}
	boolean      a and b   a or b   not a
	comparison   == != <> < > <= >= in  not in  is  is not
	arithmetic   a + b  a - b  a * b  a / b  -a
	access       a.b  a[k]  f(x, key=value)

Comparisons chain: a < b < c means a < b and b < c, with b evaluated once.
and/or return one of their operands, like Python. All numbers are floats.
Strings have no escape sequences; a string runs to the next matching quote.

# Values

Host values are converted on first use: Go numbers become float, maps with
string keys become dict (sorted by key; use an ordered map to keep
insertion order), slices become list and functions of type Func become
callables. Anything else is wrapped opaquely and can be passed back to host
functions. Results are projected back with the inverse rules.

# Types

DefineType creates classes with single inheritance. Attributes that are
functions act as methods; hooks override equality, ordering, truthiness,
attribute lookup and the other protocols.

	point, _ := pyexpr.DefineType("Point", nil, map[string]any{
		"norm": pyexpr.Func(func(args []pyexpr.Value, _ *pyexpr.Kwargs) (any, error) { ... }),
	})

# Evaluator

The package functions are stateless. An Evaluator adds a parse cache,
globals, structured logging, metrics and tracing:

	ev := pyexpr.New(
	    pyexpr.WithLogger(logger),
	    pyexpr.WithCacheSize(1024),
	    pyexpr.WithMetrics(observability.NewMetricsRecorder()),
	)
	result, err := ev.Eval(ctx, "price * quantity", vars)

# Errors

Failures are returned as *errors.Error values from the errors subpackage,
carrying one of a closed set of kinds (SyntaxError, NameError,
AttributeError, KeyError, TypeError, IndexError, ZeroDivisionError,
ValueError). Match them with errors.Is against the exported sentinels.
*/
package pyexpr
