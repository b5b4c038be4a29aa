package template

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/randalmurphal/pyexpr/pkg/pyexpr"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/object"
)

// placeholder matches ${ expr }; group 1 is the expression.
var placeholder = regexp.MustCompile(`\$\{([^}]*)\}`)

// Expander expands ${ expr } placeholders. It is safe for concurrent use
// after construction.
type Expander struct {
	ev            *pyexpr.Evaluator
	missingAction MissingAction
}

// NewExpander creates an Expander. By default placeholders with undefined
// names are kept as written.
func NewExpander(opts ...Option) *Expander {
	e := &Expander{missingAction: MissingKeep}
	for _, opt := range opts {
		opt(e)
	}
	if e.ev == nil {
		e.ev = pyexpr.New()
	}
	return e
}

// Expand replaces every placeholder in s.
//
// Example:
//
//	result, err := exp.Expand(ctx, "Hello ${ name.upper() }", vars)
func (e *Expander) Expand(ctx context.Context, s string, vars map[string]any) (string, error) {
	matches := placeholder.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var b strings.Builder
	var missing []string
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		last = m[1]

		src := strings.TrimSpace(s[m[2]:m[3]])
		rendered, err := e.render(ctx, src, vars)
		switch {
		case err == nil:
			b.WriteString(rendered)
		case errors.Is(err, pyexpr.ErrName):
			switch e.missingAction {
			case MissingEmpty:
			case MissingError:
				missing = append(missing, src)
			default:
				b.WriteString(s[m[0]:m[1]])
			}
		default:
			return "", fmt.Errorf("expand %q: %w", src, err)
		}
	}
	b.WriteString(s[last:])

	if len(missing) > 0 {
		return "", &UndefinedExpressionError{Exprs: missing}
	}
	return b.String(), nil
}

func (e *Expander) render(ctx context.Context, src string, vars map[string]any) (string, error) {
	p, err := e.ev.Compile(ctx, src)
	if err != nil {
		return "", err
	}
	v, err := p.Run(ctx, vars)
	if err != nil {
		return "", err
	}
	return object.ToString(v), nil
}

// ExpandAll expands every string. It returns the first error.
func (e *Expander) ExpandAll(ctx context.Context, ss []string, vars map[string]any) ([]string, error) {
	if ss == nil {
		return nil, nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		expanded, err := e.Expand(ctx, s, vars)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}

// ExpandMap expands string values recursively through nested maps and
// slices. Other values are copied unchanged.
func (e *Expander) ExpandMap(ctx context.Context, m map[string]any, vars map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		expanded, err := e.expandValue(ctx, v, vars)
		if err != nil {
			return nil, err
		}
		out[k] = expanded
	}
	return out, nil
}

func (e *Expander) expandValue(ctx context.Context, v any, vars map[string]any) (any, error) {
	switch val := v.(type) {
	case string:
		return e.Expand(ctx, val, vars)
	case map[string]any:
		return e.ExpandMap(ctx, val, vars)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := e.expandValue(ctx, item, vars)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return v, nil
	}
}

// UndefinedExpressionError is returned under MissingError when one or more
// placeholders reference undefined names.
type UndefinedExpressionError struct {
	// Exprs holds the failing placeholder expressions in order.
	Exprs []string
}

// Error implements the error interface.
func (e *UndefinedExpressionError) Error() string {
	if len(e.Exprs) == 1 {
		return fmt.Sprintf("undefined expression: %s", e.Exprs[0])
	}
	return fmt.Sprintf("undefined expressions: %s", strings.Join(e.Exprs, ", "))
}

var defaultExpander = NewExpander()

// Expand expands s with a default Expander, keeping placeholders with
// undefined names.
func Expand(ctx context.Context, s string, vars map[string]any) (string, error) {
	return defaultExpander.Expand(ctx, s, vars)
}
