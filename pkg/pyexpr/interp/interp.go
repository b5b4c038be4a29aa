// Package interp evaluates expression trees produced by the syntax package.
//
// Evaluation is a pure recursive walk over the tree. Free variables resolve
// against the caller's context first and the builtins second; context
// values are converted through the bridge the first time they are
// referenced and reused for the rest of the evaluation.
package interp

import (
	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/bridge"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/object"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/syntax"
)

// Evaluate evaluates tree against vars.
func Evaluate(tree *syntax.Token, vars map[string]any) (object.Value, error) {
	return NewScope(vars, nil).Eval(tree)
}

// Scope resolves names for one evaluation.
type Scope struct {
	vars      map[string]any
	globals   map[string]object.Value
	converted map[string]object.Value
}

// NewScope creates a scope over the caller's vars. globals, which may be
// nil, shadow the builtins but not vars.
func NewScope(vars map[string]any, globals map[string]object.Value) *Scope {
	return &Scope{vars: vars, globals: globals}
}

// Lookup resolves a free variable.
func (s *Scope) Lookup(name string) (object.Value, error) {
	if v, ok := s.converted[name]; ok {
		return v, nil
	}
	if raw, ok := s.vars[name]; ok {
		v := bridge.FromNative(raw)
		if s.converted == nil {
			s.converted = make(map[string]object.Value)
		}
		s.converted[name] = v
		return v, nil
	}
	if v, ok := s.globals[name]; ok {
		return v, nil
	}
	if v, ok := object.LookupBuiltin(name); ok {
		return v, nil
	}
	return nil, pyerrors.Name(name)
}

// Eval evaluates a tree node within the scope.
func (s *Scope) Eval(node *syntax.Token) (object.Value, error) {
	if node == nil {
		return nil, pyerrors.Syntax(0, "empty expression")
	}
	switch node.ID {
	case syntax.IDNumber:
		f, ok := node.Value.(float64)
		if !ok {
			return nil, pyerrors.Syntax(node.Pos, "malformed number node")
		}
		return object.Float(f), nil
	case syntax.IDString:
		str, err := text(node, "string")
		if err != nil {
			return nil, err
		}
		return object.Str(str), nil
	case syntax.IDConstant:
		return constant(node)
	case syntax.IDName:
		name, err := text(node, "name")
		if err != nil {
			return nil, err
		}
		return s.Lookup(name)
	case "and":
		return s.and(node)
	case "or":
		return s.or(node)
	case "not":
		v, err := s.Eval(node.First)
		if err != nil {
			return nil, err
		}
		return object.BoolOf(!object.Truth(v)), nil
	case syntax.IDNeg:
		v, err := s.Eval(node.First)
		if err != nil {
			return nil, err
		}
		return object.Neg(v)
	case "+", "-", "*", "/":
		return s.arithmetic(node)
	case syntax.IDComparator:
		return s.chain(node)
	case syntax.IDTuple:
		items, err := s.evalAll(node.Items)
		if err != nil {
			return nil, err
		}
		return object.NewTuple(items...), nil
	case syntax.IDList:
		items, err := s.evalAll(node.Items)
		if err != nil {
			return nil, err
		}
		return object.NewList(items...), nil
	case syntax.IDDict:
		return s.dict(node)
	case syntax.IDAttribute:
		target, err := s.Eval(node.First)
		if err != nil {
			return nil, err
		}
		name, err := text(node.Second, "attribute")
		if err != nil {
			return nil, err
		}
		return object.GetAttr(target, name)
	case syntax.IDSubscript:
		target, err := s.Eval(node.First)
		if err != nil {
			return nil, err
		}
		key, err := s.Eval(node.Second)
		if err != nil {
			return nil, err
		}
		return object.GetItem(target, key)
	case syntax.IDCall:
		return s.call(node)
	}
	return nil, pyerrors.Syntax(node.Pos, "unknown expression node '%s'", node.ID)
}

func constant(node *syntax.Token) (object.Value, error) {
	switch node.Value {
	case "None":
		return object.None, nil
	case "True":
		return object.True, nil
	case "False":
		return object.False, nil
	}
	return nil, pyerrors.Syntax(node.Pos, "unknown constant %v", node.Value)
}

// text returns the string payload of a leaf node.
func text(node *syntax.Token, what string) (string, error) {
	if node == nil {
		return "", pyerrors.Syntax(-1, "malformed %s node", what)
	}
	str, ok := node.Value.(string)
	if !ok {
		return "", pyerrors.Syntax(node.Pos, "malformed %s node", what)
	}
	return str, nil
}

// and returns the left operand when it is falsy, the right one otherwise.
func (s *Scope) and(node *syntax.Token) (object.Value, error) {
	left, err := s.Eval(node.First)
	if err != nil {
		return nil, err
	}
	if !object.Truth(left) {
		return left, nil
	}
	return s.Eval(node.Second)
}

// or returns the left operand when it is truthy, the right one otherwise.
func (s *Scope) or(node *syntax.Token) (object.Value, error) {
	left, err := s.Eval(node.First)
	if err != nil {
		return nil, err
	}
	if object.Truth(left) {
		return left, nil
	}
	return s.Eval(node.Second)
}

func (s *Scope) arithmetic(node *syntax.Token) (object.Value, error) {
	left, err := s.Eval(node.First)
	if err != nil {
		return nil, err
	}
	right, err := s.Eval(node.Second)
	if err != nil {
		return nil, err
	}
	switch node.ID {
	case "+":
		return object.Add(left, right)
	case "-":
		return object.Sub(left, right)
	case "*":
		return object.Mul(left, right)
	default:
		return object.Div(left, right)
	}
}

// chain evaluates a op1 b op2 c ... as (a op1 b) and (b op2 c), evaluating
// each operand at most once and stopping at the first false pair.
func (s *Scope) chain(node *syntax.Token) (object.Value, error) {
	if len(node.Ops) == 0 || len(node.Items) != len(node.Ops)+1 {
		return nil, pyerrors.Syntax(node.Pos, "malformed comparison node")
	}
	left, err := s.Eval(node.Items[0])
	if err != nil {
		return nil, err
	}
	for i, op := range node.Ops {
		right, err := s.Eval(node.Items[i+1])
		if err != nil {
			return nil, err
		}
		ok, err := object.CompareOp(op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return object.False, nil
		}
		left = right
	}
	return object.True, nil
}

func (s *Scope) evalAll(nodes []*syntax.Token) ([]object.Value, error) {
	out := make([]object.Value, len(nodes))
	for i, n := range nodes {
		v, err := s.Eval(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Scope) dict(node *syntax.Token) (object.Value, error) {
	d := object.NewDict()
	for _, pair := range node.Items {
		if pair == nil {
			return nil, pyerrors.Syntax(node.Pos, "malformed dict node")
		}
		k, err := s.Eval(pair.First)
		if err != nil {
			return nil, err
		}
		v, err := s.Eval(pair.Second)
		if err != nil {
			return nil, err
		}
		if err := d.Set(k, v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (s *Scope) call(node *syntax.Token) (object.Value, error) {
	callee, err := s.Eval(node.First)
	if err != nil {
		return nil, err
	}
	var args []object.Value
	kwargs := object.NewKwargs()
	for _, arg := range node.Items {
		if arg == nil {
			return nil, pyerrors.Syntax(node.Pos, "malformed call node")
		}
		if arg.ID == syntax.IDKwarg {
			v, err := s.Eval(arg.Second)
			if err != nil {
				return nil, err
			}
			name, err := text(arg.First, "keyword argument")
			if err != nil {
				return nil, err
			}
			if _, dup := kwargs.Get(name); dup {
				return nil, pyerrors.Syntax(arg.Pos, "keyword argument repeated: %s", name)
			}
			kwargs.Set(name, v)
			continue
		}
		v, err := s.Eval(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return object.Call(callee, args, kwargs)
}
