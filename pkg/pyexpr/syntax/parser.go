package syntax

import (
	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
)

// Binding powers, loosest to tightest.
const (
	bpLowest     = 0
	bpOr         = 10
	bpAnd        = 20
	bpNot        = 30
	bpComparison = 40
	bpAdditive   = 50
	bpMultiply   = 60
	bpUnary      = 70
	bpPostfix    = 80
)

// infixPower returns the left binding power of a token in infix position.
func infixPower(id string) int {
	switch id {
	case "or":
		return bpOr
	case "and":
		return bpAnd
	case "+", "-":
		return bpAdditive
	case "*", "/":
		return bpMultiply
	case IDCall, IDSubscript, IDAttribute:
		return bpPostfix
	}
	if IsComparison(id) {
		return bpComparison
	}
	return bpLowest
}

// Parse builds an expression tree from tokens produced by Tokenize. The
// whole token sequence must form a single expression.
func Parse(tokens []Token) (*Token, error) {
	p := &parser{tokens: tokens}
	root, err := p.expression(bpLowest)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.ID != IDEnd {
		return nil, unexpected(t)
	}
	return root, nil
}

// ParseString tokenizes and parses src.
func ParseString(src string) (*Token, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

type parser struct {
	tokens []Token
	pos    int
}

// peek returns the current token without consuming it. Running off the end
// of a sequence that lacks its sentinel yields a synthetic (end).
func (p *parser) peek() *Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(offset int) *Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		pos := 0
		if n := len(p.tokens); n > 0 {
			pos = p.tokens[n-1].Pos
		}
		return &Token{ID: IDEnd, Pos: pos}
	}
	return &p.tokens[i]
}

// advance consumes the current token and returns a fresh node for it so the
// caller's token slice is never modified.
func (p *parser) advance() *Token {
	t := *p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return &t
}

func (p *parser) expect(id string) (*Token, error) {
	t := p.peek()
	if t.ID != id {
		return nil, unexpected(t)
	}
	return p.advance(), nil
}

func unexpected(t *Token) error {
	if t.ID == IDEnd {
		return pyerrors.Syntax(t.Pos, "unexpected end of expression")
	}
	if t.Value != nil {
		return pyerrors.Syntax(t.Pos, "unexpected token %v", t.Value)
	}
	return pyerrors.Syntax(t.Pos, "unexpected token '%s'", t.ID)
}

func (p *parser) expression(rbp int) (*Token, error) {
	left, err := p.prefix(p.advance())
	if err != nil {
		return nil, err
	}
	for rbp < infixPower(p.peek().ID) {
		left, err = p.infix(p.advance(), left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) prefix(t *Token) (*Token, error) {
	switch t.ID {
	case IDNumber, IDString, IDName, IDConstant:
		return t, nil
	case "-":
		operand, err := p.expression(bpUnary)
		if err != nil {
			return nil, err
		}
		return &Token{ID: IDNeg, Pos: t.Pos, First: operand}, nil
	case "not":
		operand, err := p.expression(bpNot)
		if err != nil {
			return nil, err
		}
		return &Token{ID: "not", Pos: t.Pos, First: operand}, nil
	case "(":
		return p.parenthesized(t)
	case "[":
		items, err := p.sequence("]")
		if err != nil {
			return nil, err
		}
		return &Token{ID: IDList, Pos: t.Pos, Items: items}, nil
	case "{":
		return p.dict(t)
	}
	return nil, unexpected(t)
}

func (p *parser) infix(t *Token, left *Token) (*Token, error) {
	switch t.ID {
	case "and", "or", "+", "-", "*", "/":
		right, err := p.expression(infixPower(t.ID))
		if err != nil {
			return nil, err
		}
		t.First, t.Second = left, right
		return t, nil
	case IDCall:
		return p.call(t, left)
	case IDSubscript:
		index, err := p.expression(bpLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("]"); err != nil {
			return nil, err
		}
		t.First, t.Second = left, index
		return t, nil
	case IDAttribute:
		name, err := p.expect(IDName)
		if err != nil {
			return nil, err
		}
		t.First, t.Second = left, name
		return t, nil
	}
	if IsComparison(t.ID) {
		return p.chain(t, left)
	}
	return nil, unexpected(t)
}

// chain collects a run of comparisons into one (comparator) node.
func (p *parser) chain(op *Token, left *Token) (*Token, error) {
	node := &Token{ID: IDComparator, Pos: left.Pos, Items: []*Token{left}}
	for {
		right, err := p.expression(bpComparison)
		if err != nil {
			return nil, err
		}
		node.Ops = append(node.Ops, op.ID)
		node.Items = append(node.Items, right)
		if !IsComparison(p.peek().ID) {
			return node, nil
		}
		op = p.advance()
	}
}

// parenthesized handles grouping and tuple literals.
func (p *parser) parenthesized(open *Token) (*Token, error) {
	if p.peek().ID == ")" {
		p.advance()
		return &Token{ID: IDTuple, Pos: open.Pos}, nil
	}
	first, err := p.expression(bpLowest)
	if err != nil {
		return nil, err
	}
	if p.peek().ID == ")" {
		p.advance()
		return first, nil
	}
	if _, err := p.expect(","); err != nil {
		return nil, err
	}
	rest, err := p.sequence(")")
	if err != nil {
		return nil, err
	}
	return &Token{ID: IDTuple, Pos: open.Pos, Items: append([]*Token{first}, rest...)}, nil
}

// sequence parses comma separated expressions up to and including close.
// A trailing comma is allowed.
func (p *parser) sequence(close string) ([]*Token, error) {
	var items []*Token
	for p.peek().ID != close {
		item, err := p.expression(bpLowest)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peek().ID != "," {
			break
		}
		p.advance()
	}
	if _, err := p.expect(close); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *parser) dict(open *Token) (*Token, error) {
	node := &Token{ID: IDDict, Pos: open.Pos}
	for p.peek().ID != "}" {
		key, err := p.expression(bpLowest)
		if err != nil {
			return nil, err
		}
		colon, err := p.expect(IDPair)
		if err != nil {
			return nil, err
		}
		value, err := p.expression(bpLowest)
		if err != nil {
			return nil, err
		}
		colon.First, colon.Second = key, value
		node.Items = append(node.Items, colon)
		if p.peek().ID != "," {
			break
		}
		p.advance()
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return node, nil
}

// call parses an argument list. Keyword arguments take the form
// name = expression and may not be followed by positional arguments.
func (p *parser) call(open *Token, callee *Token) (*Token, error) {
	open.First = callee
	seenKeyword := false
	for p.peek().ID != ")" {
		if p.peek().ID == IDName && p.peekAt(1).ID == IDKwarg {
			name := p.advance()
			eq := p.advance()
			value, err := p.expression(bpLowest)
			if err != nil {
				return nil, err
			}
			eq.First, eq.Second = name, value
			open.Items = append(open.Items, eq)
			seenKeyword = true
		} else {
			start := p.peek()
			if seenKeyword {
				return nil, pyerrors.Syntax(start.Pos, "positional argument follows keyword argument")
			}
			arg, err := p.expression(bpLowest)
			if err != nil {
				return nil, err
			}
			open.Items = append(open.Items, arg)
		}
		if p.peek().ID != "," {
			break
		}
		p.advance()
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return open, nil
}
