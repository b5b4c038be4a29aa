// Package syntax scans expression source into tokens and parses tokens into
// an expression tree.
//
// The tree reuses the Token type: leaves carry a Value, interior nodes carry
// their operands in First, Second and Items. The node ID determines which of
// those are populated:
//
//	(number) (string) (name) (constant)   Value
//	and or + - * /                        First, Second
//	not (neg)                             First
//	(comparator)                          Items (operands), Ops (operators)
//	(                                     First (callee), Items (arguments)
//	=                                     First (name), Second (value)
//	[                                     First (target), Second (index)
//	.                                     First (target), Second (name)
//	(tuple) (list)                        Items
//	(dict)                                Items of ':' nodes (First key, Second value)
package syntax

import (
	"fmt"
	"strings"
)

// Token categories and node IDs.
const (
	IDNumber     = "(number)"
	IDString     = "(string)"
	IDName       = "(name)"
	IDConstant   = "(constant)"
	IDEnd        = "(end)"
	IDNeg        = "(neg)"
	IDComparator = "(comparator)"
	IDTuple      = "(tuple)"
	IDList       = "(list)"
	IDDict       = "(dict)"
	IDCall       = "("
	IDSubscript  = "["
	IDAttribute  = "."
	IDKwarg      = "="
	IDPair       = ":"
)

// Token is a lexical unit and, after parsing, an expression tree node.
type Token struct {
	// ID is the operator or category tag.
	ID string

	// Value is the literal payload: float64 for numbers, string for
	// strings, names and constants. Nil for operators.
	Value any

	// Pos is the byte offset of the token in the source.
	Pos int

	First  *Token
	Second *Token

	// Items holds ordered operands: call arguments, collection elements
	// and comparison chain operands.
	Items []*Token

	// Ops holds the operators of a comparison chain, len(Items)-1 of them.
	Ops []string
}

// String renders the node as an s-expression, mostly for tests and
// debugging output.
func (t *Token) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.ID {
	case IDNumber:
		return fmt.Sprintf("%v", t.Value)
	case IDString:
		return fmt.Sprintf("%q", t.Value)
	case IDName, IDConstant:
		return fmt.Sprintf("%v", t.Value)
	}

	var b strings.Builder
	b.WriteString("(")
	b.WriteString(t.ID)
	if t.First != nil {
		b.WriteString(" ")
		b.WriteString(t.First.String())
	}
	if t.Second != nil {
		b.WriteString(" ")
		b.WriteString(t.Second.String())
	}
	for i, item := range t.Items {
		b.WriteString(" ")
		if t.ID == IDComparator && i > 0 {
			b.WriteString(t.Ops[i-1])
			b.WriteString(" ")
		}
		b.WriteString(item.String())
	}
	b.WriteString(")")
	return b.String()
}

// comparisonOps are the operators that form comparison chains.
var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<>": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"in": true, "not in": true, "is": true, "is not": true,
}

// IsComparison reports whether id is a comparison operator.
func IsComparison(id string) bool {
	return comparisonOps[id]
}
