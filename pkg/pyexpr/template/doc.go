// Package template interpolates expressions into strings.
//
// Each ${ expr } placeholder is evaluated with a pyexpr Evaluator and
// replaced by the str() rendering of its value:
//
//	exp := template.NewExpander()
//	s, err := exp.Expand(ctx, "Total: ${ price * qty } (${ currency.upper() })", vars)
//
// Placeholders end at the first "}", so expressions inside them cannot
// contain dict literals. A placeholder whose expression references an
// undefined name is handled by the MissingAction; every other evaluation
// failure is returned as an error.
package template
