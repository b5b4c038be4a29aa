package template

import "github.com/randalmurphal/pyexpr/pkg/pyexpr"

// MissingAction specifies how placeholders referencing undefined names are
// handled.
type MissingAction int

const (
	// MissingKeep leaves the placeholder as written. This is the default.
	MissingKeep MissingAction = iota

	// MissingEmpty replaces the placeholder with an empty string.
	MissingEmpty

	// MissingError fails the expansion with an UndefinedExpressionError.
	MissingError
)

// Option configures an Expander.
type Option func(*Expander)

// WithMissingAction sets how placeholders with undefined names are handled.
//
// Example:
//
//	exp := NewExpander(WithMissingAction(MissingError))
//	_, err := exp.Expand(ctx, "${ missing }", nil)
//	// err: "undefined expression: missing"
func WithMissingAction(action MissingAction) Option {
	return func(e *Expander) {
		e.missingAction = action
	}
}

// WithEvaluator sets the evaluator used for placeholders. The default is
// pyexpr.New().
func WithEvaluator(ev *pyexpr.Evaluator) Option {
	return func(e *Expander) {
		if ev != nil {
			e.ev = ev
		}
	}
}
