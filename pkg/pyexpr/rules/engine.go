package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/randalmurphal/pyexpr/pkg/pyexpr"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/observability"
)

// Engine evaluates stored rules. Compiled programs are kept per rule name
// and invalidated when the rule is replaced or removed through the engine.
type Engine struct {
	store  Store
	ev     *pyexpr.Evaluator
	logger *slog.Logger
	spans  observability.SpanManager

	mu       sync.RWMutex
	programs map[string]*pyexpr.Program
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger for rule outcomes.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEngineTracing sets the span manager for per-rule spans.
func WithEngineTracing(s observability.SpanManager) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.spans = s
		}
	}
}

// NewEngine creates an engine over store. A nil evaluator uses
// pyexpr.New().
func NewEngine(store Store, ev *pyexpr.Evaluator, opts ...EngineOption) *Engine {
	if ev == nil {
		ev = pyexpr.New()
	}
	e := &Engine{
		store:    store,
		ev:       ev,
		spans:    observability.NoopSpanManager{},
		programs: make(map[string]*pyexpr.Program),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add validates and compiles r, assigns an ID when it has none, and saves
// it. The stored rule is returned.
func (e *Engine) Add(ctx context.Context, r Rule) (Rule, error) {
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	p, err := e.ev.Compile(ctx, r.Expression)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := e.store.Save(r); err != nil {
		return Rule{}, err
	}

	e.mu.Lock()
	e.programs[r.Name] = p
	e.mu.Unlock()
	return r, nil
}

// AddSet adds every rule of a set. It stops at the first failure; rules
// added before it stay in the store.
func (e *Engine) AddSet(ctx context.Context, set RuleSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	for _, r := range set.Rules {
		if _, err := e.Add(ctx, r); err != nil {
			return fmt.Errorf("rule set %q: %w", set.Name, err)
		}
	}
	return nil
}

// Remove deletes a rule.
func (e *Engine) Remove(name string) error {
	e.mu.Lock()
	delete(e.programs, name)
	e.mu.Unlock()
	return e.store.Delete(name)
}

// Evaluate evaluates the named rule and projects the result to a host
// value.
func (e *Engine) Evaluate(ctx context.Context, name string, vars map[string]any) (any, error) {
	p, err := e.program(ctx, name)
	if err != nil {
		return nil, err
	}

	ctx, span := e.spans.StartRuleSpan(ctx, name)
	v, err := p.Eval(ctx, vars)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	return v, nil
}

// Test evaluates the named rule and reports whether its result is truthy.
func (e *Engine) Test(ctx context.Context, name string, vars map[string]any) (bool, error) {
	p, err := e.program(ctx, name)
	if err != nil {
		return false, err
	}

	ctx, span := e.spans.StartRuleSpan(ctx, name)
	ok, err := p.Bool(ctx, vars)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", name, err)
	}
	observability.LogRuleMatch(e.logger, name, ok)
	return ok, nil
}

// Match evaluates every stored rule and returns the names of those whose
// result is truthy, ordered by name. The first failing rule aborts the
// match.
func (e *Engine) Match(ctx context.Context, vars map[string]any) ([]string, error) {
	return e.match(ctx, vars, func(Rule) bool { return true })
}

// MatchTagged is Match restricted to rules carrying tag.
func (e *Engine) MatchTagged(ctx context.Context, tag string, vars map[string]any) ([]string, error) {
	return e.match(ctx, vars, func(r Rule) bool { return r.HasTag(tag) })
}

func (e *Engine) match(ctx context.Context, vars map[string]any, include func(Rule) bool) ([]string, error) {
	done := observability.TimedOperation()
	all, err := e.store.List()
	if err != nil {
		return nil, err
	}

	matched := []string{}
	evaluated := 0
	for _, r := range all {
		if !include(r) {
			continue
		}
		evaluated++
		ok, err := e.Test(ctx, r.Name, vars)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, r.Name)
		}
	}

	if e.logger != nil {
		e.logger.Debug("rules matched",
			slog.Int("evaluated", evaluated),
			slog.Int("matched", len(matched)),
			slog.Float64("duration_ms", done()),
		)
	}
	return matched, nil
}

// program returns the compiled program for name, compiling the stored
// expression on first use.
func (e *Engine) program(ctx context.Context, name string) (*pyexpr.Program, error) {
	e.mu.RLock()
	p, ok := e.programs[name]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	r, err := e.store.Load(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		return nil, err
	}
	p, err = e.ev.Compile(ctx, r.Expression)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}

	e.mu.Lock()
	e.programs[name] = p
	e.mu.Unlock()
	return p, nil
}
