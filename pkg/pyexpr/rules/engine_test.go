package rules_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pyexpr/pkg/pyexpr"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/rules"
)

func newEngine(t *testing.T) (*rules.Engine, rules.Store) {
	t.Helper()
	store := rules.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return rules.NewEngine(store, pyexpr.New()), store
}

func user(age float64, email string) map[string]any {
	return map[string]any{"user": map[string]any{"age": age, "email": email}}
}

func TestEngine_AddAssignsID(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	added, err := engine.Add(ctx, rules.Rule{Name: "adult", Expression: "user.age >= 18"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	stored, err := store.Load("adult")
	require.NoError(t, err)
	assert.Equal(t, added.ID, stored.ID)

	kept, err := engine.Add(ctx, rules.Rule{ID: "fixed", Name: "other", Expression: "True"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", kept.ID)
}

func TestEngine_AddRejectsInvalidExpression(t *testing.T) {
	engine, store := newEngine(t)

	_, err := engine.Add(context.Background(), rules.Rule{Name: "broken", Expression: "1 +"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pyexpr.ErrSyntax))

	_, err = store.Load("broken")
	assert.ErrorIs(t, err, rules.ErrNotFound)
}

func TestEngine_Evaluate(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	_, err := engine.Add(ctx, rules.Rule{Name: "discount", Expression: "price * 0.5 if False else price - 1"})
	require.Error(t, err, "conditional expressions are not part of the language")

	_, err = engine.Add(ctx, rules.Rule{Name: "discount", Expression: "price - 1"})
	require.NoError(t, err)

	got, err := engine.Evaluate(ctx, "discount", map[string]any{"price": 10})
	require.NoError(t, err)
	assert.Equal(t, 9.0, got)

	_, err = engine.Evaluate(ctx, "missing", nil)
	assert.ErrorIs(t, err, rules.ErrNotFound)

	_, err = engine.Evaluate(ctx, "discount", nil)
	assert.ErrorIs(t, err, pyexpr.ErrName)
	assert.ErrorContains(t, err, `rule "discount"`)
}

func TestEngine_Match(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	set, err := rules.ParseYAML([]byte(accessYAML))
	require.NoError(t, err)
	require.NoError(t, engine.AddSet(ctx, set))

	tests := []struct {
		name string
		vars map[string]any
		want []string
	}{
		{"both", user(30, "ann@example.com"), []string{"adult", "staff"}},
		{"adult only", user(30, "bob@other.org"), []string{"adult"}},
		{"staff only", user(16, "kid@example.com"), []string{"staff"}},
		{"none", user(16, "kid@other.org"), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Match(ctx, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	tagged, err := engine.MatchTagged(ctx, "internal", user(30, "ann@example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"staff"}, tagged)
}

func TestEngine_MatchStopsOnError(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	_, err := engine.Add(ctx, rules.Rule{Name: "a", Expression: "missing.attr"})
	require.NoError(t, err)

	_, err = engine.Match(ctx, nil)
	assert.ErrorIs(t, err, pyexpr.ErrName)
}

func TestEngine_LoadsRulesSavedDirectly(t *testing.T) {
	engine, store := newEngine(t)
	require.NoError(t, store.Save(rules.Rule{ID: "1", Name: "direct", Expression: "x in [1, 2]"}))

	ok, err := engine.Test(context.Background(), "direct", map[string]any{"x": 2})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_Remove(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	_, err := engine.Add(ctx, rules.Rule{Name: "r", Expression: "True"})
	require.NoError(t, err)
	require.NoError(t, engine.Remove("r"))

	_, err = store.Load("r")
	assert.ErrorIs(t, err, rules.ErrNotFound)
	_, err = engine.Evaluate(ctx, "r", nil)
	assert.ErrorIs(t, err, rules.ErrNotFound)
}

func TestEngine_AddSetValidates(t *testing.T) {
	engine, _ := newEngine(t)
	err := engine.AddSet(context.Background(), rules.RuleSet{
		Name:  "dup",
		Rules: []rules.Rule{{Name: "a", Expression: "1"}, {Name: "a", Expression: "2"}},
	})
	assert.ErrorContains(t, err, "duplicate rule")
}
