package pyexpr

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/randalmurphal/pyexpr/pkg/pyexpr/config"
)

// recordingMetrics captures metric calls.
type recordingMetrics struct {
	mu     sync.Mutex
	evals  int
	errors int
	hits   int
	misses int
}

func (m *recordingMetrics) RecordEval(_ context.Context, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evals++
	if err != nil {
		m.errors++
	}
}

func (m *recordingMetrics) RecordCacheLookup(_ context.Context, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

// recordingSpans captures the names of started spans.
type recordingSpans struct {
	mu    sync.Mutex
	names []string
	errs  int
}

func (s *recordingSpans) start(ctx context.Context, name string) (context.Context, trace.Span) {
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	return ctx, noop.Span{}
}

func (s *recordingSpans) StartEvalSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return s.start(ctx, "eval")
}

func (s *recordingSpans) StartCompileSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return s.start(ctx, "compile")
}

func (s *recordingSpans) StartRuleSpan(ctx context.Context, rule string) (context.Context, trace.Span) {
	return s.start(ctx, "rule."+rule)
}

func (s *recordingSpans) EndSpanWithError(_ trace.Span, err error) {
	if err != nil {
		s.mu.Lock()
		s.errs++
		s.mu.Unlock()
	}
}

func (s *recordingSpans) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}

// logRecords decodes JSON log lines.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestEvaluatorEval(t *testing.T) {
	ev := New()
	ctx := context.Background()

	got, err := ev.Eval(ctx, "a + b", map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	ok, err := ev.EvalBool(ctx, "x in ('a', 'b')", map[string]any{"x": "b"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.EvalBool(ctx, "[]", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ev.Eval(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrName)

	_, err = ev.Eval(ctx, "1 +", nil)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestEvaluatorCompile(t *testing.T) {
	ev := New()
	ctx := context.Background()

	p, err := ev.Compile(ctx, "price * qty")
	require.NoError(t, err)
	assert.Equal(t, "price * qty", p.Source())
	assert.Equal(t, "(* price qty)", p.Tree().String())

	for qty, want := range map[int]float64{1: 2.5, 4: 10} {
		got, err := p.Eval(ctx, map[string]any{"price": 2.5, "qty": qty})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	v, err := p.Run(ctx, map[string]any{"price": 1, "qty": 1})
	require.NoError(t, err)
	assert.Equal(t, FloatType, v.Type())

	_, err = p.Eval(ctx, nil)
	assert.ErrorIs(t, err, ErrName)
}

func TestEvaluatorCache(t *testing.T) {
	m := &recordingMetrics{}
	ev := New(WithMetrics(m), WithCacheSize(2))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ev.Compile(ctx, "1 + 1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, m.misses)
	assert.Equal(t, 2, m.hits)
	assert.Equal(t, 1, ev.CacheLen())

	_, err := ev.Compile(ctx, "2")
	require.NoError(t, err)
	_, err = ev.Compile(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, 2, ev.CacheLen(), "bounded by capacity")

	_, err = ev.Compile(ctx, "(")
	require.Error(t, err)
	assert.Equal(t, 2, ev.CacheLen(), "failed parses are not cached")
}

func TestEvaluatorCacheDisabled(t *testing.T) {
	m := &recordingMetrics{}
	ev := New(WithMetrics(m), WithCacheSize(0))

	_, err := ev.Eval(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ev.CacheLen())
	assert.Equal(t, 0, m.hits+m.misses, "no cache lookups recorded")
	assert.Equal(t, 1, m.evals)
}

func TestEvaluatorMetrics(t *testing.T) {
	m := &recordingMetrics{}
	ev := New(WithMetrics(m))
	ctx := context.Background()

	_, err := ev.Eval(ctx, "1", nil)
	require.NoError(t, err)
	_, err = ev.Eval(ctx, "1 / 0", nil)
	require.Error(t, err)

	assert.Equal(t, 2, m.evals)
	assert.Equal(t, 1, m.errors)
}

func TestEvaluatorSpans(t *testing.T) {
	spans := &recordingSpans{}
	ev := New(WithTracing(spans))
	ctx := context.Background()

	_, err := ev.Eval(ctx, "1", nil)
	require.NoError(t, err)
	_, err = ev.Eval(ctx, "1", nil)
	require.NoError(t, err)
	_, err = ev.Eval(ctx, "nope", nil)
	require.Error(t, err)

	assert.Equal(t, []string{"compile", "eval", "eval", "compile", "eval"}, spans.names)
	assert.Equal(t, 1, spans.errs)
}

func TestEvaluatorGlobals(t *testing.T) {
	round := Func(func(args []Value, _ *Kwargs) (any, error) {
		n, err := ToNative(args[0])
		if err != nil {
			return nil, err
		}
		return float64(int(n.(float64) + 0.5)), nil
	})
	ev := New(WithGlobals(map[string]any{
		"tax":   0.2,
		"round": round,
	}), WithGlobals(map[string]any{"currency": "EUR"}))
	ctx := context.Background()

	got, err := ev.Eval(ctx, "round(price * (1 + tax))", map[string]any{"price": 10})
	require.NoError(t, err)
	assert.Equal(t, 12.0, got)

	got, err = ev.Eval(ctx, "currency", nil)
	require.NoError(t, err)
	assert.Equal(t, "EUR", got, "options accumulate")

	got, err = ev.Eval(ctx, "tax", map[string]any{"tax": 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got, "vars shadow globals")
}

func TestEvaluatorLogging(t *testing.T) {
	var buf bytes.Buffer
	ev := New(WithLogger(debugLogger(&buf)))
	ctx := context.Background()

	_, err := ev.Eval(ctx, "1 + 1", nil)
	require.NoError(t, err)
	_, err = ev.Eval(ctx, "d['k']", map[string]any{"d": map[string]any{}})
	require.Error(t, err)
	_, err = ev.Compile(ctx, "1 +")
	require.Error(t, err)

	var msgs []string
	evalIDs := map[string]bool{}
	for _, rec := range logRecords(t, &buf) {
		msgs = append(msgs, rec["msg"].(string))
		if id, ok := rec["eval_id"].(string); ok {
			evalIDs[id] = true
		}
		if rec["msg"] == "evaluation failed" {
			assert.Equal(t, "KeyError", rec["error_kind"])
			assert.Equal(t, "WARN", rec["level"])
		}
	}
	assert.Equal(t, []string{
		"evaluation starting", "evaluation completed",
		"evaluation starting", "evaluation failed",
		"compile failed",
	}, msgs)
	assert.Len(t, evalIDs, 2, "one eval_id per evaluation")
}

func TestEvaluatorLogLevel(t *testing.T) {
	var buf bytes.Buffer
	ev := New(WithLogger(debugLogger(&buf)), WithLogLevel(slog.LevelWarn))
	ctx := context.Background()

	_, err := ev.Eval(ctx, "1", nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String(), "debug records are dropped")

	_, err = ev.Eval(ctx, "x", nil)
	require.Error(t, err)
	records := logRecords(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "evaluation failed", records[0]["msg"])
}

func TestEvaluatorSlowThreshold(t *testing.T) {
	var buf bytes.Buffer
	slow := Func(func([]Value, *Kwargs) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	})
	ev := New(
		WithLogger(debugLogger(&buf)),
		WithLogLevel(slog.LevelInfo),
		WithSlowThreshold(time.Millisecond),
	)

	_, err := ev.Eval(context.Background(), "slow()", map[string]any{"slow": slow})
	require.NoError(t, err)
	records := logRecords(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "slow evaluation", records[0]["msg"])
	assert.Equal(t, "slow()", records[0]["source"])
}

func TestEvaluatorEvaluateTree(t *testing.T) {
	ev := New()
	tokens, err := Tokenize("n * 2")
	require.NoError(t, err)
	tree, err := Parse(tokens)
	require.NoError(t, err)

	v, err := ev.Evaluate(context.Background(), tree, map[string]any{"n": 4})
	require.NoError(t, err)
	native, err := ToNative(v)
	require.NoError(t, err)
	assert.Equal(t, 8.0, native)

	_, err = ev.Evaluate(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestEvaluatorConcurrentUse(t *testing.T) {
	ev := New(WithCacheSize(4))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := ev.Eval(ctx, "n == 0 or n > 3", map[string]any{"n": i})
			if err != nil {
				errs <- err
				return
			}
			if _, ok := got.(bool); !ok {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
evaluator:
  cache_size: 1
  log_level: warn
  slow_threshold: 250ms
  globals:
    greeting: hello
`))
	require.NoError(t, err)

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	ev := New(append(opts, WithLogger(debugLogger(&buf)))...)
	ctx := context.Background()

	got, err := ev.Eval(ctx, "greeting.upper()", nil)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", got)
	assert.Empty(t, buf.String(), "log level applied")

	_, err = ev.Compile(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, ev.CacheLen(), "cache size applied")
}

func TestOptionsFromConfigErrors(t *testing.T) {
	cfg := config.New(map[string]any{"evaluator": map[string]any{"cache_size": -1}})
	_, err := OptionsFromConfig(cfg)
	assert.Error(t, err)

	cfg = config.New(map[string]any{"evaluator": map[string]any{"globals": "nope"}})
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}
