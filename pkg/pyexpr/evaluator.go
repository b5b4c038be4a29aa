package pyexpr

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/pyexpr/pkg/pyexpr/bridge"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/cache"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/config"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/interp"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/object"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/observability"
	"github.com/randalmurphal/pyexpr/pkg/pyexpr/syntax"
)

// Evaluator compiles and evaluates expressions with caching and
// observability. It is safe for concurrent use.
type Evaluator struct {
	logger        *slog.Logger
	logLevel      *slog.Level
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
	cacheSize     int
	cache         *cache.Cache[string, *syntax.Token]
	globals       map[string]object.Value
	slowThreshold time.Duration
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger. A nil logger disables logging, which is the
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithLogLevel drops evaluator log records below level.
func WithLogLevel(level slog.Level) Option {
	return func(e *Evaluator) {
		e.logLevel = &level
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Evaluator) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithTracing sets the span manager.
func WithTracing(s observability.SpanManager) Option {
	return func(e *Evaluator) {
		if s != nil {
			e.spans = s
		}
	}
}

// WithCacheSize bounds the parse cache. Zero disables it.
func WithCacheSize(n int) Option {
	return func(e *Evaluator) {
		e.cacheSize = n
	}
}

// WithGlobals makes names visible to every expression. Context variables
// shadow globals, and globals shadow builtins.
func WithGlobals(globals map[string]any) Option {
	return func(e *Evaluator) {
		if e.globals == nil {
			e.globals = make(map[string]object.Value, len(globals))
		}
		for k, v := range bridge.FromNativeMap(globals) {
			e.globals[k] = v
		}
	}
}

// WithSlowThreshold logs evaluations slower than d at info level.
func WithSlowThreshold(d time.Duration) Option {
	return func(e *Evaluator) {
		e.slowThreshold = d
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		cacheSize: config.DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger != nil && e.logLevel != nil {
		e.logger = slog.New(&levelHandler{level: *e.logLevel, handler: e.logger.Handler()})
	}
	e.cache = cache.New[string, *syntax.Token](e.cacheSize)
	return e
}

// OptionsFromConfig converts the "evaluator" section of cfg into options.
// Metrics and tracing use the global OpenTelemetry providers. The log
// level applies to the logger passed with WithLogger.
func OptionsFromConfig(cfg config.Config) ([]Option, error) {
	s, err := config.LoadSettings(cfg)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithCacheSize(s.CacheSize),
		WithLogLevel(s.LogLevel),
		WithSlowThreshold(s.SlowThreshold),
	}
	if s.Metrics {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}
	if s.Tracing {
		opts = append(opts, WithTracing(observability.NewSpanManager()))
	}
	if len(s.Globals) > 0 {
		opts = append(opts, WithGlobals(s.Globals))
	}
	return opts, nil
}

// Program is a compiled expression bound to the evaluator that compiled it.
type Program struct {
	source string
	tree   *syntax.Token
	ev     *Evaluator
}

// Source returns the expression source.
func (p *Program) Source() string { return p.source }

// Tree returns the parsed expression tree. It must not be modified.
func (p *Program) Tree() *syntax.Token { return p.tree }

// Run evaluates the program against vars.
func (p *Program) Run(ctx context.Context, vars map[string]any) (Value, error) {
	return p.ev.run(ctx, p.source, p.tree, vars)
}

// Eval evaluates the program and projects the result to a host value.
func (p *Program) Eval(ctx context.Context, vars map[string]any) (any, error) {
	v, err := p.Run(ctx, vars)
	if err != nil {
		return nil, err
	}
	return bridge.ToNative(v)
}

// Bool evaluates the program and reports the truthiness of the result.
func (p *Program) Bool(ctx context.Context, vars map[string]any) (bool, error) {
	v, err := p.Run(ctx, vars)
	if err != nil {
		return false, err
	}
	return object.Truth(v), nil
}

// Compile tokenizes and parses src, reusing a cached tree when one exists.
func (e *Evaluator) Compile(ctx context.Context, src string) (*Program, error) {
	tree, hit, err := e.cache.GetOrCreate(src, func() (*syntax.Token, error) {
		return e.parse(ctx, src)
	})
	if e.cacheSize > 0 {
		e.metrics.RecordCacheLookup(ctx, hit)
	}
	if err != nil {
		return nil, err
	}
	return &Program{source: src, tree: tree, ev: e}, nil
}

func (e *Evaluator) parse(ctx context.Context, src string) (*syntax.Token, error) {
	_, span := e.spans.StartCompileSpan(ctx, src)
	tree, err := syntax.ParseString(src)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogCompileError(e.logger, src, err)
		return nil, err
	}
	return tree, nil
}

// Evaluate evaluates an already parsed tree.
func (e *Evaluator) Evaluate(ctx context.Context, tree *syntax.Token, vars map[string]any) (Value, error) {
	var src string
	if tree != nil {
		src = tree.String()
	}
	return e.run(ctx, src, tree, vars)
}

// Eval compiles and evaluates src, projecting the result to a host value.
func (e *Evaluator) Eval(ctx context.Context, src string, vars map[string]any) (any, error) {
	p, err := e.Compile(ctx, src)
	if err != nil {
		return nil, err
	}
	return p.Eval(ctx, vars)
}

// EvalBool compiles and evaluates src and reports the truthiness of the
// result.
func (e *Evaluator) EvalBool(ctx context.Context, src string, vars map[string]any) (bool, error) {
	p, err := e.Compile(ctx, src)
	if err != nil {
		return false, err
	}
	return p.Bool(ctx, vars)
}

// CacheLen returns the number of cached parse trees.
func (e *Evaluator) CacheLen() int {
	return e.cache.Len()
}

func (e *Evaluator) run(ctx context.Context, src string, tree *syntax.Token, vars map[string]any) (Value, error) {
	evalID := uuid.NewString()
	logger := observability.EnrichLogger(e.logger, evalID)

	ctx, span := e.spans.StartEvalSpan(ctx, evalID, src)
	observability.LogEvalStart(logger, src)
	start := time.Now()

	v, err := interp.NewScope(vars, e.globals).Eval(tree)

	elapsed := time.Since(start)
	ms := float64(elapsed.Microseconds()) / 1000
	e.metrics.RecordEval(ctx, elapsed, err)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogEvalError(logger, src, err, ms)
		return nil, err
	}
	observability.LogEvalComplete(logger, ms, v.Type().Name())
	if e.slowThreshold > 0 && elapsed > e.slowThreshold && logger != nil {
		logger.Info("slow evaluation",
			slog.String("source", src),
			slog.Duration("elapsed", elapsed),
			slog.Duration("threshold", e.slowThreshold),
		)
	}
	return v, nil
}

// levelHandler drops records below a minimum level before they reach the
// wrapped handler.
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.handler.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}
