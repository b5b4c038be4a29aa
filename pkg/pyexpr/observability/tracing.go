package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("pyexpr")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEvalSpan starts a span for one evaluation.
	StartEvalSpan(ctx context.Context, evalID, source string) (context.Context, trace.Span)

	// StartCompileSpan starts a span for tokenizing and parsing source.
	StartCompileSpan(ctx context.Context, source string) (context.Context, trace.Span)

	// StartRuleSpan starts a span for evaluating a named rule.
	StartRuleSpan(ctx context.Context, rule string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartEvalSpan(ctx context.Context, evalID, source string) (context.Context, trace.Span) {
	return StartEvalSpan(ctx, evalID, source)
}

func (m *otelSpanManager) StartCompileSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return StartCompileSpan(ctx, source)
}

func (m *otelSpanManager) StartRuleSpan(ctx context.Context, rule string) (context.Context, trace.Span) {
	return StartRuleSpan(ctx, rule)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartEvalSpan starts an evaluation span on the global tracer.
func StartEvalSpan(ctx context.Context, evalID, source string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pyexpr.eval",
		trace.WithAttributes(
			attribute.String("eval.id", evalID),
			attribute.String("expr.source", truncate(source)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartCompileSpan starts a compile span on the global tracer.
func StartCompileSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pyexpr.compile",
		trace.WithAttributes(
			attribute.String("expr.source", truncate(source)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartRuleSpan starts a rule span on the global tracer.
func StartRuleSpan(ctx context.Context, rule string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pyexpr.rule."+rule,
		trace.WithAttributes(
			attribute.String("rule.name", rule),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, recording err when it is non-nil.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the span in ctx, if it is recording.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
