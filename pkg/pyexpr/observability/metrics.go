package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records evaluation metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEval records one evaluation with its duration and error status.
	RecordEval(ctx context.Context, duration time.Duration, err error)

	// RecordCacheLookup records a parse cache hit or miss.
	RecordCacheLookup(ctx context.Context, hit bool)
}

type otelMetrics struct {
	evals       metric.Int64Counter
	evalErrors  metric.Int64Counter
	evalLatency metric.Float64Histogram
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pyexpr")

	evals, err := meter.Int64Counter("pyexpr.eval.count",
		metric.WithDescription("Number of expression evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalErrors, err := meter.Int64Counter("pyexpr.eval.errors",
		metric.WithDescription("Number of failed expression evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("pyexpr.eval.latency_ms",
		metric.WithDescription("Expression evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter("pyexpr.cache.hits",
		metric.WithDescription("Parse cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter("pyexpr.cache.misses",
		metric.WithDescription("Parse cache misses"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		evals:       evals,
		evalErrors:  evalErrors,
		evalLatency: evalLatency,
		cacheHits:   cacheHits,
		cacheMisses: cacheMisses,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If the instruments cannot be created it returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEval records an evaluation. Failures carry an error.kind attribute.
func (m *otelMetrics) RecordEval(ctx context.Context, duration time.Duration, err error) {
	m.evals.Add(ctx, 1)
	m.evalLatency.Record(ctx, float64(duration.Microseconds())/1000)

	if err != nil {
		m.evalErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.kind", kindName(err)),
		))
	}
}

// RecordCacheLookup records a parse cache lookup.
func (m *otelMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if hit {
		m.cacheHits.Add(ctx, 1)
		return
	}
	m.cacheMisses.Add(ctx, 1)
}
