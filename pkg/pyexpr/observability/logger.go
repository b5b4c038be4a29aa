// Package observability provides logging, metrics and tracing for
// expression evaluation.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Everything is opt-in. The no-op implementations are used when a feature
// is disabled, and every logging helper accepts a nil logger.
package observability

import (
	"log/slog"
	"time"

	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
)

// maxLoggedSource bounds how much expression source is attached to a log
// record.
const maxLoggedSource = 256

// EnrichLogger returns a logger that tags every record with the
// evaluation ID.
//
// Example:
//
//	logger = EnrichLogger(logger, evalID)
//	logger.Debug("resolving names") // includes eval_id
func EnrichLogger(logger *slog.Logger, evalID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("eval_id", evalID))
}

// LogEvalStart logs the start of an evaluation.
func LogEvalStart(logger *slog.Logger, source string) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation starting",
		slog.String("source", truncate(source)),
	)
}

// LogEvalComplete logs a successful evaluation.
func LogEvalComplete(logger *slog.Logger, durationMs float64, resultType string) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation completed",
		slog.Float64("duration_ms", durationMs),
		slog.String("result_type", resultType),
	)
}

// LogEvalError logs a failed evaluation. Expression failures are expected
// outcomes for user supplied input, so they log at warn level.
func LogEvalError(logger *slog.Logger, source string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("evaluation failed",
		slog.String("source", truncate(source)),
		slog.String("error", err.Error()),
		slog.String("error_kind", kindName(err)),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCompileError logs an expression that failed to tokenize or parse.
func LogCompileError(logger *slog.Logger, source string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("compile failed",
		slog.String("source", truncate(source)),
		slog.String("error", err.Error()),
	)
}

// LogRuleMatch logs the outcome of evaluating a named rule.
func LogRuleMatch(logger *slog.Logger, rule string, matched bool) {
	if logger == nil {
		return
	}
	logger.Debug("rule evaluated",
		slog.String("rule", rule),
		slog.Bool("matched", matched),
	)
}

// TimedOperation measures the duration of an operation.
// The returned function reports the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... evaluate ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}

func kindName(err error) string {
	if k := pyerrors.KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}

func truncate(s string) string {
	if len(s) <= maxLoggedSource {
		return s
	}
	return s[:maxLoggedSource] + "..."
}
