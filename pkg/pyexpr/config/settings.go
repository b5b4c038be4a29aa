package config

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultCacheSize is the parse cache capacity used when none is configured.
const DefaultCacheSize = 256

// Settings are the evaluator settings read from the "evaluator" section.
type Settings struct {
	// CacheSize bounds the parse cache. Zero disables caching.
	CacheSize int

	// Metrics enables OpenTelemetry metrics.
	Metrics bool

	// Tracing enables OpenTelemetry spans.
	Tracing bool

	// LogLevel is the minimum level for evaluator logs.
	LogLevel slog.Level

	// SlowThreshold, when positive, logs evaluations that take longer.
	SlowThreshold time.Duration

	// Globals are extra names visible to every expression. Context
	// variables shadow them.
	Globals map[string]any
}

// DefaultSettings returns the settings used for an empty document.
func DefaultSettings() Settings {
	return Settings{
		CacheSize: DefaultCacheSize,
		LogLevel:  slog.LevelInfo,
	}
}

// LoadSettings reads Settings from cfg's "evaluator" section.
func LoadSettings(cfg Config) (Settings, error) {
	s := DefaultSettings()
	sec := cfg.Sub("evaluator")

	s.CacheSize = sec.Int("cache_size", s.CacheSize)
	if s.CacheSize < 0 {
		return Settings{}, fmt.Errorf("evaluator.cache_size must not be negative, got %d", s.CacheSize)
	}
	s.Metrics = sec.Bool("metrics", s.Metrics)
	s.Tracing = sec.Bool("tracing", s.Tracing)
	s.LogLevel = sec.Level("log_level", s.LogLevel)
	s.SlowThreshold = sec.Duration("slow_threshold", s.SlowThreshold)
	if sec.Has("globals") && sec.Map("globals") == nil {
		return Settings{}, fmt.Errorf("evaluator.globals must be a mapping")
	}
	s.Globals = sec.Map("globals")
	return s, nil
}
