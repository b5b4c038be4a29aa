package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config wraps a decoded configuration document.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// lookup walks a dotted path through nested mappings.
func (c Config) lookup(key string) (any, bool) {
	var cur any = c.data
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the string at key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.get(key).(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean at key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.get(key).(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer at key, or defaultVal. Floats are accepted only
// when they have no fractional part, since JSON decodes every number as
// float64.
func (c Config) Int(key string, defaultVal int) int {
	switch val := c.get(key).(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the number at key, or defaultVal.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch val := c.get(key).(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Duration returns the duration at key, or defaultVal. Strings are parsed
// with time.ParseDuration; bare numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.get(key).(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Level returns the slog level named at key ("debug", "info", "warn",
// "error"), or defaultVal.
func (c Config) Level(key string, defaultVal slog.Level) slog.Level {
	s, ok := c.get(key).(string)
	if !ok {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return defaultVal
	}
	return level
}

// Map returns the mapping at key, or nil.
func (c Config) Map(key string) map[string]any {
	m, _ := c.get(key).(map[string]any)
	return m
}

// Sub returns the mapping at key as a Config. A missing or non-mapping key
// yields an empty Config.
func (c Config) Sub(key string) Config {
	return New(c.Map(key))
}

// Has reports whether key is present.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Raw returns the underlying map. It must not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

func (c Config) get(key string) any {
	v, _ := c.lookup(key)
	return v
}
