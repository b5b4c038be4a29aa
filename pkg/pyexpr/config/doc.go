// Package config loads evaluator settings from YAML or JSON documents.
//
// Config wraps a decoded document and exposes typed accessors. Keys are
// dotted paths into nested mappings, so "evaluator.cache_size" reads
// cache_size from the evaluator section. Accessors return the supplied
// default when a key is missing or has the wrong type.
//
// A typical file:
//
//	evaluator:
//	  cache_size: 512
//	  metrics: true
//	  tracing: false
//	  log_level: info
//	  slow_threshold: 50ms
//	  globals:
//	    region: eu-west-1
//
// LoadSettings reads that section into a Settings value.
package config
