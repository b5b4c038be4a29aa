// Package rules manages named expressions ("rules") and evaluates them
// against a context.
//
// Rules are grouped into rule sets that load from YAML or JSON:
//
//	name: access
//	rules:
//	  - name: adult
//	    expression: user.age >= 18
//	  - name: staff
//	    expression: user.email.endswith("@example.com")
//	    tags: [internal]
//
// A Store persists rules by name and an Engine compiles them once and
// evaluates them on demand.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is a named expression.
type Rule struct {
	ID          string   `yaml:"id,omitempty" json:"id,omitempty"`
	Name        string   `yaml:"name" json:"name"`
	Expression  string   `yaml:"expression" json:"expression"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Validate checks the fields every rule needs.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if strings.TrimSpace(r.Expression) == "" {
		return fmt.Errorf("rule %q: expression is required", r.Name)
	}
	return nil
}

// HasTag reports whether the rule carries tag.
func (r Rule) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RuleSet is a named group of rules.
type RuleSet struct {
	Name  string `yaml:"name" json:"name"`
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Validate checks every rule and rejects duplicate names.
func (s RuleSet) Validate() error {
	seen := make(map[string]bool, len(s.Rules))
	for _, r := range s.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.Name] {
			return fmt.Errorf("rule set %q: duplicate rule %q", s.Name, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// LoadFile reads a rule set from a .yaml, .yml or .json file.
func LoadFile(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rule file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return RuleSet{}, fmt.Errorf("unsupported rule file extension: %s", ext)
	}
}

// ParseYAML decodes and validates a YAML rule set.
func ParseYAML(data []byte) (RuleSet, error) {
	var s RuleSet
	if err := yaml.Unmarshal(data, &s); err != nil {
		return RuleSet{}, fmt.Errorf("parse yaml: %w", err)
	}
	return s, s.Validate()
}

// ParseJSON decodes and validates a JSON rule set.
func ParseJSON(data []byte) (RuleSet, error) {
	var s RuleSet
	if err := json.Unmarshal(data, &s); err != nil {
		return RuleSet{}, fmt.Errorf("parse json: %w", err)
	}
	return s, s.Validate()
}
