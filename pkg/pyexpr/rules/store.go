package rules

import "errors"

// Store persists rules by name. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save stores a rule, replacing any rule with the same name.
	Save(r Rule) error

	// Load returns the rule with the given name, or ErrNotFound.
	Load(name string) (Rule, error)

	// List returns every rule ordered by name.
	List() ([]Rule, error)

	// Delete removes a rule. Deleting a missing rule is not an error.
	Delete(name string) error

	// Close releases any resources.
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a rule doesn't exist.
	ErrNotFound = errors.New("rule not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("rule store closed")
)
