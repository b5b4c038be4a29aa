package rules

import (
	"sort"
	"sync"
)

// MemoryStore keeps rules in memory. Contents are lost when the process
// exits.
type MemoryStore struct {
	mu     sync.RWMutex
	rules  map[string]Rule
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rules: make(map[string]Rule)}
}

// Save implements Store.
func (m *MemoryStore) Save(r Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.rules[r.Name] = clone(r)
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(name string) (Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Rule{}, ErrStoreClosed
	}
	r, ok := m.rules[name]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return clone(r), nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	out := make([]Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.rules, name)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.rules = nil
	return nil
}

// Len returns the number of stored rules.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// clone copies the tag slice so callers cannot alias stored state.
func clone(r Rule) Rule {
	if r.Tags != nil {
		r.Tags = append([]string(nil), r.Tags...)
	}
	return r
}
