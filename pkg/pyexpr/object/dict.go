package object

import (
	"sort"

	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
)

// Dict is an insertion ordered mapping.
type Dict struct {
	entries *OrderedMap[any, dictEntry]
}

type dictEntry struct {
	key   Value
	value Value
}

// tupleKey hashes a tuple as a chain of its item keys, so items keep their
// own key semantics. The empty tuple is the zero tupleKey.
type tupleKey struct {
	head any
	tail any
}

func (*Dict) Type() *Type { return DictType }

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{entries: NewOrderedMap[any, dictEntry]()}
}

// hashKey maps a value to a Go map key. Numbers and bools share a key
// space so that 1 and True address the same entry.
func hashKey(v Value) (any, error) {
	switch x := v.(type) {
	case Str, Float, NoneType:
		return x, nil
	case Bool:
		if x {
			return Float(1), nil
		}
		return Float(0), nil
	case *Tuple:
		key := tupleKey{}
		for i := len(x.Items) - 1; i >= 0; i-- {
			h, err := hashKey(x.Items[i])
			if err != nil {
				return nil, err
			}
			key = tupleKey{head: h, tail: key}
		}
		return key, nil
	case *Instance, *Type, *Function:
		return x, nil
	}
	return nil, pyerrors.Type("unhashable type: '%s'", v.Type().name)
}

// Set adds or replaces the value for key.
func (d *Dict) Set(key, value Value) error {
	h, err := hashKey(key)
	if err != nil {
		return err
	}
	if old, ok := d.entries.Get(h); ok {
		key = old.key
	}
	d.entries.Set(h, dictEntry{key: key, value: value})
	return nil
}

// SetStr sets a string key.
func (d *Dict) SetStr(key string, value Value) {
	d.entries.Set(Str(key), dictEntry{key: Str(key), value: value})
}

// Get returns the value for key. An unhashable key is a TypeError.
func (d *Dict) Get(key Value) (Value, bool, error) {
	h, err := hashKey(key)
	if err != nil {
		return nil, false, err
	}
	e, ok := d.entries.Get(h)
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

// GetStr returns the value for a string key.
func (d *Dict) GetStr(key string) (Value, bool) {
	e, ok := d.entries.Get(Str(key))
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return d.entries.Len()
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Value {
	keys := make([]Value, 0, d.Len())
	d.Range(func(k, _ Value) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Range calls fn for each entry in insertion order until fn returns false.
func (d *Dict) Range(fn func(key, value Value) bool) {
	d.entries.Range(func(_ any, e dictEntry) bool {
		return fn(e.key, e.value)
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
