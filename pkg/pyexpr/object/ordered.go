package object

// OrderedMap is a map that remembers insertion order. Re-setting an existing
// key keeps its original position.
//
// OrderedMap is not safe for concurrent mutation.
type OrderedMap[K comparable, V any] struct {
	keys  []K
	index map[K]V
}

// Kwargs holds keyword arguments in source order.
type Kwargs = OrderedMap[string, Value]

// NewOrderedMap creates an empty map.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{index: make(map[K]V)}
}

// NewKwargs creates an empty keyword argument map.
func NewKwargs() *Kwargs {
	return NewOrderedMap[string, Value]()
}

// Set adds or replaces the value for key.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if m.index == nil {
		m.index = make(map[K]V)
	}
	if _, ok := m.index[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.index[key] = value
}

// Get returns the value for key and whether it exists. Safe on a nil map.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.index[key]
	return v, ok
}

// Delete removes key, reporting whether it was present.
func (m *OrderedMap[K, V]) Delete(key K) bool {
	if _, ok := m.index[key]; !ok {
		return false
	}
	delete(m.index, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of entries. Safe on a nil map.
func (m *OrderedMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	keys := make([]K, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *OrderedMap[K, V]) Range(fn func(K, V) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.index[k]) {
			return
		}
	}
}
