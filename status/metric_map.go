package status

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// MetricMap is a thread-safe set of named metrics of type T
// Registration takes the mutex; reads and writes through a cached pointer are lock-free
type MetricMap[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

// NewMetricMap creates an initialized MetricMap
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{items: make(map[string]*T)}
}

// Get returns the metric for key, allocating it on first use
// The run loop caches the returned pointer per stage, so this is off the hot path
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	ptr, ok := m.items[key]
	m.mu.RUnlock()
	if ok {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ptr, ok := m.items[key]; ok {
		return ptr
	}
	ptr = new(T)
	m.items[key] = ptr
	return ptr
}

// Delete drops a metric; pointers cached by writers stay valid but are no longer listed
func (m *MetricMap[T]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// Has reports whether key is registered
func (m *MetricMap[T]) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[key]
	return ok
}

// Keys returns the sorted keys starting with prefix; an empty prefix lists every key
func (m *MetricMap[T]) Keys(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := slices.Sorted(maps.Keys(m.items))
	if prefix == "" {
		return keys
	}
	return slices.DeleteFunc(keys, func(k string) bool { return !strings.HasPrefix(k, prefix) })
}

// Range calls fn for every metric in sorted key order
// fn runs without the lock held, so it may register new metrics
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	m.rangePrefix("", fn)
}

func (m *MetricMap[T]) rangePrefix(prefix string, fn func(key string, ptr *T)) {
	keys := m.Keys(prefix)
	ptrs := make([]*T, len(keys))
	m.mu.RLock()
	for i, k := range keys {
		ptrs[i] = m.items[k]
	}
	m.mu.RUnlock()

	for i, k := range keys {
		if ptrs[i] != nil {
			fn(k, ptrs[i])
		}
	}
}

// Count returns the number of registered metrics
func (m *MetricMap[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
