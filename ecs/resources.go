package ecs

import (
	"reflect"
	"sync"
)

// Resources is a thread-safe container for global singletons keyed by type
// Systems reach shared data (time, input, settings) without coupling to the App
type Resources struct {
	mu        sync.RWMutex
	resources map[reflect.Type]any
}

// NewResources creates an empty resource map
func NewResources() *Resources {
	return &Resources{
		resources: make(map[reflect.Type]any),
	}
}

// AddResource registers or replaces the resource stored under T
// Pointer types are recommended so systems can mutate in place
func AddResource[T any](rs *Resources, resource T) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.resources[TypeOf[T]()] = resource
}

// GetResource retrieves the resource stored under T
// Returns the zero value of T and false if not found
func GetResource[T any](rs *Resources) (T, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	// A nil stored under an interface key reads as absent
	res, ok := rs.resources[TypeOf[T]()].(T)
	return res, ok
}

// MustGetResource retrieves a resource or panics if missing
// For resources whose absence means the App was assembled incorrectly
func MustGetResource[T any](rs *Resources) T {
	res, ok := GetResource[T](rs)
	if !ok {
		panic("required resource not found: " + TypeOf[T]().String())
	}
	return res
}

// RemoveResource deletes the resource stored under T, returns whether it existed
func RemoveResource[T any](rs *Resources) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	t := TypeOf[T]()
	_, ok := rs.resources[t]
	delete(rs.resources, t)
	return ok
}

// Len returns the number of stored resources
func (rs *Resources) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.resources)
}
