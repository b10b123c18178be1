package ecs

import (
	"reflect"
	"sync"

	"github.com/lixenwraith/stagecraft/core"
)

// World contains all entities and their components using typed stores
// Stores are created on first use and keyed by component type
type World struct {
	mu           sync.RWMutex
	nextEntityID core.Entity
	alive        map[core.Entity]struct{}
	stores       map[reflect.Type]AnyStore
}

// NewWorld creates an empty world
func NewWorld() *World {
	return &World{
		nextEntityID: 1,
		alive:        make(map[core.Entity]struct{}),
		stores:       make(map[reflect.Type]AnyStore),
	}
}

// StoreOf returns the store for component type T, creating it if absent
func StoreOf[T any](w *World) *Store[T] {
	t := TypeOf[T]()

	w.mu.RLock()
	s, ok := w.stores[t]
	w.mu.RUnlock()
	if ok {
		return s.(*Store[T])
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Double-check after acquiring write lock
	if s, ok := w.stores[t]; ok {
		return s.(*Store[T])
	}
	store := NewStore[T]()
	w.stores[t] = store
	return store
}

// NewEntity reserves a new entity ID with no components
func (w *World) NewEntity() core.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextEntityID
	w.nextEntityID++
	w.alive[id] = struct{}{}
	return id
}

// Spawn creates an entity carrying every component in the bundle list
func (w *World) Spawn(bundles ...Bundle) core.Entity {
	e := w.NewEntity()
	for _, b := range bundles {
		b(w, e)
	}
	return e
}

// Extend adds or replaces components on an existing entity
// Returns false if the entity is not alive
func (w *World) Extend(e core.Entity, bundles ...Bundle) bool {
	if !w.Alive(e) {
		return false
	}
	for _, b := range bundles {
		b(w, e)
	}
	return true
}

// Despawn removes an entity and all of its components
func (w *World) Despawn(e core.Entity) {
	w.mu.Lock()
	if _, ok := w.alive[e]; !ok {
		w.mu.Unlock()
		return
	}
	delete(w.alive, e)
	stores := w.snapshotStoresLocked()
	w.mu.Unlock()

	for _, s := range stores {
		s.Remove(e)
	}
}

// Alive reports whether the entity exists
func (w *World) Alive(e core.Entity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.alive[e]
	return ok
}

// EntityCount returns the number of live entities
func (w *World) EntityCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.alive)
}

// Clear removes all entities and components from the world
func (w *World) Clear() {
	w.mu.Lock()
	w.nextEntityID = 1
	w.alive = make(map[core.Entity]struct{})
	stores := w.snapshotStoresLocked()
	w.mu.Unlock()

	for _, s := range stores {
		s.Clear()
	}
}

func (w *World) snapshotStoresLocked() []AnyStore {
	stores := make([]AnyStore, 0, len(w.stores))
	for _, s := range w.stores {
		stores = append(stores, s)
	}
	return stores
}
