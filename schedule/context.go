package schedule

import (
	"fmt"

	"github.com/lixenwraith/stagecraft/core"
	"github.com/lixenwraith/stagecraft/ecs"
)

// Context is the checked view of the world handed to a running system
// Every accessor verifies the system declared the capability; violations panic
type Context struct {
	system    string
	access    *Access
	world     *ecs.World
	resources *ecs.Resources
}

func newContext(s *System, world *ecs.World, res *ecs.Resources) *Context {
	return &Context{
		system:    s.name,
		access:    &s.access,
		world:     world,
		resources: res,
	}
}

// SystemName returns the name of the running system
func (c *Context) SystemName() string { return c.system }

func (c *Context) require(k accessKey, write bool) {
	if write && !c.access.canWrite(k) {
		panic(fmt.Sprintf("system %q wrote %s without declaring write access", c.system, k))
	}
	if !write && !c.access.canRead(k) {
		panic(fmt.Sprintf("system %q read %s without declaring access", c.system, k))
	}
}

// ReadStore is the read-only face of a component store
type ReadStore[T any] struct {
	store *ecs.Store[T]
}

// Get retrieves a component for an entity
func (r ReadStore[T]) Get(e core.Entity) (T, bool) { return r.store.Get(e) }

// Has checks if entity has this component
func (r ReadStore[T]) Has(e core.Entity) bool { return r.store.Has(e) }

// All returns all entities with this component type
func (r ReadStore[T]) All() []core.Entity { return r.store.All() }

// Count returns number of entities with this component
func (r ReadStore[T]) Count() int { return r.store.Count() }

// Each iterates components in insertion order
func (r ReadStore[T]) Each(fn func(e core.Entity, val T)) { r.store.Each(fn) }

// Store exposes the underlying store for query filters
func (r ReadStore[T]) Store() ecs.AnyStore { return r.store }

// Components returns read access to component type T
func Components[T any](c *Context) ReadStore[T] {
	c.require(accessKey{keyComponent, ecs.TypeOf[T]()}, false)
	return ReadStore[T]{store: ecs.StoreOf[T](c.world)}
}

// ComponentsMut returns write access to component type T
func ComponentsMut[T any](c *Context) *ecs.Store[T] {
	c.require(accessKey{keyComponent, ecs.TypeOf[T]()}, true)
	return ecs.StoreOf[T](c.world)
}

// Resource returns the resource stored under T for reading
// Pointer resources are not deep-copied; callers holding read access must not mutate them
func Resource[T any](c *Context) (T, bool) {
	c.require(accessKey{keyResource, ecs.TypeOf[T]()}, false)
	return ecs.GetResource[T](c.resources)
}

// ResourceMut returns the resource stored under T for mutation
func ResourceMut[T any](c *Context) (T, bool) {
	c.require(accessKey{keyResource, ecs.TypeOf[T]()}, true)
	return ecs.GetResource[T](c.resources)
}

// MustResource is Resource that panics when the resource is absent
func MustResource[T any](c *Context) T {
	c.require(accessKey{keyResource, ecs.TypeOf[T]()}, false)
	return ecs.MustGetResource[T](c.resources)
}

// Entities intersects the given stores, obtained through Components/ComponentsMut
func (c *Context) Entities(stores ...ecs.AnyStore) []core.Entity {
	q := c.world.Query()
	for _, s := range stores {
		q.With(s)
	}
	return q.Execute()
}
