package schedule

import "github.com/lixenwraith/stagecraft/ecs"

// SystemFunc is the body of a system, reaching shared state only through ctx
type SystemFunc func(ctx *Context)

// System is a named callback with a declared capability set
// Registered as parallel-safe it may share a batch with non-conflicting systems;
// registered as thread-local it runs serially on the driving goroutine
type System struct {
	name   string
	access Access
	run    SystemFunc
}

// NewSystem creates a system from its body and capability options
//
// Example:
//
//	move := schedule.NewSystem("move", moveFn,
//	    schedule.Writes[Position](),
//	    schedule.Reads[Velocity]())
func NewSystem(name string, run SystemFunc, opts ...AccessOption) System {
	return System{
		name:   name,
		access: NewAccess(opts...),
		run:    run,
	}
}

// Name returns the system name
func (s System) Name() string { return s.name }

// Access returns the declared capability set
func (s System) Access() *Access { return &s.access }

// ThreadLocalFn receives simultaneous unrestricted access to the world and the resource map
// Always runs on the driving goroutine after every parallel system in its schedule
type ThreadLocalFn func(world *ecs.World, res *ecs.Resources)
