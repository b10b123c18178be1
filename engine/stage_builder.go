package engine

import "github.com/lixenwraith/stagecraft/schedule"

// StageBuilder accumulates callbacks, name and frequency before producing a Stage
type StageBuilder struct {
	name      string
	frequency uint32
	spare     bool

	startup *schedule.Builder
	process *schedule.Builder
	destroy *schedule.Builder

	parent *AppBuilder
}

// NewStageBuilder creates an empty builder bound to no AppBuilder
func NewStageBuilder(name string, frequency uint32) *StageBuilder {
	return &StageBuilder{
		name:      name,
		frequency: frequency,
		startup:   schedule.NewBuilder(),
		process:   schedule.NewBuilder(),
		destroy:   schedule.NewBuilder(),
	}
}

// Name returns the stage name
func (b *StageBuilder) Name() string { return b.name }

// Frequency returns the requested ticks per second
func (b *StageBuilder) Frequency() uint32 { return b.frequency }

// Rename changes the stage name of an unbound builder
// Panics if the builder is already registered with an AppBuilder
func (b *StageBuilder) Rename(name string) *StageBuilder {
	if b.parent != nil {
		panic("cannot rename stage builder " + b.name + ": already registered")
	}
	b.name = name
	return b
}

// SetFrequency changes the requested ticks per second
func (b *StageBuilder) SetFrequency(frequency uint32) *StageBuilder {
	b.frequency = frequency
	return b
}

// AsSpare places the built stage in the spare pool instead of the busy set
func (b *StageBuilder) AsSpare() *StageBuilder {
	b.spare = true
	return b
}

// Spare reports whether the stage starts in the spare pool
func (b *StageBuilder) Spare() bool { return b.spare }

// Len returns the number of registered callbacks across all three schedules
func (b *StageBuilder) Len() int {
	return b.startup.Len() + b.process.Len() + b.destroy.Len()
}

// Callbacks returns registered callback names per life-cycle bucket
func (b *StageBuilder) Callbacks() (startup, process, destroy []string) {
	return b.startup.Names(), b.process.Names(), b.destroy.Names()
}

// === Parallel-safe systems ===

// AddSystemStartup registers a parallel-safe system in the startup schedule
func (b *StageBuilder) AddSystemStartup(s schedule.System) *StageBuilder {
	b.startup.AddSystem(s)
	return b
}

// AddSystemProcess registers a parallel-safe system in the process schedule
func (b *StageBuilder) AddSystemProcess(s schedule.System) *StageBuilder {
	b.process.AddSystem(s)
	return b
}

// AddSystemDestroy registers a parallel-safe system in the destroy schedule
func (b *StageBuilder) AddSystemDestroy(s schedule.System) *StageBuilder {
	b.destroy.AddSystem(s)
	return b
}

// === Main-thread-only systems ===

// AddThreadLocalSystemStartup registers a main-thread-only system in the startup schedule
func (b *StageBuilder) AddThreadLocalSystemStartup(s schedule.System) *StageBuilder {
	b.startup.AddThreadLocal(s)
	return b
}

// AddThreadLocalSystemProcess registers a main-thread-only system in the process schedule
func (b *StageBuilder) AddThreadLocalSystemProcess(s schedule.System) *StageBuilder {
	b.process.AddThreadLocal(s)
	return b
}

// AddThreadLocalSystemDestroy registers a main-thread-only system in the destroy schedule
func (b *StageBuilder) AddThreadLocalSystemDestroy(s schedule.System) *StageBuilder {
	b.destroy.AddThreadLocal(s)
	return b
}

// === Main-thread closures ===

// AddThreadLocalFnStartup registers a closure in the startup schedule
func (b *StageBuilder) AddThreadLocalFnStartup(fn schedule.ThreadLocalFn) *StageBuilder {
	b.startup.AddThreadLocalFn(fn)
	return b
}

// AddThreadLocalFnProcess registers a closure in the process schedule
func (b *StageBuilder) AddThreadLocalFnProcess(fn schedule.ThreadLocalFn) *StageBuilder {
	b.process.AddThreadLocalFn(fn)
	return b
}

// AddThreadLocalFnDestroy registers a closure in the destroy schedule
func (b *StageBuilder) AddThreadLocalFnDestroy(fn schedule.ThreadLocalFn) *StageBuilder {
	b.destroy.AddThreadLocalFn(fn)
	return b
}

// Build compiles the three schedules and creates the stage timer on clock
// A nil clock selects the monotonic system clock
func (b *StageBuilder) Build(clock TimeProvider) *Stage {
	return &Stage{
		name:    b.name,
		timer:   NewTimer(b.frequency, clock),
		startup: b.startup.Build(),
		process: b.process.Build(),
		destroy: b.destroy.Build(),
	}
}

// IntoAppBuilder returns the AppBuilder this builder is registered with,
// or a new AppBuilder holding it when the builder is unbound
func (b *StageBuilder) IntoAppBuilder() *AppBuilder {
	if b.parent != nil {
		return b.parent
	}
	ab := NewAppBuilder()
	// Empty AppBuilder cannot collide
	_ = ab.AddStage(b)
	return ab
}

// clone snapshots the registrations of a builder queued for insertion, so later edits to the
// caller's builder do not reach the queued request
// The copy is shallow: callbacks are shared, and so is any state their closures capture
func (b *StageBuilder) clone() *StageBuilder {
	return &StageBuilder{
		name:      b.name,
		frequency: b.frequency,
		spare:     b.spare,
		startup:   b.startup.Clone(),
		process:   b.process.Clone(),
		destroy:   b.destroy.Clone(),
	}
}
