package engine

import (
	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/schedule"
)

// Stage is a named, independently timed bundle of startup, process and destroy schedules
// Built once from a StageBuilder; schedules are immutable afterwards
type Stage struct {
	name  string
	timer *Timer

	startup *schedule.Schedule
	process *schedule.Schedule
	destroy *schedule.Schedule

	initialized bool
	freed       bool
	ticks       uint64
}

// Name returns the stage name, unique within one App
func (s *Stage) Name() string { return s.name }

// Frequency returns the current ticks per second of the stage timer
func (s *Stage) Frequency() uint32 { return s.timer.TicksPerSecond() }

// Timer returns the stage timer
func (s *Stage) Timer() *Timer { return s.timer }

// Ticks returns how many times the process schedule has run
func (s *Stage) Ticks() uint64 { return s.ticks }

// Initialized reports whether the startup schedule has run
func (s *Stage) Initialized() bool { return s.initialized }

// Startup returns the compiled startup schedule
func (s *Stage) Startup() *schedule.Schedule { return s.startup }

// Process returns the compiled process schedule
func (s *Stage) Process() *schedule.Schedule { return s.process }

// Destroy returns the compiled destroy schedule
func (s *Stage) Destroy() *schedule.Schedule { return s.destroy }

// Init runs the startup schedule; later calls are no-ops
func (s *Stage) Init(world *ecs.World, res *ecs.Resources, exec *schedule.Executor) error {
	if s.initialized {
		return nil
	}
	s.initialized = true
	return s.startup.Execute(world, res, exec)
}

// Play advances the timer and runs the process schedule if it fired
func (s *Stage) Play(world *ecs.World, res *ecs.Resources, exec *schedule.Executor) (bool, error) {
	s.timer.Update()
	if !s.timer.Tick() {
		return false, nil
	}
	s.ticks++
	return true, s.process.Execute(world, res, exec)
}

// Free runs the destroy schedule once, only for stages whose startup ran
func (s *Stage) Free(world *ecs.World, res *ecs.Resources, exec *schedule.Executor) error {
	if !s.initialized || s.freed {
		return nil
	}
	s.freed = true
	return s.destroy.Execute(world, res, exec)
}

func (s *Stage) info(busy bool) StageInfo {
	return StageInfo{
		Name:      s.name,
		Frequency: s.timer.TicksPerSecond(),
		Busy:      busy,
		Ticks:     s.ticks,
	}
}
