package schedule

import "github.com/lixenwraith/stagecraft/ecs"

// Schedule is a compiled, immutable execution plan
// Parallel phase: batches run one after another, systems within a batch run concurrently.
// Main-thread phase: thread-local systems and closures run serially once every batch has joined
type Schedule struct {
	batches [][]System
	local   []entry
}

// Execute runs the schedule against the world and resources
// Returns the first callback panic as an error wrapping ErrSystemPanic; later batches and the
// main-thread phase are skipped once a panic is seen
func (s *Schedule) Execute(world *ecs.World, res *ecs.Resources, exec *Executor) error {
	for _, batch := range s.batches {
		if err := exec.runBatch(batch, world, res); err != nil {
			return err
		}
	}

	for i := range s.local {
		e := &s.local[i]
		var err error
		switch e.kind {
		case kindThreadLocal:
			err = exec.runInline(e.name, func() {
				e.system.run(newContext(&e.system, world, res))
			})
		case kindThreadLocalFn:
			err = exec.runInline(e.name, func() {
				e.fn(world, res)
			})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Len returns the total number of callbacks
func (s *Schedule) Len() int {
	n := len(s.local)
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

// Empty reports whether the schedule has no callbacks
func (s *Schedule) Empty() bool { return s.Len() == 0 }

// Batches returns the parallel phase as system names per batch
func (s *Schedule) Batches() [][]string {
	out := make([][]string, len(s.batches))
	for i, b := range s.batches {
		out[i] = make([]string, len(b))
		for j, sys := range b {
			out[i][j] = sys.name
		}
	}
	return out
}

// MainThread returns the main-thread phase names in execution order
func (s *Schedule) MainThread() []string {
	out := make([]string, len(s.local))
	for i, e := range s.local {
		out[i] = e.name
	}
	return out
}
