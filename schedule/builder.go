package schedule

import "fmt"

// entryKind tags the three registration forms
type entryKind uint8

const (
	kindParallel entryKind = iota
	kindThreadLocal
	kindThreadLocalFn
)

func (k entryKind) String() string {
	switch k {
	case kindParallel:
		return "parallel"
	case kindThreadLocal:
		return "thread_local"
	case kindThreadLocalFn:
		return "thread_local_fn"
	default:
		return "unknown"
	}
}

type entry struct {
	kind   entryKind
	name   string
	system System
	fn     ThreadLocalFn
}

// Builder accumulates callbacks in registration order
type Builder struct {
	entries []entry
}

// NewBuilder creates an empty schedule builder
func NewBuilder() *Builder {
	return &Builder{entries: make([]entry, 0, 8)}
}

// AddSystem registers a parallel-safe system
func (b *Builder) AddSystem(s System) *Builder {
	b.entries = append(b.entries, entry{kind: kindParallel, name: s.name, system: s})
	return b
}

// AddThreadLocal registers a system that runs on the driving goroutine
func (b *Builder) AddThreadLocal(s System) *Builder {
	b.entries = append(b.entries, entry{kind: kindThreadLocal, name: s.name, system: s})
	return b
}

// AddThreadLocalFn registers a closure with unrestricted world and resource access
func (b *Builder) AddThreadLocalFn(fn ThreadLocalFn) *Builder {
	name := fmt.Sprintf("fn#%d", len(b.entries))
	b.entries = append(b.entries, entry{kind: kindThreadLocalFn, name: name, fn: fn})
	return b
}

// Len returns the number of registered callbacks
func (b *Builder) Len() int { return len(b.entries) }

// Names returns callback names in registration order
func (b *Builder) Names() []string {
	names := make([]string, len(b.entries))
	for i, e := range b.entries {
		names[i] = e.name
	}
	return names
}

// Clone returns an independent copy of the builder
func (b *Builder) Clone() *Builder {
	c := &Builder{entries: make([]entry, len(b.entries))}
	copy(c.entries, b.entries)
	return c
}

// Build compiles the registered callbacks into an immutable Schedule
// Parallel systems are packed into conflict-free batches: each system lands in the batch
// right after the last batch holding a conflicting earlier system, so conflicting pairs
// keep registration order. Thread-local entries follow in registration order
func (b *Builder) Build() *Schedule {
	s := &Schedule{}
	var batchAccess [][]*Access

	for i := range b.entries {
		e := b.entries[i]
		if e.kind != kindParallel {
			s.local = append(s.local, e)
			continue
		}

		target := 0
		for bi := len(s.batches) - 1; bi >= 0; bi-- {
			if conflictsAny(&e.system.access, batchAccess[bi]) {
				target = bi + 1
				break
			}
		}

		if target == len(s.batches) {
			s.batches = append(s.batches, nil)
			batchAccess = append(batchAccess, nil)
		}
		s.batches[target] = append(s.batches[target], e.system)
		batchAccess[target] = append(batchAccess[target], &e.system.access)
	}

	return s
}

func conflictsAny(a *Access, others []*Access) bool {
	for _, o := range others {
		if a.Conflicts(o) {
			return true
		}
	}
	return false
}
