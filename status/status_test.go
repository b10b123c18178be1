package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricMapReturnsStablePointers(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	p1 := m.Get("stage.sim.last_ms")
	p1.Set(1.5)

	p2 := m.Get("stage.sim.last_ms")
	assert.Same(t, p1, p2)
	assert.Equal(t, 1.5, p2.Get())

	m.Delete("stage.sim.last_ms")
	assert.False(t, m.Has("stage.sim.last_ms"))
}

func TestAtomicFloatAddConcurrent(t *testing.T) {
	var f AtomicFloat
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Add(0.5)
		}()
	}
	wg.Wait()
	assert.Equal(t, 25.0, f.Get())
}

func TestAtomicStringTruncates(t *testing.T) {
	var s AtomicString
	assert.Equal(t, "", s.Load())

	long := make([]byte, MaxStringLen+10)
	for i := range long {
		long[i] = 'x'
	}
	s.Store(string(long))
	assert.Len(t, s.Load(), MaxStringLen)
}

func TestSnapshotOrdering(t *testing.T) {
	r := NewRegistry()
	r.Strings.Get("engine.last_error").Store("none")
	r.Ints.Get("engine.frames").Store(3)
	r.Ints.Get("engine.busy").Store(2)
	r.Floats.Get("stage.sim.last_ms").Set(0.25)
	r.Bools.Get("engine.quitting").Store(true)

	assert.Equal(t, []Metric{
		{"engine.busy", "2"},
		{"engine.frames", "3"},
		{"stage.sim.last_ms", "0.25"},
		{"engine.quitting", "true"},
		{"engine.last_error", "none"},
	}, r.Snapshot())
	assert.Equal(t, 5, r.TotalCount())
}

func TestAtomicFloatMax(t *testing.T) {
	var f AtomicFloat
	assert.Equal(t, 2.0, f.Max(2))
	assert.Equal(t, 2.0, f.Max(1))
	assert.Equal(t, 3.5, f.Max(3.5))
	assert.Equal(t, 3.5, f.Get())
}

func TestFilterAndKeys(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get("stage.sim.ticks").Store(4)
	r.Ints.Get("stage.input.ticks").Store(9)
	r.Ints.Get("engine.frames").Store(10)
	r.Floats.Get("stage.sim.peak_ms").Set(1)

	assert.Equal(t, []string{"stage.input.ticks", "stage.sim.ticks"}, r.Ints.Keys("stage."))
	assert.Len(t, r.Ints.Keys(""), 3)
	assert.Equal(t, []Metric{
		{"stage.sim.ticks", "4"},
		{"stage.sim.peak_ms", "1.00"},
	}, r.Filter("stage.sim."))
	assert.Empty(t, r.Filter("control."))
}

func TestRangeMayRegister(t *testing.T) {
	m := NewMetricMap[AtomicString]()
	m.Get("a")
	m.Range(func(k string, _ *AtomicString) {
		m.Get(k + ".seen")
	})
	assert.True(t, m.Has("a.seen"))
}
