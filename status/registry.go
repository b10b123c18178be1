package status

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// Registry is the central metrics facade
// The run loop caches pointers once per stage; hot paths write directly to atomics
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Metric is one formatted registry entry
type Metric struct {
	Key   string
	Value string
}

// Snapshot formats every metric, ints first, then floats, bools, strings; keys sorted within a type
// Used by overlays and the headless summary
func (r *Registry) Snapshot() []Metric {
	return r.Filter("")
}

// Filter is Snapshot restricted to keys starting with prefix
func (r *Registry) Filter(prefix string) []Metric {
	out := make([]Metric, 0, r.TotalCount())
	r.Ints.rangePrefix(prefix, func(k string, v *atomic.Int64) {
		out = append(out, Metric{k, strconv.FormatInt(v.Load(), 10)})
	})
	r.Floats.rangePrefix(prefix, func(k string, v *AtomicFloat) {
		out = append(out, Metric{k, fmt.Sprintf("%.2f", v.Get())})
	})
	r.Bools.rangePrefix(prefix, func(k string, v *atomic.Bool) {
		out = append(out, Metric{k, strconv.FormatBool(v.Load())})
	})
	r.Strings.rangePrefix(prefix, func(k string, v *AtomicString) {
		out = append(out, Metric{k, v.Load()})
	})
	return out
}
