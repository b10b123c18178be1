package engine

import (
	"math"
	"time"
)

// EveryFrame is the frequency whose period rounds to zero: the stage fires on every pass
const EveryFrame uint32 = math.MaxUint32

// Timer is a drift-free fixed-tick accumulator owned by one stage
//
// Frequency semantics:
//   - 0: fires once on the first Tick after creation or retime, never again
//   - 1: period of exactly one second
//   - n: period of round(1e9/n) ns; a period that rounds to zero fires on every Tick
//
// Update must be called once per frame before Tick
type Timer struct {
	clock TimeProvider

	targetTicks uint32
	targetDelta time.Duration

	lastTick    time.Time
	accumulated time.Duration
	hasTicked   bool

	// Run-once bookkeeping for targetTicks == 0
	spent bool
}

// NewTimer creates a timer stamped at the clock's current time
func NewTimer(ticksPerSecond uint32, clock TimeProvider) *Timer {
	if clock == nil {
		clock = NewMonotonicTimeProvider()
	}
	return &Timer{
		clock:       clock,
		targetTicks: ticksPerSecond,
		targetDelta: periodFor(ticksPerSecond),
		lastTick:    clock.Now(),
	}
}

// periodFor converts ticks per second to a rounded nanosecond period
func periodFor(ticks uint32) time.Duration {
	switch ticks {
	case 0:
		return 0
	case 1:
		return time.Second
	}
	n := uint64(ticks)
	return time.Duration((uint64(time.Second) + n/2) / n)
}

// Update banks the time elapsed since the previous Update and clears HasTicked
// Run-once and saturated timers only stamp the clock, leaving the banked phase for a later retime
func (t *Timer) Update() {
	now := t.clock.Now()
	if t.targetDelta != 0 {
		if elapsed := now.Sub(t.lastTick); elapsed > 0 {
			t.accumulated += elapsed
		}
	}
	t.lastTick = now
	t.hasTicked = false
}

// Tick reports whether the timer fires this frame
// Fires at most once per call and consumes one period. Whole periods still banked after a stall
// are dropped so the accumulator ends below one period; the fractional surplus is kept
func (t *Timer) Tick() bool {
	switch {
	case t.targetTicks == 0:
		if t.spent {
			return false
		}
		t.spent = true

	case t.targetDelta == 0:
		// Saturated period: once per Update
		if t.hasTicked {
			return false
		}

	default:
		if t.accumulated < t.targetDelta {
			return false
		}
		t.accumulated -= t.targetDelta
		if t.accumulated >= t.targetDelta {
			t.accumulated %= t.targetDelta
		}
	}

	t.hasTicked = true
	return true
}

// SetTicksPerSecond changes the frequency without touching the accumulated phase
// Setting 0 re-arms the single firing
func (t *Timer) SetTicksPerSecond(ticks uint32) {
	t.targetTicks = ticks
	t.targetDelta = periodFor(ticks)
	if ticks == 0 {
		t.spent = false
	}
}

// Resume re-stamps the clock without touching the accumulator
// Called when a stage (re)enters the busy set so idle time is not banked as a tick burst
func (t *Timer) Resume() {
	t.lastTick = t.clock.Now()
}

// Remaining returns the time until the next firing is due
// ok is false when the timer will never fire again on its own (spent run-once timer)
func (t *Timer) Remaining() (d time.Duration, ok bool) {
	switch {
	case t.targetTicks == 0:
		return 0, !t.spent
	case t.targetDelta == 0:
		return 0, true
	}

	pending := t.accumulated
	if elapsed := t.clock.Now().Sub(t.lastTick); elapsed > 0 {
		pending += elapsed
	}
	if pending >= t.targetDelta {
		return 0, true
	}
	return t.targetDelta - pending, true
}

// TicksPerSecond returns the configured frequency
func (t *Timer) TicksPerSecond() uint32 { return t.targetTicks }

// Period returns the derived period; zero for run-once and saturated timers
func (t *Timer) Period() time.Duration { return t.targetDelta }

// Accumulated returns the banked time not yet consumed by a firing
func (t *Timer) Accumulated() time.Duration { return t.accumulated }

// HasTicked reports whether Tick fired since the last Update
func (t *Timer) HasTicked() bool { return t.hasTicked }
