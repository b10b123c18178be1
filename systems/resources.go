package systems

import (
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/stagecraft/terminal"
)

// Stage names of the demo
const (
	StageInput     = "input"
	StageControl   = "control"
	StageSim       = "sim"
	StageSpawner   = "spawner"
	StageMetronome = "metronome"
	StageRender    = "render"
	StageReport    = "report"
)

// Bounds is the playfield size, refreshed by the input stage
type Bounds struct {
	Width, Height int
}

// Contains reports whether the cell lies inside the playfield
func (b *Bounds) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Display lends the screen to thread-local render callbacks
type Display struct {
	Screen tcell.Screen
}

// Metronome counts beats of the metronome stage
type Metronome struct {
	Beats uint64
}

// InputSource produces the per-frame input snapshot
// *terminal.Terminal is the interactive source; ScriptedInput drives headless runs and tests
type InputSource interface {
	Snapshot(frame uint64) *terminal.InputResource
}

// ScriptedInput replays key presses over a fixed-size playfield
// A press scheduled for frame n is delivered by the first snapshot taken at or after frame n
type ScriptedInput struct {
	mu     sync.Mutex
	keys   map[uint64][]terminal.KeyPress
	width  int
	height int
}

// NewScriptedInput creates a source reporting a width by height playfield
func NewScriptedInput(width, height int) *ScriptedInput {
	return &ScriptedInput{
		keys:   make(map[uint64][]terminal.KeyPress),
		width:  width,
		height: height,
	}
}

// Press schedules runes to be reported at frame
func (s *ScriptedInput) Press(frame uint64, runes ...rune) *ScriptedInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range runes {
		s.keys[frame] = append(s.keys[frame], terminal.KeyPress{Key: tcell.KeyRune, Rune: r})
	}
	return s
}

// Pending returns the number of presses not delivered yet
func (s *ScriptedInput) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, keys := range s.keys {
		n += len(keys)
	}
	return n
}

// Snapshot implements InputSource
func (s *ScriptedInput) Snapshot(frame uint64) *terminal.InputResource {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]uint64, 0, len(s.keys))
	for f := range s.keys {
		if f <= frame {
			due = append(due, f)
		}
	}
	slices.Sort(due)

	var keys []terminal.KeyPress
	for _, f := range due {
		keys = append(keys, s.keys[f]...)
		delete(s.keys, f)
	}
	return &terminal.InputResource{
		Keys:   keys,
		Width:  s.width,
		Height: s.height,
		Frame:  frame,
	}
}
