package terminal

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/stagecraft/core"
)

// EventBufferSize bounds events queued between two input frames; extra events are dropped
const EventBufferSize = 256

// Terminal owns a tcell screen and the goroutine pumping its events
type Terminal struct {
	screen tcell.Screen
	mode   ColorMode

	events chan tcell.Event
	stop   chan struct{}

	mu      sync.Mutex
	started bool
	dropped int

	finiOnce sync.Once
}

// New creates and initializes a terminal screen in the requested color mode
func New(mode ColorMode) (*Terminal, error) {
	mode = mode.resolve()
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	t, err := NewWithScreen(screen)
	if err != nil {
		return nil, err
	}
	t.mode = mode
	return t, nil
}

// NewWithScreen wraps an existing screen, calling Init on it
// Tests pass a tcell simulation screen
func NewWithScreen(screen tcell.Screen) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	screen.Clear()

	return &Terminal{
		screen: screen,
		mode:   ColorModeTrueColor,
		events: make(chan tcell.Event, EventBufferSize),
		stop:   make(chan struct{}),
	}, nil
}

// Screen returns the underlying tcell screen
func (t *Terminal) Screen() tcell.Screen { return t.screen }

// ColorMode returns the resolved color mode
func (t *Terminal) ColorMode() ColorMode { return t.mode }

// Size returns current terminal dimensions
func (t *Terminal) Size() (width, height int) { return t.screen.Size() }

// Start launches the event pump; later calls are no-ops
func (t *Terminal) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.started = true

	core.Go(func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				// Screen finalized
				return
			}
			select {
			case t.events <- ev:
			case <-t.stop:
				return
			default:
				t.mu.Lock()
				t.dropped++
				t.mu.Unlock()
			}
		}
	})
}

// Post injects a synthetic event into the pump channel
func (t *Terminal) Post(ev tcell.Event) bool {
	select {
	case t.events <- ev:
		return true
	default:
		return false
	}
}

// Dropped returns how many events were discarded because the buffer was full
func (t *Terminal) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Fini restores the terminal state. Safe to call multiple times and from the crash handler
func (t *Terminal) Fini() {
	t.finiOnce.Do(func() {
		close(t.stop)
		t.screen.Fini()
	})
}
