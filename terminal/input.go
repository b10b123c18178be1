package terminal

import (
	"github.com/gdamore/tcell/v2"
)

// KeyPress is one key event of a frame
type KeyPress struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// IsRune reports whether the press is the printable rune r
func (k KeyPress) IsRune(r rune) bool {
	return k.Key == tcell.KeyRune && k.Rune == r
}

// IsQuit reports Escape, Ctrl+C or q
func (k KeyPress) IsQuit() bool {
	return k.Key == tcell.KeyEscape || k.Key == tcell.KeyCtrlC || k.IsRune('q')
}

// InputResource is the per-frame input snapshot published into the resource map
// Replaced wholesale by the input stage; readers never see a partially updated frame
type InputResource struct {
	Keys    []KeyPress
	Width   int
	Height  int
	Resized bool
	Frame   uint64
}

// Pressed reports whether any key of the frame matches r
func (in *InputResource) Pressed(r rune) bool {
	if in == nil {
		return false
	}
	for _, k := range in.Keys {
		if k.IsRune(r) {
			return true
		}
	}
	return false
}

// QuitRequested reports whether any key of the frame asks to quit
func (in *InputResource) QuitRequested() bool {
	if in == nil {
		return false
	}
	for _, k := range in.Keys {
		if k.IsQuit() {
			return true
		}
	}
	return false
}

// Snapshot drains every pending event without blocking into a new InputResource
// Resize events also resync the screen so the next draw repaints everything
func (t *Terminal) Snapshot(frame uint64) *InputResource {
	in := &InputResource{Frame: frame}

	for {
		select {
		case ev := <-t.events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				in.Keys = append(in.Keys, KeyPress{Key: ev.Key(), Rune: ev.Rune(), Mod: ev.Modifiers()})
			case *tcell.EventResize:
				in.Resized = true
				t.screen.Sync()
			}
		default:
			in.Width, in.Height = t.screen.Size()
			return in
		}
	}
}
