package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	term, err := NewWithScreen(sim)
	require.NoError(t, err)
	sim.SetSize(40, 10)
	t.Cleanup(term.Fini)
	return term, sim
}

func rowText(sim tcell.SimulationScreen, y, from, to int) string {
	cells, w, _ := sim.GetContents()
	out := make([]rune, 0, to-from)
	for x := from; x < to; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, c.Runes[0])
	}
	return string(out)
}

func TestSnapshotCollectsKeys(t *testing.T) {
	term, _ := newSimTerminal(t)

	require.True(t, term.Post(tcell.NewEventKey(tcell.KeyRune, 'm', tcell.ModNone)))
	require.True(t, term.Post(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone)))
	require.True(t, term.Post(tcell.NewEventResize(40, 10)))

	in := term.Snapshot(7)
	assert.Equal(t, uint64(7), in.Frame)
	require.Len(t, in.Keys, 2)
	assert.True(t, in.Pressed('m'))
	assert.True(t, in.Pressed('+'))
	assert.False(t, in.Pressed('q'))
	assert.False(t, in.QuitRequested())
	assert.True(t, in.Resized)
	assert.Equal(t, 40, in.Width)
	assert.Equal(t, 10, in.Height)

	empty := term.Snapshot(8)
	assert.Empty(t, empty.Keys, "snapshot drains the channel")
	assert.False(t, empty.Resized)
}

func TestQuitKeys(t *testing.T) {
	assert.True(t, KeyPress{Key: tcell.KeyEscape}.IsQuit())
	assert.True(t, KeyPress{Key: tcell.KeyCtrlC}.IsQuit())
	assert.True(t, KeyPress{Key: tcell.KeyRune, Rune: 'q'}.IsQuit())
	assert.False(t, KeyPress{Key: tcell.KeyRune, Rune: 'w'}.IsQuit())

	var nilInput *InputResource
	assert.False(t, nilInput.QuitRequested())
	assert.False(t, nilInput.Pressed('q'))
}

func TestPumpForwardsInjectedKeys(t *testing.T) {
	term, sim := newSimTerminal(t)
	term.Start()
	term.Start()

	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	var in *InputResource
	require.Eventually(t, func() bool {
		in = term.Snapshot(1)
		return len(in.Keys) > 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, in.QuitRequested())
}

func TestFiniIsIdempotent(t *testing.T) {
	term, _ := newSimTerminal(t)
	term.Start()
	term.Fini()
	assert.NotPanics(t, term.Fini)
}

func TestDrawTextClips(t *testing.T) {
	term, sim := newSimTerminal(t)
	screen := term.Screen()

	end := DrawText(screen, 36, 2, tcell.StyleDefault, "stagecraft")
	assert.Equal(t, 40, end)
	DrawText(screen, 0, 20, tcell.StyleDefault, "offscreen")
	sim.Show()

	assert.Equal(t, "stag", rowText(sim, 2, 36, 40))
}

func TestDrawBoxAndFill(t *testing.T) {
	term, sim := newSimTerminal(t)
	screen := term.Screen()

	FillRect(screen, -2, 0, 5, 1, '#', tcell.StyleDefault)
	DrawBox(screen, 0, 2, 4, 3, tcell.StyleDefault)
	sim.Show()

	assert.Equal(t, "### ", rowText(sim, 0, 0, 4))
	assert.Equal(t, string([]rune{tcell.RuneULCorner, tcell.RuneHLine, tcell.RuneHLine, tcell.RuneURCorner}), rowText(sim, 2, 0, 4))
	assert.Equal(t, string([]rune{tcell.RuneVLine, ' ', ' ', tcell.RuneVLine}), rowText(sim, 3, 0, 4))
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{
		"":          ColorModeAuto,
		"auto":      ColorModeAuto,
		"256":       ColorMode256,
		"TrueColor": ColorModeTrueColor,
		"24bit":     ColorModeTrueColor,
	} {
		got, err := ParseColorMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseColorMode("16")
	assert.Error(t, err)
}
