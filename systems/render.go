package systems

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/stagecraft/component"
	"github.com/lixenwraith/stagecraft/engine"
	"github.com/lixenwraith/stagecraft/schedule"
	"github.com/lixenwraith/stagecraft/status"
	"github.com/lixenwraith/stagecraft/terminal"
)

const helpLine = "q quit  m metronome  +/- sim rate  p pause sim  s spawner"

var (
	hudStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	dimStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	beatStyle  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	errorStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// NewRenderSystem draws particles, the stage overlay and the metric panel
// Thread-local: the screen is not safe for concurrent use
func NewRenderSystem() schedule.System {
	return schedule.NewSystem("render", func(c *schedule.Context) {
		display, ok := schedule.Resource[*Display](c)
		if !ok || display.Screen == nil {
			return
		}
		screen := display.Screen
		screen.Clear()

		positions := schedule.Components[component.Position](c)
		glyphs := schedule.Components[component.Glyph](c)
		for _, e := range c.Entities(positions.Store(), glyphs.Store()) {
			p, _ := positions.Get(e)
			g, _ := glyphs.Get(e)
			x, y := p.Cell()
			screen.SetContent(x, y+1, g.Rune, nil, g.Style)
		}

		settings := schedule.MustResource[*engine.Settings](c)
		drawHeader(screen, settings)
		if m, ok := schedule.Resource[*Metronome](c); ok {
			drawBeat(screen, settings, m)
		}
		if reg, ok := schedule.Resource[*status.Registry](c); ok {
			drawMetrics(screen, reg)
		}

		_, h := screen.Size()
		terminal.DrawText(screen, 0, h-1, dimStyle, helpLine)
		screen.Show()
	},
		schedule.Reads[component.Position](),
		schedule.Reads[component.Glyph](),
		schedule.ReadsResource[*Display](),
		schedule.ReadsResource[*engine.Settings](),
		schedule.ReadsResource[*Metronome](),
		schedule.ReadsResource[*status.Registry](),
	)
}

func drawHeader(screen tcell.Screen, settings *engine.Settings) {
	w, _ := screen.Size()
	terminal.FillRect(screen, 0, 0, w, 1, ' ', hudStyle)

	x := terminal.DrawText(screen, 0, 0, hudStyle, fmt.Sprintf(" frame %d  busy:", settings.Frame()))
	for _, st := range settings.BusyStages() {
		x = terminal.DrawText(screen, x, 0, hudStyle, fmt.Sprintf(" %s@%s", st.Name, RateLabel(st.Frequency)))
	}
	if spare := settings.SpareStages(); len(spare) > 0 {
		names := make([]string, len(spare))
		for i, st := range spare {
			names[i] = st.Name
		}
		terminal.DrawText(screen, x, 0, hudStyle, "  spare: "+strings.Join(names, " "))
	}

	for _, r := range settings.LastResults() {
		if !r.OK() {
			terminal.DrawText(screen, 0, 1, errorStyle, r.Err.Error())
			break
		}
	}
}

func drawBeat(screen tcell.Screen, settings *engine.Settings, m *Metronome) {
	if _, busy := settings.BusyStage(StageMetronome); !busy {
		return
	}
	w, _ := screen.Size()
	label := fmt.Sprintf(" beat %d ", (m.Beats+BeatsPerBar-1)%BeatsPerBar+1)
	terminal.DrawText(screen, w-len(label), 0, beatStyle, label)
}

// drawMetrics shows the engine-wide metrics panel
func drawMetrics(screen tcell.Screen, reg *status.Registry) {
	metrics := reg.Filter("engine.")
	if len(metrics) == 0 {
		return
	}
	w, h := screen.Size()
	const panelW = 36
	panelH := min(len(metrics)+2, h-3)
	x, y := w-panelW, 2
	if x < 0 || panelH < 3 {
		return
	}

	terminal.FillRect(screen, x, y, panelW, panelH, ' ', tcell.StyleDefault)
	terminal.DrawBox(screen, x, y, panelW, panelH, dimStyle)
	for i, m := range metrics[:panelH-2] {
		line := fmt.Sprintf("%-24s %8s", m.Key, m.Value)
		terminal.DrawText(screen, x+1, y+1+i, dimStyle, line[:min(len(line), panelW-2)])
	}
}

// RateLabel formats a stage frequency for display
func RateLabel(freq uint32) string {
	switch freq {
	case 0:
		return "once"
	case engine.EveryFrame:
		return "frame"
	default:
		return fmt.Sprintf("%dHz", freq)
	}
}
