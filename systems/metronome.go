package systems

import (
	"github.com/lixenwraith/stagecraft/audio"
	"github.com/lixenwraith/stagecraft/schedule"
)

// BeatsPerBar sets the accent period of the metronome
const BeatsPerBar = 4

// NewMetronomeSystem counts beats and plays a click per tick, accenting the first beat of a bar
// Thread-local: the audio device is driven from the loop goroutine only
func NewMetronomeSystem() schedule.System {
	return schedule.NewSystem("metronome", func(c *schedule.Context) {
		m, ok := schedule.ResourceMut[*Metronome](c)
		if !ok {
			return
		}
		accent := m.Beats%BeatsPerBar == 0
		m.Beats++

		if player, ok := schedule.Resource[audio.Player](c); ok {
			player.PlayClick(accent)
		}
	},
		schedule.WritesResource[*Metronome](),
		schedule.ReadsResource[audio.Player](),
	)
}
