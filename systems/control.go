package systems

import (
	"github.com/lixenwraith/stagecraft/engine"
	"github.com/lixenwraith/stagecraft/schedule"
	"github.com/lixenwraith/stagecraft/status"
	"github.com/lixenwraith/stagecraft/terminal"
)

const (
	minSimRate = 1
	maxSimRate = 240
)

// NewControlSystem maps keys to scheduler requests
//
//	q, Esc, Ctrl+C  quit
//	m               toggle the metronome stage between spare and busy
//	+ / -           double or halve the sim stage frequency
//	s               insert the spawner stage, or toggle it once it exists
//	p               pause or resume the sim stage
//
// Rejected requests are expected when two keys race within one frame; they surface in LastResults
func NewControlSystem(seed uint64) schedule.System {
	return schedule.NewSystem("control", func(c *schedule.Context) {
		settings := schedule.MustResource[*engine.Settings](c)
		in, ok := schedule.Resource[*terminal.InputResource](c)
		if !ok || len(in.Keys) == 0 || in.Frame != settings.Frame()+1 {
			// No snapshot published during this pass
			return
		}

		if in.QuitRequested() {
			settings.Quit()
			return
		}

		rejected := schedule.MustResource[*status.Registry](c).Ints.Get("control.rejected")
		for _, k := range in.Keys {
			var err error
			switch {
			case k.IsRune('m'):
				err = toggle(settings, StageMetronome, engine.AtTail())
			case k.IsRune('p'):
				err = toggle(settings, StageSim, engine.Before(StageRender))
			case k.IsRune('s'):
				err = toggleSpawner(settings, seed)
			case k.IsRune('+'), k.IsRune('='):
				err = retime(settings, StageSim, 2, 1)
			case k.IsRune('-'):
				err = retime(settings, StageSim, 1, 2)
			}
			if err != nil {
				rejected.Add(1)
			}
		}
	},
		schedule.ReadsResource[*terminal.InputResource](),
		schedule.ReadsResource[*engine.Settings](),
		schedule.ReadsResource[*status.Registry](),
	)
}

// toggle retires a busy stage or activates a spare one at
// A missing placement reference falls back to the tail
func toggle(settings *engine.Settings, name string, at engine.Placement) error {
	if _, busy := settings.BusyStage(name); busy {
		return settings.RetireStage(name)
	}
	if ref := at.Ref(); ref != "" {
		if _, ok := settings.BusyStage(ref); !ok {
			at = engine.AtTail()
		}
	}
	return settings.ActivateStage(name, at)
}

// toggleSpawner builds the spawner stage on first use, then moves it between the pools
func toggleSpawner(settings *engine.Settings, seed uint64) error {
	if _, busy := settings.BusyStage(StageSpawner); busy {
		return settings.RetireStage(StageSpawner)
	}
	if _, spare := settings.SpareStage(StageSpawner); spare {
		return toggle(settings, StageSpawner, engine.After(StageSim))
	}
	at := engine.After(StageSim)
	if _, ok := settings.BusyStage(StageSim); !ok {
		at = engine.AtTail()
	}
	return settings.InsertStage(NewSpawnerStage(seed), at)
}

// retime scales the stage frequency by mul/div within the sim rate limits
func retime(settings *engine.Settings, name string, mul, div uint32) error {
	info, ok := settings.BusyStage(name)
	if !ok {
		info, ok = settings.SpareStage(name)
	}
	if !ok {
		return settings.SetStageFrequency(name, minSimRate)
	}
	freq := max(minSimRate, min(maxSimRate, uint64(info.Frequency)*uint64(mul)/uint64(div)))
	return settings.SetStageFrequency(name, uint32(freq))
}
