package systems

import (
	"math"
	"math/rand/v2"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/stagecraft/component"
	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/engine"
	"github.com/lixenwraith/stagecraft/schedule"
)

const (
	defaultStep = 1.0 / 60
	maxSpeed    = 12.0 // cells per second
)

var particleRunes = []rune("*+o.x")

var particleColors = []tcell.Color{
	tcell.ColorGreen, tcell.ColorAqua, tcell.ColorYellow, tcell.ColorFuchsia, tcell.ColorOrange,
}

// SpawnFn creates n particles at random positions inside the bounds
func SpawnFn(n int, seed uint64) func(*ecs.World, *ecs.Resources) {
	return func(w *ecs.World, res *ecs.Resources) {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		bounds := boundsOf(res)
		for i := 0; i < n; i++ {
			spawnParticle(w, rng, bounds)
		}
	}
}

// DespawnAllFn removes every entity when the sim stage is destroyed
func DespawnAllFn(w *ecs.World, _ *ecs.Resources) {
	w.Clear()
}

func spawnParticle(w *ecs.World, rng *rand.Rand, bounds *Bounds, extra ...ecs.Bundle) {
	angle := rng.Float64() * 2 * math.Pi
	speed := 2 + rng.Float64()*(maxSpeed-2)
	bundles := append([]ecs.Bundle{
		ecs.With(component.Position{
			X: rng.Float64() * float64(max(bounds.Width-1, 1)),
			Y: rng.Float64() * float64(max(bounds.Height-1, 1)),
		}),
		ecs.With(component.Velocity{DX: math.Cos(angle) * speed, DY: math.Sin(angle) * speed}),
		ecs.With(component.Glyph{
			Rune:  particleRunes[rng.IntN(len(particleRunes))],
			Style: tcell.StyleDefault.Foreground(particleColors[rng.IntN(len(particleColors))]),
		}),
	}, extra...)
	w.Spawn(bundles...)
}

func boundsOf(res *ecs.Resources) *Bounds {
	if b, ok := ecs.GetResource[*Bounds](res); ok && b.Width > 0 && b.Height > 0 {
		return b
	}
	return &Bounds{Width: 80, Height: 24}
}

// stepOf derives the integration step from the stage's current frequency
func stepOf(settings *engine.Settings, stage string) float64 {
	info, ok := settings.BusyStage(stage)
	if !ok || info.Frequency == 0 || info.Frequency == engine.EveryFrame {
		return defaultStep
	}
	return 1 / float64(info.Frequency)
}

// NewMovementSystem integrates velocity into position, clamping to the bounds
func NewMovementSystem() schedule.System {
	return schedule.NewSystem("movement", func(c *schedule.Context) {
		positions := schedule.ComponentsMut[component.Position](c)
		velocities := schedule.Components[component.Velocity](c)
		bounds, ok := schedule.Resource[*Bounds](c)
		if !ok {
			return
		}
		dt := stepOf(schedule.MustResource[*engine.Settings](c), StageSim)
		maxX, maxY := float64(bounds.Width-1), float64(bounds.Height-1)

		for _, e := range c.Entities(positions, velocities.Store()) {
			v, _ := velocities.Get(e)
			positions.Update(e, func(p *component.Position) {
				p.X = clamp(p.X+v.DX*dt, 0, maxX)
				p.Y = clamp(p.Y+v.DY*dt, 0, maxY)
			})
		}
	},
		schedule.Writes[component.Position](),
		schedule.Reads[component.Velocity](),
		schedule.ReadsResource[*Bounds](),
		schedule.ReadsResource[*engine.Settings](),
	)
}

// NewBounceSystem reflects velocities of particles touching an edge
func NewBounceSystem() schedule.System {
	return schedule.NewSystem("bounce", func(c *schedule.Context) {
		positions := schedule.Components[component.Position](c)
		velocities := schedule.ComponentsMut[component.Velocity](c)
		bounds, ok := schedule.Resource[*Bounds](c)
		if !ok {
			return
		}
		maxX, maxY := float64(bounds.Width-1), float64(bounds.Height-1)

		for _, e := range c.Entities(positions.Store(), velocities) {
			p, _ := positions.Get(e)
			velocities.Update(e, func(v *component.Velocity) {
				if (p.X <= 0 && v.DX < 0) || (p.X >= maxX && v.DX > 0) {
					v.DX = -v.DX
				}
				if (p.Y <= 0 && v.DY < 0) || (p.Y >= maxY && v.DY > 0) {
					v.DY = -v.DY
				}
			})
		}
	},
		schedule.Reads[component.Position](),
		schedule.Writes[component.Velocity](),
		schedule.ReadsResource[*Bounds](),
	)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
