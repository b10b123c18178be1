package systems

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/stagecraft/audio"
	"github.com/lixenwraith/stagecraft/component"
	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/engine"
	"github.com/lixenwraith/stagecraft/schedule"
	"github.com/lixenwraith/stagecraft/status"
	"github.com/lixenwraith/stagecraft/terminal"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newEnv returns a world and resources holding an idle App's settings and an 80x24 playfield
func newEnv() (*ecs.World, *ecs.Resources, *schedule.Executor) {
	app := engine.NewAppBuilder().Build()
	res := ecs.NewResources()
	ecs.AddResource(res, app.Settings())
	ecs.AddResource(res, &Bounds{Width: 80, Height: 24})
	return ecs.NewWorld(), res, schedule.NewExecutor(schedule.WithWorkers(1))
}

func runSystem(t *testing.T, sys schedule.System, w *ecs.World, res *ecs.Resources, exec *schedule.Executor) {
	t.Helper()
	require.NoError(t, schedule.NewBuilder().AddThreadLocal(sys).Build().Execute(w, res, exec))
}

type clickRecorder struct {
	clicks []bool
	tones  []float64
}

func (r *clickRecorder) PlayClick(accent bool) { r.clicks = append(r.clicks, accent) }
func (r *clickRecorder) PlayTone(freq float64) { r.tones = append(r.tones, freq) }

func TestMovementIntegratesVelocity(t *testing.T) {
	w, res, exec := newEnv()
	e := w.Spawn(
		ecs.With(component.Position{X: 10, Y: 5}),
		ecs.With(component.Velocity{DX: 60, DY: -60}),
	)
	still := w.Spawn(ecs.With(component.Position{X: 2, Y: 2}))

	runSystem(t, NewMovementSystem(), w, res, exec)

	p, ok := ecs.StoreOf[component.Position](w).Get(e)
	require.True(t, ok)
	assert.InDelta(t, 11, p.X, 1e-9, "idle settings fall back to a 1/60s step")
	assert.InDelta(t, 4, p.Y, 1e-9)

	p, _ = ecs.StoreOf[component.Position](w).Get(still)
	assert.Equal(t, component.Position{X: 2, Y: 2}, p, "entities without velocity are not moved")
}

func TestMovementClampsToBounds(t *testing.T) {
	w, res, exec := newEnv()
	e := w.Spawn(
		ecs.With(component.Position{X: 79, Y: 0.2}),
		ecs.With(component.Velocity{DX: 600, DY: -600}),
	)

	runSystem(t, NewMovementSystem(), w, res, exec)

	p, _ := ecs.StoreOf[component.Position](w).Get(e)
	assert.Equal(t, 79.0, p.X)
	assert.Equal(t, 0.0, p.Y)
}

func TestBounceReflectsAtEdges(t *testing.T) {
	w, res, exec := newEnv()
	corner := w.Spawn(
		ecs.With(component.Position{X: 79, Y: 0}),
		ecs.With(component.Velocity{DX: 5, DY: -3}),
	)
	inside := w.Spawn(
		ecs.With(component.Position{X: 40, Y: 12}),
		ecs.With(component.Velocity{DX: 5, DY: -3}),
	)
	leaving := w.Spawn(
		ecs.With(component.Position{X: 0, Y: 23}),
		ecs.With(component.Velocity{DX: 4, DY: -2}),
	)

	runSystem(t, NewBounceSystem(), w, res, exec)

	velocities := ecs.StoreOf[component.Velocity](w)
	v, _ := velocities.Get(corner)
	assert.Equal(t, component.Velocity{DX: -5, DY: 3}, v)
	v, _ = velocities.Get(inside)
	assert.Equal(t, component.Velocity{DX: 5, DY: -3}, v)
	v, _ = velocities.Get(leaving)
	assert.Equal(t, component.Velocity{DX: 4, DY: -2}, v, "already moving away from the edge")
}

func TestMetronomeAccentsFirstBeat(t *testing.T) {
	w, res, exec := newEnv()
	rec := &clickRecorder{}
	m := &Metronome{}
	ecs.AddResource(res, m)
	ecs.AddResource[audio.Player](res, rec)

	for range 5 {
		runSystem(t, NewMetronomeSystem(), w, res, exec)
	}

	assert.Equal(t, uint64(5), m.Beats)
	assert.Equal(t, []bool{true, false, false, false, true}, rec.clicks)
	assert.Empty(t, rec.tones)
}

func TestSpawnerStageLifecycle(t *testing.T) {
	w, res, exec := newEnv()
	clock := engine.NewMockTimeProvider(epoch)
	keep := w.Spawn(ecs.With(component.Position{X: 1, Y: 1}))

	st := NewSpawnerStage(7).Build(clock)
	require.NoError(t, st.Init(w, res, exec))

	for range 3 {
		clock.Advance(time.Second / SpawnerRate)
		fired, err := st.Play(w, res, exec)
		require.NoError(t, err)
		require.True(t, fired)
	}

	spawned := ecs.StoreOf[component.Spawned](w)
	assert.Equal(t, 3, spawned.Count())
	for _, e := range spawned.All() {
		p, ok := ecs.StoreOf[component.Position](w).Get(e)
		require.True(t, ok)
		x, y := p.Cell()
		assert.True(t, (&Bounds{Width: 80, Height: 24}).Contains(x, y), "spawned inside the playfield")
	}

	require.NoError(t, st.Free(w, res, exec))
	assert.Zero(t, spawned.Count())
	assert.True(t, w.Alive(keep), "destroy only removes spawned particles")
	assert.Equal(t, 1, w.EntityCount())
}

func TestSpawnFnIsDeterministic(t *testing.T) {
	positions := func() []component.Position {
		w, res, _ := newEnv()
		SpawnFn(5, 42)(w, res)
		store := ecs.StoreOf[component.Position](w)
		out := make([]component.Position, 0, store.Count())
		for _, e := range store.All() {
			p, _ := store.Get(e)
			out = append(out, p)
		}
		return out
	}

	first := positions()
	assert.Len(t, first, 5)
	assert.Equal(t, first, positions(), "same seed, same particles")
}

func TestScriptedInputDeliversOnce(t *testing.T) {
	in := NewScriptedInput(40, 10).Press(3, 'a').Press(1, 'b')
	assert.Equal(t, 2, in.Pending())

	early := in.Snapshot(0)
	assert.Empty(t, early.Keys)

	late := in.Snapshot(5)
	require.Len(t, late.Keys, 2)
	assert.True(t, late.Keys[0].IsRune('b'), "earlier frames first")
	assert.True(t, late.Keys[1].IsRune('a'))
	assert.Equal(t, uint64(5), late.Frame)
	assert.Equal(t, 40, late.Width)
	assert.Zero(t, in.Pending())

	assert.Empty(t, in.Snapshot(6).Keys)
}

func TestInputFnPublishesSnapshotAndBounds(t *testing.T) {
	w, res, _ := newEnv()
	InputFn(NewScriptedInput(100, 30).Press(1, 'm'))(w, res)

	bounds := ecs.MustGetResource[*Bounds](res)
	assert.Equal(t, 100, bounds.Width)
	assert.Equal(t, 30, bounds.Height)
	assert.True(t, bounds.Contains(99, 29))
	assert.False(t, bounds.Contains(100, 0))

	in := ecs.MustGetResource[*terminal.InputResource](res)
	assert.Equal(t, uint64(1), in.Frame, "frame of the pass about to complete")
	assert.True(t, in.Pressed('m'))
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

func TestRenderDrawsParticlesAndOverlay(t *testing.T) {
	w, res, exec := newEnv()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	t.Cleanup(sim.Fini)
	sim.SetSize(80, 24)

	ecs.AddResource(res, &Display{Screen: sim})
	reg := status.NewRegistry()
	reg.Ints.Get("engine.frames").Store(12)
	ecs.AddResource(res, reg)

	w.Spawn(
		ecs.With(component.Position{X: 3.6, Y: 4.2}),
		ecs.With(component.Glyph{Rune: '@', Style: tcell.StyleDefault}),
	)

	runSystem(t, NewRenderSystem(), w, res, exec)

	assert.Equal(t, "@", rowText(sim, 5, 3, 4), "row 0 is the header, particles shift down one row")
	assert.Equal(t, " frame 0  busy:", rowText(sim, 0, 0, 15))
	assert.Equal(t, helpLine, rowText(sim, 23, 0, len(helpLine)))
	assert.Contains(t, rowText(sim, 3, 44, 80), "engine.frames")
}

func TestRenderWithoutDisplayIsNoop(t *testing.T) {
	w, res, exec := newEnv()
	runSystem(t, NewRenderSystem(), w, res, exec)
}

func TestRateLabel(t *testing.T) {
	assert.Equal(t, "once", RateLabel(0))
	assert.Equal(t, "frame", RateLabel(engine.EveryFrame))
	assert.Equal(t, "30Hz", RateLabel(30))
}
