// Package systems holds the demo callbacks and assembles them into stages
//
// Stage layout, in busy order:
//
//	input     120Hz        thread-local closure publishing the input snapshot
//	control   120Hz        parallel system turning fresh keys into scheduler requests
//	sim       30Hz         spawn on startup, movement and bounce in parallel, despawn on destroy
//	render    60Hz         thread-local drawing (terminal mode)
//	report    1Hz          status logging (headless mode)
//	metronome 2Hz, spare   thread-local click player, toggled with m
//
// The spawner stage does not exist at build time; the control system inserts it on demand
package systems

import (
	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/stagecraft/audio"
	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/engine"
)

const (
	DefaultParticles = 40
	DefaultSimRate   = 30
	InputRate        = 120
	RenderRate       = 60
	ReportRate       = 1
	MetronomeRate    = 2
)

// Options configures the demo stages
type Options struct {
	Input     InputSource
	Screen    tcell.Screen // Enables the render stage when set
	Player    audio.Player
	Log       logrus.FieldLogger // Enables the report stage when set
	Particles int
	Seed      uint64
	Width     int
	Height    int
}

// Register creates the demo stage builders on ab and seeds the shared resources
func Register(ab *engine.AppBuilder, o Options) error {
	if o.Input == nil {
		o.Input = NewScriptedInput(o.Width, o.Height)
	}
	if o.Player == nil {
		o.Player = audio.Silent{}
	}
	if o.Particles <= 0 {
		o.Particles = DefaultParticles
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 80, 24
	}

	res := ab.Resources()
	ecs.AddResource(res, &Bounds{Width: o.Width, Height: o.Height})
	ecs.AddResource(res, &Metronome{})
	ecs.AddResource[audio.Player](res, o.Player)
	if o.Screen != nil {
		ecs.AddResource(res, &Display{Screen: o.Screen})
	}
	if o.Log != nil {
		ecs.AddResource[logrus.FieldLogger](res, o.Log)
	}

	input, err := ab.CreateStageBuilder(StageInput, InputRate)
	if err != nil {
		return err
	}
	input.AddThreadLocalFnProcess(InputFn(o.Input))

	control, err := ab.CreateStageBuilder(StageControl, InputRate)
	if err != nil {
		return err
	}
	control.AddSystemProcess(NewControlSystem(o.Seed))

	sim, err := ab.CreateStageBuilder(StageSim, DefaultSimRate)
	if err != nil {
		return err
	}
	sim.AddThreadLocalFnStartup(SpawnFn(o.Particles, o.Seed)).
		AddSystemProcess(NewMovementSystem()).
		AddSystemProcess(NewBounceSystem()).
		AddThreadLocalFnDestroy(DespawnAllFn)

	if o.Screen != nil {
		render, err := ab.CreateStageBuilder(StageRender, RenderRate)
		if err != nil {
			return err
		}
		render.AddThreadLocalSystemProcess(NewRenderSystem())
	}

	if o.Log != nil {
		report, err := ab.CreateStageBuilder(StageReport, ReportRate)
		if err != nil {
			return err
		}
		report.AddSystemProcess(NewReportSystem())
	}

	metronome, err := ab.CreateStageBuilder(StageMetronome, MetronomeRate)
	if err != nil {
		return err
	}
	metronome.AsSpare().AddThreadLocalSystemProcess(NewMetronomeSystem())

	return nil
}
