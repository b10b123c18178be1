package config

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/stagecraft/core"
	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/engine"
	"github.com/lixenwraith/stagecraft/logging"
)

const sampleTOML = `
[engine]
workers = 4
max_idle = "20ms"
debug = true
log_level = "debug"

[[stage]]
name = "sim"
frequency = 30

[[stage]]
name = "metronome"
frequency = 2
spare = true
`

const sampleYAML = `
engine:
  workers: 4
  max_idle: 20ms
  debug: true
  log_level: debug
stage:
  - name: sim
    frequency: 30
  - name: metronome
    frequency: 2
    spare: true
`

func TestParseFormatsAgree(t *testing.T) {
	fromTOML, err := Parse([]byte(sampleTOML), FormatTOML)
	require.NoError(t, err)
	fromYAML, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, fromTOML, fromYAML)
	assert.Equal(t, 4, fromTOML.Engine.Workers)
	assert.Equal(t, 20*time.Millisecond, fromTOML.Engine.MaxIdle)
	assert.Equal(t, "logs", fromTOML.Engine.LogDir, "defaults survive partial files")
	require.Len(t, fromTOML.Stages, 2)
	assert.Equal(t, Stage{Name: "metronome", Frequency: 2, Spare: true}, fromTOML.Stages[1])
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Stages, 2)

	_, err = Load(filepath.Join(dir, "app.json"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Engine: Engine{Workers: -1},
		Stages: []Stage{{Name: "a"}, {Name: ""}, {Name: "a"}},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "stage #1 has no name")
	assert.Contains(t, err.Error(), `duplicate stage "a"`)

	assert.NoError(t, Default().Validate())
}

func TestApplyToBuilders(t *testing.T) {
	cfg, err := Parse([]byte(sampleTOML), FormatTOML)
	require.NoError(t, err)
	cfg.Stages = append(cfg.Stages, Stage{Name: "ghost", Frequency: 1})

	ab := engine.NewAppBuilder(cfg.EngineOptions()...)
	sim, _ := ab.CreateStageBuilder("sim", 60)
	met, _ := ab.CreateStageBuilder("metronome", 1)

	unknown := cfg.ApplyTo(ab)
	assert.Equal(t, []string{"ghost"}, unknown)
	assert.Equal(t, uint32(30), sim.Frequency())
	assert.False(t, sim.Spare())
	assert.Equal(t, uint32(2), met.Frequency())
	assert.True(t, met.Spare())
}

func TestDiff(t *testing.T) {
	old := &Config{Stages: []Stage{
		{Name: "sim", Frequency: 30},
		{Name: "metronome", Frequency: 2, Spare: true},
		{Name: "hud", Frequency: 10},
		{Name: "dropped", Frequency: 5},
	}}
	cur := &Config{Stages: []Stage{
		{Name: "sim", Frequency: 60},
		{Name: "metronome", Frequency: 2},
		{Name: "hud", Frequency: 10, Spare: true},
		{Name: "fresh", Frequency: 1},
	}}

	assert.Equal(t, []Change{
		{Stage: "sim", Kind: ChangeFrequency, Frequency: 60},
		{Stage: "metronome", Kind: ChangeActivate},
		{Stage: "hud", Kind: ChangeRetire},
		{Stage: "fresh", Kind: ChangeAdded},
		{Stage: "dropped", Kind: ChangeRetire},
	}, Diff(old, cur))

	assert.Empty(t, Diff(cur, cur))

	// Patching with every change except the added entry leaves only that entry pending
	patched := Patch(old, Diff(old, cur))
	assert.Equal(t, []Change{{Stage: "fresh", Kind: ChangeAdded}}, Diff(patched, cur))
	assert.Equal(t, uint32(30), old.Stages[0].Frequency, "base is not modified")
}

func TestPatchKeepsRejectedChangesPending(t *testing.T) {
	old := &Config{Stages: []Stage{
		{Name: "sim", Frequency: 30},
		{Name: "metronome", Frequency: 2, Spare: true},
	}}
	cur := &Config{Stages: []Stage{
		{Name: "sim", Frequency: 60},
		{Name: "metronome", Frequency: 2},
	}}

	changes := Diff(old, cur)
	require.Len(t, changes, 2)
	patched := Patch(old, changes[:1])

	assert.Equal(t, []Change{{Stage: "metronome", Kind: ChangeActivate}}, Diff(patched, cur))
}

func TestApplyChangesQueuesRequests(t *testing.T) {
	clock := engine.NewMockTimeProvider(time.Unix(0, 0))
	ab := engine.NewAppBuilder(engine.WithClock(clock), engine.WithWorkers(1))
	ab.CreateStageBuilder("sim", 30)
	met, _ := ab.CreateStageBuilder("metronome", 2)
	met.AsSpare()

	var (
		applied  []Change
		applyErr error
	)
	driver, _ := ab.CreateStageBuilder("driver", 0)
	driver.AddThreadLocalFnProcess(func(_ *ecs.World, res *ecs.Resources) {
		settings := ecs.MustGetResource[*engine.Settings](res)
		applied, applyErr = ApplyChanges(settings, []Change{
			{Stage: "sim", Kind: ChangeFrequency, Frequency: 60},
			{Stage: "metronome", Kind: ChangeActivate},
			{Stage: "fresh", Kind: ChangeAdded},
			{Stage: "ghost", Kind: ChangeRetire},
		})
		settings.Quit()
	})

	app := ab.Build()
	require.NoError(t, app.Run(context.Background()))

	require.Error(t, applyErr)
	assert.ErrorIs(t, applyErr, ErrNotRegistered)
	assert.ErrorIs(t, applyErr, engine.ErrStageNotFound)
	assert.Equal(t, []Change{
		{Stage: "sim", Kind: ChangeFrequency, Frequency: 60},
		{Stage: "metronome", Kind: ChangeActivate},
	}, applied)

	st, ok := app.Stage("sim")
	require.True(t, ok)
	assert.Equal(t, uint32(60), st.Frequency())
	assert.Equal(t, []string{"sim", "driver", "metronome"}, app.BusyNames())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	old := DebouncePeriod
	DebouncePeriod = 10 * time.Millisecond
	defer func() { DebouncePeriod = old }()

	dir := t.TempDir()
	path := filepath.Join(dir, "stages.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	err := Watch(ctx, path, logging.Discard(), func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)

	edited := `
[[stage]]
name = "sim"
frequency = 120
`
	require.NoError(t, os.WriteFile(path, []byte(edited), 0644))

	select {
	case cfg := <-reloaded:
		require.Len(t, cfg.Stages, 1)
		assert.Equal(t, uint32(120), cfg.Stages[0].Frequency)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestWatchReloadPanicRunsCrashHandler(t *testing.T) {
	if os.Getenv("STAGECRAFT_WATCH_CRASH") == "1" {
		watchAndPanic(t)
		return
	}

	marker := filepath.Join(t.TempDir(), "reset")
	cmd := exec.Command(os.Args[0], "-test.run=^TestWatchReloadPanicRunsCrashHandler$")
	cmd.Env = append(os.Environ(), "STAGECRAFT_WATCH_CRASH=1", "STAGECRAFT_CRASH_MARKER="+marker)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr, "output: %s", out)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, string(out), "CRASH DETECTED: reload callback failed")
	assert.FileExists(t, marker, "crash reset hook ran")
}

// watchAndPanic runs in the child process; HandleCrash exits before the sleep ends
func watchAndPanic(t *testing.T) {
	DebouncePeriod = 10 * time.Millisecond
	core.SetCrashReset(func() {
		_ = os.WriteFile(os.Getenv("STAGECRAFT_CRASH_MARKER"), nil, 0644)
	})

	path := filepath.Join(t.TempDir(), "stages.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0644))
	require.NoError(t, Watch(context.Background(), path, logging.Discard(), func(*Config, error) {
		panic("reload callback failed")
	}))
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0644))
	time.Sleep(5 * time.Second)
}

func TestWatchRejectsUnknownFormat(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "x.ini"), logging.Discard(), func(*Config, error) {})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
