package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/stagecraft/config"
	"github.com/lixenwraith/stagecraft/engine"
	"github.com/lixenwraith/stagecraft/logging"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidatePrintsPlan(t *testing.T) {
	path := writeConfig(t, "demo.toml", `
[[stage]]
name = "sim"
frequency = 60

[[stage]]
name = "metronome"
frequency = 4
`)

	out, err := executeRoot(t, "validate", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "sim")
	assert.Contains(t, out, "60Hz")
	assert.Contains(t, out, "4Hz")
	assert.Contains(t, out, "batch 0: movement")
	assert.Contains(t, out, "main:")
	assert.NotContains(t, out, "render", "validate builds the headless layout")
}

func TestValidateRejectsUnknownStage(t *testing.T) {
	path := writeConfig(t, "demo.yaml", `
stage:
  - name: ghost
    frequency: 1
`)

	out, err := executeRoot(t, "validate", "--config", path)
	require.ErrorIs(t, err, errUnknownStages)
	assert.Contains(t, out, "unregistered: ghost")
}

func TestValidateRequiresConfig(t *testing.T) {
	_, err := executeRoot(t, "validate")
	assert.Error(t, err)
}

func TestRunHeadlessForDuration(t *testing.T) {
	path := writeConfig(t, "demo.toml", `
[engine]
workers = 2
log_level = "warn"
`)

	start := time.Now()
	_, err := executeRoot(t, "run", "--headless", "--duration", "150ms", "--config", path)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestReloaderQueuesChanges(t *testing.T) {
	ab := engine.NewAppBuilder()
	_, err := ab.CreateStageBuilder("sim", 30)
	require.NoError(t, err)
	app := ab.Build()

	initial := &config.Config{Stages: []config.Stage{{Name: "sim", Frequency: 30}}}
	next := &config.Config{Stages: []config.Stage{{Name: "sim", Frequency: 60}}}
	reload := reloader(initial, app.Settings(), logging.Discard())

	reload(nil, assert.AnError)
	assert.Zero(t, app.Settings().Pending(), "failed reloads queue nothing")

	reload(next, nil)
	reload(next, nil)
	assert.Equal(t, 1, app.Settings().Pending(), "diffs are taken against the last applied config")
}

func TestReloaderOffersRejectedChangesAgain(t *testing.T) {
	ab := engine.NewAppBuilder()
	_, err := ab.CreateStageBuilder("sim", 30)
	require.NoError(t, err)
	app := ab.Build()

	log, hook := logtest.NewNullLogger()
	initial := &config.Config{Stages: []config.Stage{
		{Name: "sim", Frequency: 30},
		{Name: "ghost", Frequency: 5, Spare: true},
	}}
	next := &config.Config{Stages: []config.Stage{
		{Name: "sim", Frequency: 60},
		{Name: "ghost", Frequency: 5},
	}}
	reload := reloader(initial, app.Settings(), log)

	reload(next, nil)
	reload(next, nil)
	assert.Equal(t, 1, app.Settings().Pending(), "the retime is queued once")

	var rejected []logrus.Fields
	for _, e := range hook.AllEntries() {
		if e.Message == "config changes partly rejected" {
			rejected = append(rejected, e.Data)
		}
	}
	require.Len(t, rejected, 2, "the rejected activation is diffed again")
	assert.Equal(t, 2, rejected[0]["changes"])
	assert.Equal(t, 1, rejected[0]["queued"])
	assert.Equal(t, 1, rejected[1]["changes"])
	assert.Equal(t, 0, rejected[1]["queued"])
}
