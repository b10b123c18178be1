package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lixenwraith/stagecraft/audio"
	"github.com/lixenwraith/stagecraft/config"
	"github.com/lixenwraith/stagecraft/core"
	"github.com/lixenwraith/stagecraft/engine"
	"github.com/lixenwraith/stagecraft/logging"
	"github.com/lixenwraith/stagecraft/schedule"
	"github.com/lixenwraith/stagecraft/systems"
	"github.com/lixenwraith/stagecraft/terminal"
)

// headlessWidth and headlessHeight size the playfield when no terminal is attached
const (
	headlessWidth  = 80
	headlessHeight = 24
)

var errUnknownStages = errors.New("config names unregistered stages")

type runFlags struct {
	config    string
	debug     bool
	headless  bool
	mute      bool
	duration  time.Duration
	color     string
	particles int
	seed      uint64
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stagedemo",
		Short: "Multi-rate stage scheduler demo",
		Long: `stagedemo runs independently timed stages over a shared entity world.
Interactive mode draws the simulation in the terminal; headless mode logs a status line per second.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newValidateCommand())
	return cmd
}

func newRunCommand() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo until quit, interrupt or --duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), f, cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.config, "config", "c", "", "TOML or YAML config file, watched for changes")
	flags.BoolVar(&f.debug, "debug", false, "write a log file")
	flags.BoolVar(&f.headless, "headless", false, "log status instead of drawing; implied without a terminal")
	flags.BoolVar(&f.mute, "mute", false, "disable audio")
	flags.DurationVar(&f.duration, "duration", 0, "stop after this long (0 runs until quit)")
	flags.StringVar(&f.color, "color", "auto", "color mode: auto, 256, truecolor")
	flags.IntVar(&f.particles, "particles", systems.DefaultParticles, "particles spawned by the sim stage")
	flags.Uint64Var(&f.seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	return cmd
}

func newValidateCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a config file and print the resulting stage plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validate(path, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "TOML or YAML config file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runDemo(ctx context.Context, f *runFlags, stderr io.Writer) error {
	cfg, err := loadConfig(f.config)
	if err != nil {
		return err
	}

	headless := f.headless || !term.IsTerminal(int(os.Stdout.Fd()))

	logOpts := logging.Options{
		Debug: f.debug || cfg.Engine.Debug,
		Dir:   cfg.Engine.LogDir,
		Level: cfg.Engine.LogLevel,
	}
	if headless {
		// The screen owns stdout in interactive mode; console logging is headless only
		logOpts.Console = stderr
		logOpts.Color = term.IsTerminal(int(os.Stderr.Fd()))
	}
	log, closer, err := logging.Setup(logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := systems.Options{
		Particles: f.particles,
		Seed:      f.seed,
	}

	if headless {
		opts.Log = log
		opts.Input = systems.NewScriptedInput(headlessWidth, headlessHeight)
		opts.Width, opts.Height = headlessWidth, headlessHeight
	} else {
		mode, err := terminal.ParseColorMode(f.color)
		if err != nil {
			return err
		}
		t, err := terminal.New(mode)
		if err != nil {
			return err
		}
		core.SetCrashReset(t.Fini)
		defer core.SetCrashReset(nil)
		defer t.Fini()
		t.Start()

		opts.Input = t
		opts.Screen = t.Screen()
		opts.Width, opts.Height = t.Size()
	}

	if !f.mute && !headless {
		sm := audio.NewSoundManager()
		if err := sm.Initialize(); err != nil {
			log.WithError(err).Warn("audio unavailable, metronome is silent")
		} else {
			defer sm.Cleanup()
			opts.Player = sm
		}
	}

	ab := engine.NewAppBuilder(append(cfg.EngineOptions(), engine.WithLogger(log))...)
	if err := systems.Register(ab, opts); err != nil {
		return err
	}
	if unknown := cfg.ApplyTo(ab); len(unknown) > 0 {
		log.WithField("stages", unknown).Warn(errUnknownStages.Error())
	}
	app := ab.Build()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if f.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.duration)
		defer cancel()
	}

	if f.config != "" {
		if err := config.Watch(ctx, f.config, log, reloader(cfg, app.Settings(), log)); err != nil {
			log.WithError(err).Warn("config watching disabled")
		}
	}

	return app.Run(ctx)
}

// reloader turns every successfully reloaded config into scheduler requests against the running App
// Rejected changes stay out of the tracked config so the next reload offers them again
func reloader(initial *config.Config, settings *engine.Settings, log logrus.FieldLogger) config.ReloadFunc {
	var (
		mu      sync.Mutex
		current = initial
	)
	return func(next *config.Config, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		changes := config.Diff(current, next)
		if len(changes) == 0 {
			return
		}
		applied, err := config.ApplyChanges(settings, changes)
		current = config.Patch(current, applied)

		entry := log.WithFields(logrus.Fields{"changes": len(changes), "queued": len(applied)})
		if err != nil {
			entry.WithError(err).Warn("config changes partly rejected")
			return
		}
		entry.Info("config changes queued")
	}
}

func validate(path string, out io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	ab := engine.NewAppBuilder(append(cfg.EngineOptions(), engine.WithLogger(logging.Discard()))...)
	if err := systems.Register(ab, systems.Options{Log: logging.Discard()}); err != nil {
		return err
	}
	unknown := cfg.ApplyTo(ab)
	app := ab.Build()

	printPlan(out, app)

	if len(unknown) > 0 {
		color.New(color.FgRed).Fprintf(out, "unregistered: %s\n", strings.Join(unknown, ", "))
		return fmt.Errorf("%w: %s", errUnknownStages, strings.Join(unknown, ", "))
	}
	return nil
}

var (
	headingColor = color.New(color.Bold)
	busyColor    = color.New(color.FgGreen)
	spareColor   = color.New(color.FgYellow)
	phaseColor   = color.New(color.FgHiBlack)
)

// printPlan lists both pools with the compiled batches of every stage schedule
func printPlan(out io.Writer, app *engine.App) {
	headingColor.Fprintln(out, "busy")
	for _, name := range app.BusyNames() {
		printStage(out, app, name, busyColor)
	}
	headingColor.Fprintln(out, "spare")
	for _, name := range app.SpareNames() {
		printStage(out, app, name, spareColor)
	}
}

func printStage(out io.Writer, app *engine.App, name string, c *color.Color) {
	st, ok := app.Stage(name)
	if !ok {
		return
	}
	c.Fprintf(out, "  %-10s", name)
	fmt.Fprintf(out, " %s\n", systems.RateLabel(st.Frequency()))

	phases := []struct {
		label string
		plan  *schedule.Schedule
	}{
		{"startup", st.Startup()},
		{"process", st.Process()},
		{"destroy", st.Destroy()},
	}
	for _, p := range phases {
		if p.plan.Empty() {
			continue
		}
		for i, batch := range p.plan.Batches() {
			phaseColor.Fprintf(out, "    %-8s", p.label)
			fmt.Fprintf(out, " batch %d: %s\n", i, strings.Join(batch, ", "))
		}
		if local := p.plan.MainThread(); len(local) > 0 {
			phaseColor.Fprintf(out, "    %-8s", p.label)
			fmt.Fprintf(out, " main:    %s\n", strings.Join(local, ", "))
		}
	}
}
