package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/schedule"
	"github.com/lixenwraith/stagecraft/status"
)

type appState uint8

const (
	stateBuilt appState = iota
	stateRunning
	stateTerminated
)

// stageStats caches metric pointers of one stage
type stageStats struct {
	ticks  *atomic.Int64
	lastMs *status.AtomicFloat
	peakMs *status.AtomicFloat
}

// App owns the busy stages, the spare pool, the world and the resource map, and drives the loop
// Structural changes happen only in the apply step between frames
type App struct {
	world     *ecs.World
	resources *ecs.Resources

	busy  []*Stage
	spare []*Stage

	queue    *CommandQueue
	settings *Settings
	exec     *schedule.Executor

	clock   TimeProvider
	log     logrus.FieldLogger
	maxIdle time.Duration

	state       appState
	frame       uint64
	quit        bool
	runID       string
	lastResults []CommandResult

	// Cached metric pointers
	status      *status.Registry
	stats       map[*Stage]*stageStats
	statFrames  *atomic.Int64
	statApplied *atomic.Int64
	statFailed  *atomic.Int64
	statBusy    *atomic.Int64
	statSpare   *atomic.Int64
	statQuit    *atomic.Bool
	statLastErr *status.AtomicString
}

func (a *App) initMetrics() {
	a.statFrames = a.status.Ints.Get("engine.frames")
	a.statApplied = a.status.Ints.Get("engine.commands.applied")
	a.statFailed = a.status.Ints.Get("engine.commands.failed")
	a.statBusy = a.status.Ints.Get("engine.busy")
	a.statSpare = a.status.Ints.Get("engine.spare")
	a.statQuit = a.status.Bools.Get("engine.quitting")
	a.statLastErr = a.status.Strings.Get("engine.last_error")
}

func (a *App) statsFor(st *Stage) *stageStats {
	if s, ok := a.stats[st]; ok {
		return s
	}
	prefix := "stage." + st.name
	s := &stageStats{
		ticks:  a.status.Ints.Get(prefix + ".ticks"),
		lastMs: a.status.Floats.Get(prefix + ".last_ms"),
		peakMs: a.status.Floats.Get(prefix + ".peak_ms"),
	}
	a.stats[st] = s
	return s
}

// Run executes init, the main loop and the destroy phase
//
// Cancelling ctx is treated like a Quit command: the current pass completes, then the destroy
// phase runs. A fatal error (missing *Settings resource, panicking callback) aborts immediately,
// skips the destroy phase and is returned wrapped with ErrFatal
func (a *App) Run(ctx context.Context) error {
	if a.state != stateBuilt {
		return ErrAlreadyRan
	}
	a.state = stateRunning
	defer func() { a.state = stateTerminated }()

	a.runID = uuid.NewString()
	a.log = a.log.WithField("run", a.runID)

	ecs.AddResource(a.resources, a.status)
	ecs.AddResource(a.resources, a.settings)
	a.refreshSettings()

	a.log.WithFields(logrus.Fields{
		"busy":    a.BusyNames(),
		"spare":   a.SpareNames(),
		"workers": a.exec.Workers(),
	}).Info("app starting")

	// Init phase
	for _, st := range a.busy {
		if err := a.initStage(st); err != nil {
			return a.fatal(err)
		}
	}
	for _, st := range a.busy {
		st.timer.Resume()
	}

	// Requests issued by startup schedules
	if err := a.applyCommands(); err != nil {
		return a.fatal(err)
	}

	for !a.quit {
		if ctx.Err() != nil {
			a.log.WithError(ctx.Err()).Info("context done, quitting")
			a.quit = true
			break
		}

		if _, ok := ecs.GetResource[*Settings](a.resources); !ok {
			return a.fatal(fmt.Errorf("%w: %T", ErrMissingResource, a.settings))
		}

		if err := a.pass(); err != nil {
			return a.fatal(err)
		}

		if err := a.applyCommands(); err != nil {
			return a.fatal(err)
		}

		if !a.quit {
			a.idle(ctx)
		}
	}

	a.statQuit.Store(true)
	err := a.destroyAll()
	a.log.WithField("frames", a.frame).Info("app terminated")
	return err
}

// pass runs every busy stage once in order; the busy slice is not mutated until apply
func (a *App) pass() error {
	a.frame++
	a.statFrames.Store(int64(a.frame))

	for _, st := range a.busy {
		start := time.Now()
		fired, err := st.Play(a.world, a.resources, a.exec)
		if err != nil {
			return fmt.Errorf("stage %q process: %w", st.name, err)
		}
		if !fired {
			continue
		}

		ms := float64(time.Since(start).Microseconds()) / 1000
		s := a.statsFor(st)
		s.ticks.Store(int64(st.ticks))
		s.lastMs.Set(ms)
		s.peakMs.Max(ms)
	}
	return nil
}

// idle sleeps until the earliest busy timer is due, capped by maxIdle
func (a *App) idle(ctx context.Context) {
	if a.maxIdle <= 0 {
		return
	}
	wait := a.maxIdle
	for _, st := range a.busy {
		if rem, ok := st.timer.Remaining(); ok && rem < wait {
			wait = rem
		}
	}
	if a.queue.Len() > 0 {
		// Commands pushed from outside the loop are applied after the next pass
		wait = 0
	}
	if wait > 0 {
		a.clock.Sleep(ctx, wait)
	}
}

// applyCommands drains the queue and applies the batch in FIFO order
// Only stage startup failures during activation are returned; command errors are collected
func (a *App) applyCommands() error {
	cmds := a.queue.Drain()
	results := make([]CommandResult, 0, len(cmds))

	for _, cmd := range cmds {
		err := a.apply(cmd)
		if err != nil && errors.Is(err, schedule.ErrSystemPanic) {
			return err
		}
		results = append(results, CommandResult{Command: cmd, Err: err})

		entry := a.log.WithFields(logrus.Fields{
			"command": cmd.String(),
			"seq":     cmd.Seq,
			"frame":   a.frame,
		})
		if err != nil {
			a.statFailed.Add(1)
			a.statLastErr.Store(err.Error())
			entry.WithError(err).Warn("command rejected")
			continue
		}
		a.statApplied.Add(1)
		entry.Debug("command applied")
	}

	a.lastResults = results
	a.refreshSettings()
	return nil
}

// apply re-validates cmd against the live stage lists and mutates them
func (a *App) apply(cmd Command) error {
	switch cmd.Kind {
	case CommandInsert:
		if cmd.builder == nil {
			return ErrNilStage
		}
		if a.known(cmd.Name) {
			return fmt.Errorf("%w: %q", ErrDuplicateName, cmd.Name)
		}
		idx, err := a.insertIndex(cmd.Placement)
		if err != nil {
			return err
		}
		st := cmd.builder.Build(a.clock)
		if err := a.initStage(st); err != nil {
			return err
		}
		st.timer.Resume()
		a.busy = insertStage(a.busy, idx, st)

	case CommandActivate:
		si := indexOf(a.spare, cmd.Name)
		if si < 0 {
			return fmt.Errorf("%w: no spare stage %q", ErrStageNotFound, cmd.Name)
		}
		idx, err := a.insertIndex(cmd.Placement)
		if err != nil {
			return err
		}
		st := a.spare[si]
		a.spare = removeStage(a.spare, si)
		if err := a.initStage(st); err != nil {
			return err
		}
		st.timer.Resume()
		a.busy = insertStage(a.busy, idx, st)

	case CommandRetire:
		bi := indexOf(a.busy, cmd.Name)
		if bi < 0 {
			return fmt.Errorf("%w: no busy stage %q", ErrStageNotFound, cmd.Name)
		}
		st := a.busy[bi]
		a.busy = removeStage(a.busy, bi)
		a.spare = append(a.spare, st)

	case CommandRetime:
		st := a.lookup(cmd.Name)
		if st == nil {
			return fmt.Errorf("%w: %q", ErrStageNotFound, cmd.Name)
		}
		st.timer.SetTicksPerSecond(cmd.Ticks)

	case CommandQuit:
		a.quit = true

	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
	return nil
}

func (a *App) initStage(st *Stage) error {
	if err := st.Init(a.world, a.resources, a.exec); err != nil {
		return fmt.Errorf("stage %q startup: %w", st.name, err)
	}
	return nil
}

// destroyAll frees busy stages in order, then spare stages whose startup ran
func (a *App) destroyAll() error {
	var errs []error
	for _, list := range [][]*Stage{a.busy, a.spare} {
		for _, st := range list {
			if err := st.Free(a.world, a.resources, a.exec); err != nil {
				errs = append(errs, fmt.Errorf("stage %q destroy: %w", st.name, err))
			}
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		a.log.WithError(err).Error("destroy phase failed")
		return err
	}
	return nil
}

func (a *App) fatal(err error) error {
	a.statLastErr.Store(err.Error())
	a.log.WithError(err).Error("fatal engine error, aborting run loop")
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

func (a *App) refreshSettings() {
	a.statBusy.Store(int64(len(a.busy)))
	a.statSpare.Store(int64(len(a.spare)))
	a.settings.refresh(a.busy, a.spare, a.frame, a.lastResults)
}

func (a *App) known(name string) bool {
	return indexOf(a.busy, name) >= 0 || indexOf(a.spare, name) >= 0
}

func (a *App) lookup(name string) *Stage {
	if i := indexOf(a.busy, name); i >= 0 {
		return a.busy[i]
	}
	if i := indexOf(a.spare, name); i >= 0 {
		return a.spare[i]
	}
	return nil
}

func (a *App) insertIndex(at Placement) (int, error) {
	if at.kind == placeTail {
		return len(a.busy), nil
	}
	ref := indexOf(a.busy, at.ref)
	if ref < 0 {
		return 0, fmt.Errorf("%w: %q", ErrReferenceNotFound, at.ref)
	}
	if at.kind == placeAfter {
		return ref + 1, nil
	}
	return ref, nil
}

func indexOf(list []*Stage, name string) int {
	for i, st := range list {
		if st.name == name {
			return i
		}
	}
	return -1
}

func insertStage(list []*Stage, idx int, st *Stage) []*Stage {
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = st
	return list
}

func removeStage(list []*Stage, idx int) []*Stage {
	copy(list[idx:], list[idx+1:])
	list[len(list)-1] = nil
	return list[:len(list)-1]
}

// === Accessors ===

// World returns the world owned by the App
func (a *App) World() *ecs.World { return a.world }

// Resources returns the resource map owned by the App
func (a *App) Resources() *ecs.Resources { return a.resources }

// Settings returns the request channel also published as a resource
// Safe to use from goroutines outside the loop
func (a *App) Settings() *Settings { return a.settings }

// Status returns the metric registry
func (a *App) Status() *status.Registry { return a.status }

// Frame returns the number of completed or running passes
func (a *App) Frame() uint64 { return a.frame }

// RunID returns the id attached to log entries of the current or last run
func (a *App) RunID() string { return a.runID }

// LastResults returns the outcome of the most recent apply step
func (a *App) LastResults() []CommandResult {
	out := make([]CommandResult, len(a.lastResults))
	copy(out, a.lastResults)
	return out
}

// BusyNames returns busy stage names in execution order
func (a *App) BusyNames() []string { return names(a.busy) }

// SpareNames returns spare stage names
func (a *App) SpareNames() []string { return names(a.spare) }

// Stage returns the busy or spare stage with name
func (a *App) Stage(name string) (*Stage, bool) {
	st := a.lookup(name)
	return st, st != nil
}

func names(list []*Stage) []string {
	out := make([]string, len(list))
	for i, st := range list {
		out[i] = st.name
	}
	return out
}
