package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lixenwraith/stagecraft/engine"
)

// ErrNotRegistered rejects a change for a stage the running App cannot build from config alone
var ErrNotRegistered = errors.New("stage has no registered callbacks")

// ChangeKind classifies one stage difference between two configs
type ChangeKind uint8

const (
	ChangeFrequency ChangeKind = iota
	ChangeActivate             // spare -> busy
	ChangeRetire               // busy -> spare, or entry removed
	ChangeAdded                // entry without a counterpart in the old config
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeFrequency:
		return "frequency"
	case ChangeActivate:
		return "activate"
	case ChangeRetire:
		return "retire"
	case ChangeAdded:
		return "added"
	default:
		return "unknown"
	}
}

// Change is one stage difference
type Change struct {
	Stage     string
	Kind      ChangeKind
	Frequency uint32 // ChangeFrequency only
}

func (c Change) String() string {
	if c.Kind == ChangeFrequency {
		return fmt.Sprintf("%s %s=%d", c.Stage, c.Kind, c.Frequency)
	}
	return fmt.Sprintf("%s %s", c.Stage, c.Kind)
}

// Diff lists stage changes from old to cur in cur's order, removed entries last
func Diff(old, cur *Config) []Change {
	var changes []Change

	for _, st := range cur.Stages {
		prev, ok := old.Stage(st.Name)
		if !ok {
			changes = append(changes, Change{Stage: st.Name, Kind: ChangeAdded})
			continue
		}
		if prev.Frequency != st.Frequency {
			changes = append(changes, Change{Stage: st.Name, Kind: ChangeFrequency, Frequency: st.Frequency})
		}
		switch {
		case prev.Spare && !st.Spare:
			changes = append(changes, Change{Stage: st.Name, Kind: ChangeActivate})
		case !prev.Spare && st.Spare:
			changes = append(changes, Change{Stage: st.Name, Kind: ChangeRetire})
		}
	}

	for _, st := range old.Stages {
		if _, ok := cur.Stage(st.Name); !ok && !st.Spare {
			changes = append(changes, Change{Stage: st.Name, Kind: ChangeRetire})
		}
	}
	return changes
}

// ApplyChanges issues one scheduler request per change through settings
// Safe to call from any goroutine; requests take effect at the App's next apply step.
// Returns the changes that were queued and the joined local rejections
func ApplyChanges(settings *engine.Settings, changes []Change) ([]Change, error) {
	var (
		applied []Change
		errs    []error
	)
	for _, c := range changes {
		var err error
		switch c.Kind {
		case ChangeFrequency:
			err = settings.SetStageFrequency(c.Stage, c.Frequency)
		case ChangeActivate:
			err = settings.ActivateStage(c.Stage, engine.AtTail())
		case ChangeRetire:
			err = settings.RetireStage(c.Stage)
		case ChangeAdded:
			err = fmt.Errorf("%w: %q", ErrNotRegistered, c.Stage)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
			continue
		}
		applied = append(applied, c)
	}
	return applied, errors.Join(errs...)
}

// Patch returns a copy of base with changes applied
// Diffing a later config against the result yields only what base still lacks, so rejected
// changes come up again. Added entries are skipped since config alone cannot create a stage
func Patch(base *Config, changes []Change) *Config {
	out := &Config{Engine: base.Engine, Stages: slices.Clone(base.Stages)}
	for _, c := range changes {
		i := slices.IndexFunc(out.Stages, func(st Stage) bool { return st.Name == c.Stage })
		if i < 0 {
			continue
		}
		switch c.Kind {
		case ChangeFrequency:
			out.Stages[i].Frequency = c.Frequency
		case ChangeActivate:
			out.Stages[i].Spare = false
		case ChangeRetire:
			out.Stages[i].Spare = true
		}
	}
	return out
}
