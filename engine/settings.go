package engine

import (
	"fmt"
	"sync"
)

// StageInfo is a read-only snapshot of one stage
type StageInfo struct {
	Name      string
	Frequency uint32
	Busy      bool
	Ticks     uint64
}

// Settings is the capability resource through which running callbacks request scheduler changes
//
// The view (busy/spare stages, frame, last results) is a snapshot rebuilt by the App after every
// apply step; it never references the live stage lists. Requests are checked against the view and
// queued; the App re-validates each one when it applies the batch between frames.
// All methods are safe for concurrent use, so read access to *Settings suffices to issue requests
type Settings struct {
	mu      sync.RWMutex
	busy    []StageInfo
	spare   []StageInfo
	frame   uint64
	results []CommandResult

	queue *CommandQueue
}

func newSettings(queue *CommandQueue) *Settings {
	return &Settings{queue: queue}
}

// refresh replaces the view, called by the App only between frames
func (s *Settings) refresh(busy, spare []*Stage, frame uint64, results []CommandResult) {
	b := make([]StageInfo, len(busy))
	for i, st := range busy {
		b[i] = st.info(true)
	}
	sp := make([]StageInfo, len(spare))
	for i, st := range spare {
		sp[i] = st.info(false)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = b
	s.spare = sp
	s.frame = frame
	s.results = results
}

// === View ===

// BusyStages returns the busy stages in execution order
func (s *Settings) BusyStages() []StageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StageInfo, len(s.busy))
	copy(out, s.busy)
	return out
}

// SpareStages returns the spare stages in retirement order
func (s *Settings) SpareStages() []StageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StageInfo, len(s.spare))
	copy(out, s.spare)
	return out
}

// BusyStage looks up a busy stage by name
func (s *Settings) BusyStage(name string) (StageInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.busy, name)
}

// SpareStage looks up a spare stage by name
func (s *Settings) SpareStage(name string) (StageInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.spare, name)
}

// Frame returns the number of completed passes when the view was taken
func (s *Settings) Frame() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// LastResults returns the outcome of every command applied in the previous apply step
func (s *Settings) LastResults() []CommandResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CommandResult, len(s.results))
	copy(out, s.results)
	return out
}

// Pending returns the number of queued, not yet applied commands
func (s *Settings) Pending() int { return s.queue.Len() }

// === Requests ===

// InsertStage queues a brand-new stage built from b
// The builder is copied at call time; later changes to b do not affect the request
func (s *Settings) InsertStage(b *StageBuilder, at Placement) error {
	if b == nil {
		return ErrNilStage
	}

	s.mu.RLock()
	err := s.checkNewNameLocked(b.name)
	if err == nil {
		err = s.checkPlacementLocked(at)
	}
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	s.queue.Push(Command{Kind: CommandInsert, Name: b.name, Placement: at, builder: b.clone()})
	return nil
}

// ActivateStage queues moving a spare stage into the busy set
func (s *Settings) ActivateStage(name string, at Placement) error {
	s.mu.RLock()
	_, ok := find(s.spare, name)
	err := s.checkPlacementLocked(at)
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: no spare stage %q", ErrStageNotFound, name)
	}
	if err != nil {
		return err
	}

	s.queue.Push(Command{Kind: CommandActivate, Name: name, Placement: at})
	return nil
}

// RetireStage queues moving a busy stage into the spare pool
func (s *Settings) RetireStage(name string) error {
	if _, ok := s.BusyStage(name); !ok {
		return fmt.Errorf("%w: no busy stage %q", ErrStageNotFound, name)
	}
	s.queue.Push(Command{Kind: CommandRetire, Name: name})
	return nil
}

// SetStageFrequency queues a frequency change for a busy or spare stage
func (s *Settings) SetStageFrequency(name string, ticks uint32) error {
	s.mu.RLock()
	_, busy := find(s.busy, name)
	_, spare := find(s.spare, name)
	s.mu.RUnlock()

	if !busy && !spare {
		return fmt.Errorf("%w: %q", ErrStageNotFound, name)
	}
	s.queue.Push(Command{Kind: CommandRetime, Name: name, Ticks: ticks})
	return nil
}

// Quit queues application termination after the current pass
func (s *Settings) Quit() {
	s.queue.Push(Command{Kind: CommandQuit})
}

func (s *Settings) checkNewNameLocked(name string) error {
	if _, ok := find(s.busy, name); ok {
		return fmt.Errorf("%w: %q is busy", ErrDuplicateName, name)
	}
	if _, ok := find(s.spare, name); ok {
		return fmt.Errorf("%w: %q is spare", ErrDuplicateName, name)
	}
	return nil
}

func (s *Settings) checkPlacementLocked(at Placement) error {
	if at.kind == placeTail {
		return nil
	}
	if _, ok := find(s.busy, at.ref); !ok {
		return fmt.Errorf("%w: %q", ErrReferenceNotFound, at.ref)
	}
	return nil
}

func find(list []StageInfo, name string) (StageInfo, bool) {
	for _, info := range list {
		if info.Name == name {
			return info, true
		}
	}
	return StageInfo{}, false
}
