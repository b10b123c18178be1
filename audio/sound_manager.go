// Package audio plays short synthesized cues through the beep speaker
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(48000)

	clickFreq  = 1000.0
	accentFreq = 1500.0
	clickLen   = 40 * time.Millisecond
	toneLen    = 120 * time.Millisecond
)

// Player is the cue surface used by callbacks; Silent satisfies it without a device
type Player interface {
	PlayClick(accent bool)
	PlayTone(freq float64)
}

// Silent discards every cue
type Silent struct{}

func (Silent) PlayClick(bool)   {}
func (Silent) PlayTone(float64) {}

// SoundManager mixes cues into one speaker stream
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	played      int
}

// NewSoundManager creates a new sound manager
func NewSoundManager() *SoundManager {
	return &SoundManager{
		mixer: &beep.Mixer{},
	}
}

// Initialize opens the speaker with a 100ms buffer and starts the mixer
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}

	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Cleanup clears pending cues and closes the speaker
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	speaker.Lock()
	sm.mixer.Clear()
	speaker.Unlock()

	speaker.Close()
	sm.initialized = false
}

// PlayClick queues a metronome click; accented clicks are higher pitched
func (sm *SoundManager) PlayClick(accent bool) {
	freq := clickFreq
	if accent {
		freq = accentFreq
	}
	sm.add(beep.Take(sampleRate.N(clickLen), NewClickGenerator(sampleRate, freq)))
}

// PlayTone queues a short plain sine tone
func (sm *SoundManager) PlayTone(freq float64) {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	sm.add(beep.Take(sampleRate.N(toneLen), sine))
}

// Played returns the number of cues queued since creation
func (sm *SoundManager) Played() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.played
}

func (sm *SoundManager) add(s beep.Streamer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	speaker.Lock()
	sm.mixer.Add(s)
	speaker.Unlock()
	sm.played++
}
