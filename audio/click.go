package audio

import (
	"math"

	"github.com/gopxl/beep"
)

// ClickGenerator produces a sine burst with a fast exponential decay
// Infinite on its own; wrap with beep.Take to bound it
type ClickGenerator struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

// NewClickGenerator creates a click generator at freq Hz
func NewClickGenerator(sr beep.SampleRate, freq float64) *ClickGenerator {
	return &ClickGenerator{sr: sr, freq: freq}
}

func (g *ClickGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		// 2ms attack avoids a pop at the start
		attack := math.Min(t/0.002, 1.0)
		envelope := attack * math.Exp(-t*60)
		sample := 0.3 * envelope * math.Sin(2*math.Pi*g.freq*t)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ClickGenerator) Err() error {
	return nil
}
