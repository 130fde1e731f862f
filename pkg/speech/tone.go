// ABOUTME: Test tone generator
// ABOUTME: Generates a finite sine wave as a stand-in for a synthesis engine
package speech

import (
	"math"
	"time"
)

// DefaultToneAmplitude keeps the tone at 50% volume to avoid clipping
const DefaultToneAmplitude = 0.5

// ToneGenerator generates a sine wave one period at a time
type ToneGenerator struct {
	cond        Condition
	frequency   float64
	amplitude   float64
	sampleIndex int
	total       int
	buf         []float64
}

// NewTone creates a tone generator producing duration worth of samples
func NewTone(cond Condition, frequency float64, duration time.Duration) *ToneGenerator {
	total := int(int64(cond.SamplingFrequency) * int64(duration) / int64(time.Second))

	return &ToneGenerator{
		cond:      cond,
		frequency: frequency,
		amplitude: DefaultToneAmplitude,
		total:     total,
		buf:       make([]float64, max(cond.Period, 0)),
	}
}

// SetAmplitude changes the peak amplitude (1.0 = full scale)
func (g *ToneGenerator) SetAmplitude(amplitude float64) {
	g.amplitude = amplitude
}

func (g *ToneGenerator) SamplingFrequency() int { return g.cond.SamplingFrequency }
func (g *ToneGenerator) Period() int            { return g.cond.Period }

// Next returns the next period. The returned slice is reused by later calls.
func (g *ToneGenerator) Next() ([]float64, bool) {
	if g.sampleIndex >= g.total {
		return nil, false
	}

	n := min(g.cond.Period, g.total-g.sampleIndex)
	for i := 0; i < n; i++ {
		t := float64(g.sampleIndex+i) / float64(g.cond.SamplingFrequency)
		g.buf[i] = g.amplitude * math.Sin(2*math.Pi*g.frequency*t)
	}
	g.sampleIndex += n

	return g.buf[:n], true
}

// Total returns the number of samples the tone will produce
func (g *ToneGenerator) Total() int {
	return g.total
}
