// ABOUTME: Slice-backed sample generator
// ABOUTME: Replays pre-rendered samples one synthesis period at a time
package speech

import "github.com/Resonate-Protocol/speechenc/pkg/audio/resample"

// SliceGenerator yields periods from an in-memory sample buffer
type SliceGenerator struct {
	cond    Condition
	samples []float64
	pos     int
}

// FromSamples creates a generator over samples.
// The final period is short when len(samples) is not a multiple of the period.
func FromSamples(cond Condition, samples []float64) *SliceGenerator {
	return &SliceGenerator{
		cond:    cond,
		samples: samples,
	}
}

func (g *SliceGenerator) SamplingFrequency() int { return g.cond.SamplingFrequency }
func (g *SliceGenerator) Period() int            { return g.cond.Period }

func (g *SliceGenerator) Next() ([]float64, bool) {
	if g.pos >= len(g.samples) {
		return nil, false
	}
	end := min(g.pos+g.cond.Period, len(g.samples))
	period := g.samples[g.pos:end]
	g.pos = end
	return period, true
}

// Remaining returns the number of samples not yet yielded
func (g *SliceGenerator) Remaining() int {
	return len(g.samples) - g.pos
}

// Len returns the total number of samples
func (g *SliceGenerator) Len() int {
	return len(g.samples)
}

// Resample returns a generator over the same samples converted to samplingFrequency.
// Samples already yielded are dropped.
func (g *SliceGenerator) Resample(samplingFrequency int) *SliceGenerator {
	cond := Condition{SamplingFrequency: samplingFrequency, Period: g.cond.Period}
	remaining := g.samples[g.pos:]
	if samplingFrequency == g.cond.SamplingFrequency {
		return FromSamples(cond, remaining)
	}
	return FromSamples(cond, resample.Samples(remaining, g.cond.SamplingFrequency, samplingFrequency))
}
