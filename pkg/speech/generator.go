// ABOUTME: Generator interface and synthesis conditions
// ABOUTME: Defines the contract encoders pull samples through
package speech

import (
	"fmt"
	"time"
)

// Condition holds the fixed parameters of a synthesis session
type Condition struct {
	SamplingFrequency int // Hz
	Period            int // samples per synthesis step
}

// Validate checks that both parameters are positive
func (c Condition) Validate() error {
	if c.SamplingFrequency <= 0 {
		return fmt.Errorf("invalid sampling frequency: %d", c.SamplingFrequency)
	}
	if c.Period <= 0 {
		return fmt.Errorf("invalid synthesis period: %d", c.Period)
	}
	return nil
}

// StepsPerSecond returns the number of synthesis steps per second
func (c Condition) StepsPerSecond() int {
	return c.SamplingFrequency / c.Period
}

// Duration returns the playback duration of n samples
func (c Condition) Duration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(c.SamplingFrequency)
}

// Generator produces a finite, non-restartable sequence of mono samples
type Generator interface {
	// SamplingFrequency returns the sample rate in Hz
	SamplingFrequency() int

	// Period returns the number of samples per synthesis step
	Period() int

	// Next returns the samples of the next synthesis step, nominally in [-1.0, 1.0].
	// At most Period samples are returned; only the final step may be shorter.
	// ok is false once synthesis has completed.
	Next() (samples []float64, ok bool)
}

// ConditionOf returns the synthesis conditions of a generator
func ConditionOf(gen Generator) Condition {
	return Condition{
		SamplingFrequency: gen.SamplingFrequency(),
		Period:            gen.Period(),
	}
}
