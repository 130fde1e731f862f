// ABOUTME: Linear interpolation resampler for mono float audio
// ABOUTME: Converts decoded speech to the synthesis sampling frequency
package resample

// Resampler converts a mono float stream between sample rates.
// State carries across calls so a stream may be fed in pieces.
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
	position   float64 // read position relative to the start of the next input
	last       float64 // final sample of the previous input
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample appends the resampled form of input to output and returns it
func (r *Resampler) Resample(input, output []float64) []float64 {
	if len(input) == 0 {
		return output
	}
	if r.inputRate == r.outputRate {
		return append(output, input...)
	}

	// at returns input sample i, where -1 is the previous call's last sample
	at := func(i int) float64 {
		if i < 0 {
			return r.last
		}
		return input[i]
	}

	start := 0.0
	if r.primed {
		start = -1
	}
	pos := r.position + start

	for {
		idx := int(pos)
		if pos < 0 {
			idx = -1
		}
		if idx+1 >= len(input) {
			break
		}
		frac := pos - float64(idx)
		output = append(output, at(idx)*(1-frac)+at(idx+1)*frac)
		pos += r.ratio
	}

	// Keep the position relative to the last input sample for the next call
	r.position = pos - float64(len(input)-1)
	r.last = input[len(input)-1]
	r.primed = true

	return output
}

// Reset clears carried state
func (r *Resampler) Reset() {
	r.position = 0
	r.last = 0
	r.primed = false
}

// OutputSamplesNeeded estimates the output length for n input samples
func (r *Resampler) OutputSamplesNeeded(n int) int {
	return int(float64(n) / r.ratio)
}

// Samples resamples a whole buffer in one call
func Samples(samples []float64, inputRate, outputRate int) []float64 {
	r := New(inputRate, outputRate)
	return r.Resample(samples, make([]float64, 0, r.OutputSamplesNeeded(len(samples))+1))
}
