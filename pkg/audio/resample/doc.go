// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded speech between sample rates
// Package resample provides sample rate conversion for mono float audio.
//
// Uses linear interpolation, which is adequate for speech band signals.
// A Resampler keeps its read position between calls so a stream can be
// converted piecewise.
//
// Example:
//
//	r := resample.New(44100, 48000)
//	out := r.Resample(samples, nil)
package resample
