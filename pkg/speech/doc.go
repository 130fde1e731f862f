// ABOUTME: Sample generator package for synthesized speech
// ABOUTME: Provides the Generator interface and tone, slice and file-backed generators
// Package speech models the synthesis engine side of the encoding pipeline.
//
// A Generator yields mono float samples one synthesis period at a time, at a
// fixed sampling frequency, until synthesis completes. Encoders in
// pkg/audio/encode pull from a Generator on every Generate call.
//
// Implementations provided here stand in for a real synthesis engine:
//   - Tone: finite sine wave
//   - FromSamples: pre-rendered samples held in memory
//   - DecodeMP3 / DecodeFLAC / Open: pre-rendered speech read from files
//
// Example:
//
//	gen := speech.NewTone(speech.Condition{SamplingFrequency: 48000, Period: 240}, 440, time.Second)
//	for {
//	    period, ok := gen.Next()
//	    if !ok {
//	        break
//	    }
//	    process(period)
//	}
package speech
