// ABOUTME: Audio encoder package for turning synthesized speech into byte buffers
// ABOUTME: Provides the Encoder facade with raw PCM16 and Opus backends
// Package encode provides the speech encoding pipeline.
//
// Supports: raw PCM (16-bit little-endian), Opus
//
// Every backend pulls mono float samples from a speech.Generator, converts
// them to int16 in a reusable PCM stage, and returns one encoded buffer per
// Generate call. The Opus backend derives its chunk size so that each call
// produces exactly one 20ms frame.
//
// Example:
//
//	cond := speech.Condition{SamplingFrequency: 48000, Period: 240}
//	encoder, err := encode.New(cond, encode.Config{Type: encode.TypeOpus})
//	for {
//	    packet, err := encoder.Generate(gen)
//	    if err == io.EOF {
//	        break
//	    }
//	}
package encode
