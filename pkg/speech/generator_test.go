// ABOUTME: Tests for sample generators
// ABOUTME: Tests period slicing, tone generation and file decoding errors
package speech

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConditionValidate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr bool
	}{
		{"valid", Condition{SamplingFrequency: 48000, Period: 240}, false},
		{"zero frequency", Condition{SamplingFrequency: 0, Period: 240}, true},
		{"negative period", Condition{SamplingFrequency: 48000, Period: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConditionArithmetic(t *testing.T) {
	cond := Condition{SamplingFrequency: 48000, Period: 240}

	if got := cond.StepsPerSecond(); got != 200 {
		t.Errorf("expected 200 steps per second, got %d", got)
	}
	if got := cond.Duration(960); got != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", got)
	}
}

func TestSliceGenerator(t *testing.T) {
	cond := Condition{SamplingFrequency: 16000, Period: 4}
	samples := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	gen := FromSamples(cond, samples)

	if gen.SamplingFrequency() != 16000 || gen.Period() != 4 {
		t.Fatalf("unexpected condition: %d Hz, period %d", gen.SamplingFrequency(), gen.Period())
	}
	if ConditionOf(gen) != cond {
		t.Errorf("ConditionOf() = %+v, want %+v", ConditionOf(gen), cond)
	}

	wantLens := []int{4, 4, 2}
	for i, want := range wantLens {
		period, ok := gen.Next()
		if !ok {
			t.Fatalf("period %d: generator ended early", i)
		}
		if len(period) != want {
			t.Errorf("period %d: expected %d samples, got %d", i, want, len(period))
		}
	}

	if gen.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", gen.Remaining())
	}
	if _, ok := gen.Next(); ok {
		t.Error("expected generator to be exhausted")
	}
	// Exhaustion is permanent
	if _, ok := gen.Next(); ok {
		t.Error("expected generator to stay exhausted")
	}
}

func TestSliceGeneratorEmpty(t *testing.T) {
	gen := FromSamples(Condition{SamplingFrequency: 16000, Period: 80}, nil)
	if _, ok := gen.Next(); ok {
		t.Error("expected empty generator to be exhausted")
	}
}

func TestToneGenerator(t *testing.T) {
	cond := Condition{SamplingFrequency: 48000, Period: 240}
	gen := NewTone(cond, 440, 10*time.Millisecond)

	if gen.Total() != 480 {
		t.Fatalf("expected 480 samples, got %d", gen.Total())
	}

	var count int
	var peak float64
	for {
		period, ok := gen.Next()
		if !ok {
			break
		}
		if len(period) > cond.Period {
			t.Fatalf("period longer than %d: %d", cond.Period, len(period))
		}
		for _, s := range period {
			peak = math.Max(peak, math.Abs(s))
		}
		count += len(period)
	}

	if count != 480 {
		t.Errorf("expected 480 samples, got %d", count)
	}
	if peak > DefaultToneAmplitude+1e-9 {
		t.Errorf("peak %v exceeds amplitude %v", peak, DefaultToneAmplitude)
	}
	if peak < DefaultToneAmplitude*0.9 {
		t.Errorf("peak %v suspiciously low", peak)
	}
}

func TestToneGeneratorShortFinalPeriod(t *testing.T) {
	cond := Condition{SamplingFrequency: 1000, Period: 30}
	gen := NewTone(cond, 100, 100*time.Millisecond) // 100 samples

	var lens []int
	for {
		period, ok := gen.Next()
		if !ok {
			break
		}
		lens = append(lens, len(period))
	}

	want := []int{30, 30, 30, 10}
	if len(lens) != len(want) {
		t.Fatalf("expected %v, got %v", want, lens)
	}
	for i := range want {
		if lens[i] != want[i] {
			t.Errorf("period %d: expected %d, got %d", i, want[i], lens[i])
		}
	}
}

func TestToneGeneratorAmplitude(t *testing.T) {
	cond := Condition{SamplingFrequency: 8000, Period: 40}
	gen := NewTone(cond, 2000, 5*time.Millisecond)
	gen.SetAmplitude(1.0)

	period, ok := gen.Next()
	if !ok {
		t.Fatal("expected a period")
	}
	// 2kHz at 8kHz: sample 1 is sin(pi/2) = 1
	if math.Abs(period[1]-1.0) > 1e-9 {
		t.Errorf("expected full scale sample, got %v", period[1])
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speech.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Open(path, 240)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported audio format") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mp3"), 240)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOpenInvalidPeriod(t *testing.T) {
	_, err := Open("speech.mp3", 0)
	if err == nil {
		t.Fatal("expected error for zero period")
	}
}

func TestDecodeInvalidData(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x00}, 64)

	if _, err := DecodeFLAC(bytes.NewReader(garbage), 240); err == nil {
		t.Error("DecodeFLAC() expected error for invalid data")
	}
	if _, err := DecodeMP3(bytes.NewReader(nil), 240); err == nil {
		t.Error("DecodeMP3() expected error for empty data")
	}
}

func TestSliceGeneratorResample(t *testing.T) {
	cond := Condition{SamplingFrequency: 8000, Period: 80}
	samples := make([]float64, 800)
	for i := range samples {
		samples[i] = 0.25
	}

	gen := FromSamples(cond, samples).Resample(16000)
	if gen.SamplingFrequency() != 16000 || gen.Period() != 80 {
		t.Fatalf("unexpected condition: %d Hz, period %d", gen.SamplingFrequency(), gen.Period())
	}
	// Linear interpolation stops at the last input sample
	if gen.Len() != 1598 {
		t.Errorf("expected 1598 samples, got %d", gen.Len())
	}

	for {
		period, ok := gen.Next()
		if !ok {
			break
		}
		for _, s := range period {
			if s != 0.25 {
				t.Fatalf("constant signal changed to %f", s)
			}
		}
	}
}

func TestSliceGeneratorResampleSameRate(t *testing.T) {
	cond := Condition{SamplingFrequency: 16000, Period: 160}
	gen := FromSamples(cond, make([]float64, 500))
	gen.Next()

	same := gen.Resample(16000)
	if same.Len() != 340 {
		t.Errorf("expected remaining 340 samples, got %d", same.Len())
	}
}

func TestOpenAtInvalidCondition(t *testing.T) {
	if _, err := OpenAt("speech.flac", Condition{SamplingFrequency: 16000}); err == nil {
		t.Fatal("expected error for zero period")
	}
}
