// ABOUTME: Encoder error values
// ABOUTME: Configuration and per-cycle generation errors
package encode

import "errors"

// Configuration errors, returned by New and the backend constructors
var (
	ErrUnsupportedSampleRate = errors.New("unsupported sampling frequency")
	ErrInvalidConfig         = errors.New("invalid encoder configuration")
)

// Generation errors, returned by Generate for the failing cycle only
var (
	ErrFrameSize         = errors.New("pcm chunk does not match codec frame size")
	ErrCodec             = errors.New("codec encode failed")
	ErrPeriodOverflow    = errors.New("synthesis period exceeds chunk capacity")
	ErrConditionMismatch = errors.New("generator does not match encoder conditions")
)
