package audio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const bytesPerSample = 2

// Format fixes the PCM shape of one transcription session: mono
// little-endian int16 samples at a fixed rate, pulled in fixed-size chunks.
type Format struct {
	SampleRate   int
	Channels     int
	ChunkSamples int
}

func (f Format) ChunkBytes() int { return f.ChunkSamples * bytesPerSample }

// Chunk is one slice of raw samples, the unit of work fed to the
// recognizer. Only the last chunk of a stream may be shorter than the
// nominal size.
type Chunk struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

func (c Chunk) Samples() int { return len(c.PCM) / bytesPerSample }

func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Samples()) * time.Second / time.Duration(c.SampleRate)
}

// ErrEndOfStream reports source exhaustion (file mode) or session
// cancellation (live mode). It is the normal way a stream ends.
var ErrEndOfStream = errors.New("end of audio stream")

// ErrDeviceUnavailable reports that no capture device could be claimed.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// Properties named by UnsupportedFormatError.
const (
	PropChannelCount = "channel count"
	PropSampleWidth  = "sample width"
	PropSampleRate   = "sample rate"
)

// UnsupportedFormatError names the one property of an input file that does
// not match the required PCM format.
type UnsupportedFormatError struct {
	Property string
	Want     int
	Got      int
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s %d (want %d)", e.Property, e.Got, e.Want)
}

// Source produces the chunk stream of one session.
type Source interface {
	// Next blocks until a chunk is available or the stream ends. A live
	// source returns ErrEndOfStream on cancellation rather than a context
	// error; a file source never blocks.
	Next(ctx context.Context) (Chunk, error)
	// Finite reports whether the stream is a replay-free pre-decoded
	// buffer. A malformed chunk from a finite source means nothing further
	// can be salvaged.
	Finite() bool
	Close() error
}
