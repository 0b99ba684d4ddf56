package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// FileSource serves sequential fixed-size slices of a fully decoded WAV
// buffer. Decoding and any normalization happen at open time; Next never
// blocks and never fails except to report exhaustion.
type FileSource struct {
	pcm    []byte
	offset int
	format Format
}

// NewFileSource decodes path up front. With normalize set, multi-channel
// audio is remixed to mono, other bit depths are rescaled to 16-bit and
// the rate is converted to the target before iteration begins; otherwise
// the file must already match the required format exactly and the first
// mismatched property is reported.
func NewFileSource(path string, format Format, normalize bool, logger *slog.Logger) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a RIFF/WAV file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	srcRate := int(dec.SampleRate)
	srcChannels := int(dec.NumChans)
	srcDepth := int(dec.BitDepth)

	samples := buf.Data
	if normalize {
		samples = rescaleWidth(samples, srcDepth)
		samples = remixMono(samples, srcChannels)
		samples = resampleLinear(samples, srcRate, format.SampleRate)
	} else {
		if srcChannels != format.Channels {
			return nil, &UnsupportedFormatError{Property: PropChannelCount, Want: format.Channels, Got: srcChannels}
		}
		if srcDepth != 16 {
			return nil, &UnsupportedFormatError{Property: PropSampleWidth, Want: 16, Got: srcDepth}
		}
		if srcRate != format.SampleRate {
			return nil, &UnsupportedFormatError{Property: PropSampleRate, Want: format.SampleRate, Got: srcRate}
		}
	}

	logger.Debug("audio file decoded",
		slog.String("path", path),
		slog.Int("samples", len(samples)),
		slog.Bool("normalized", normalize))

	return &FileSource{pcm: encodePCM(samples), format: format}, nil
}

func (s *FileSource) Next(_ context.Context) (Chunk, error) {
	if s.offset >= len(s.pcm) {
		return Chunk{}, ErrEndOfStream
	}
	end := s.offset + s.format.ChunkBytes()
	if end > len(s.pcm) {
		end = len(s.pcm)
	}
	chunk := Chunk{
		PCM:        s.pcm[s.offset:end],
		SampleRate: s.format.SampleRate,
		Channels:   s.format.Channels,
	}
	s.offset = end
	return chunk, nil
}

func (s *FileSource) Finite() bool { return true }

func (s *FileSource) Close() error { return nil }

func (s *FileSource) TotalSamples() int { return len(s.pcm) / bytesPerSample }

func (s *FileSource) Duration() time.Duration {
	if s.format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(s.TotalSamples()) * time.Second / time.Duration(s.format.SampleRate)
}

func encodePCM(samples []int) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, v := range samples {
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
