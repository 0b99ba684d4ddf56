package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeWAV(t *testing.T, path string, rate, bitDepth, channels int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func constSamples(n, value int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestFileSourceChunking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	writeWAV(t, path, 16000, 16, 1, constSamples(10000, 1000))

	format := Format{SampleRate: 16000, Channels: 1, ChunkSamples: 4000}
	src, err := NewFileSource(path, format, false, newLogger())
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	sizes := []int{4000, 4000, 2000}
	for i, want := range sizes {
		chunk, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		if chunk.Samples() != want {
			t.Fatalf("chunk %d: expected %d samples, got %d", i, want, chunk.Samples())
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := src.Next(context.Background()); !errors.Is(err, ErrEndOfStream) {
			t.Fatalf("expected permanent end of stream, got %v", err)
		}
	}
}

func TestFileSourceStrictFormat(t *testing.T) {
	format := Format{SampleRate: 16000, Channels: 1, ChunkSamples: 4000}
	cases := []struct {
		name     string
		rate     int
		depth    int
		channels int
		property string
	}{
		{"wrong rate", 44100, 16, 1, PropSampleRate},
		{"stereo", 16000, 16, 2, PropChannelCount},
		{"wide samples", 16000, 24, 1, PropSampleWidth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "in.wav")
			n := 1600 * tc.channels
			writeWAV(t, path, tc.rate, tc.depth, tc.channels, constSamples(n, 1000))

			_, err := NewFileSource(path, format, false, newLogger())
			var ufe *UnsupportedFormatError
			if !errors.As(err, &ufe) {
				t.Fatalf("expected UnsupportedFormatError, got %v", err)
			}
			if ufe.Property != tc.property {
				t.Fatalf("expected property %q, got %q", tc.property, ufe.Property)
			}
			if !strings.Contains(err.Error(), tc.property) {
				t.Fatalf("error must name the property, got %q", err.Error())
			}
		})
	}
}

func TestFileSourceNormalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo8k.wav")
	samples := make([]int, 8000)
	for i := 0; i < len(samples); i += 2 {
		samples[i] = 1000
		samples[i+1] = 3000
	}
	writeWAV(t, path, 8000, 16, 2, samples)

	format := Format{SampleRate: 16000, Channels: 1, ChunkSamples: 4000}
	src, err := NewFileSource(path, format, true, newLogger())
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	if got := src.TotalSamples(); got != 8000 {
		t.Fatalf("expected 8000 samples after remix and resample, got %d", got)
	}
	chunk, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if v := int16(binary.LittleEndian.Uint16(chunk.PCM)); v != 2000 {
		t.Fatalf("expected remixed sample 2000, got %d", v)
	}
}

func TestFileSourceRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	if err := os.WriteFile(path, []byte("plain text"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	format := Format{SampleRate: 16000, Channels: 1, ChunkSamples: 4000}
	if _, err := NewFileSource(path, format, true, newLogger()); err == nil {
		t.Fatal("expected error for non-wav input")
	}
}
