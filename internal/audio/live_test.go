package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func livePCM(chunks, chunkSamples int) []byte {
	// Each sample carries its chunk index so ordering is checkable.
	buf := make([]byte, 0, chunks*chunkSamples*2)
	for c := 0; c < chunks; c++ {
		for s := 0; s < chunkSamples; s++ {
			var sample [2]byte
			binary.LittleEndian.PutUint16(sample[:], uint16(int16(c)))
			buf = append(buf, sample[:]...)
		}
	}
	return buf
}

func TestLiveSourcePreservesCaptureOrder(t *testing.T) {
	format := Format{SampleRate: 16000, Channels: 1, ChunkSamples: 100}
	device := NewMockDevice(livePCM(10, 100), false)

	src, err := NewLiveSource(context.Background(), device, format, 16, newLogger())
	if err != nil {
		t.Fatalf("open live source: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for want := 0; want < 10; want++ {
		chunk, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("chunk %d: %v", want, err)
		}
		if got := int(int16(binary.LittleEndian.Uint16(chunk.PCM))); got != want {
			t.Fatalf("chunk out of order: got marker %d, want %d", got, want)
		}
	}
	if _, err := src.Next(ctx); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected end of stream after device ran dry, got %v", err)
	}
}

func TestLiveSourceCancellationEndsStream(t *testing.T) {
	format := Format{SampleRate: 16000, Channels: 1, ChunkSamples: 100}
	device := NewMockDevice(livePCM(4, 100), true)

	src, err := NewLiveSource(context.Background(), device, format, 4, newLogger())
	if err != nil {
		t.Fatalf("open live source: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("cancellation must surface as end of stream, got %v", err)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if device.Closes() != 1 {
		t.Fatalf("device closed %d times, want exactly 1", device.Closes())
	}
}

func TestLiveSourceDeviceUnavailable(t *testing.T) {
	dev, err := NewExecDevice("definitely-not-a-capture-binary-xyz --raw", newLogger())
	if err != nil {
		t.Fatalf("new exec device: %v", err)
	}
	_, err = NewLiveSource(context.Background(), dev, Format{SampleRate: 16000, Channels: 1, ChunkSamples: 100}, 4, newLogger())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}
