package audio

import (
	"context"
	"io"
	"sync/atomic"
)

// MockDevice replays scripted PCM in place of a microphone. With loop set
// it never runs dry, like a real capture device.
type MockDevice struct {
	pcm    []byte
	loop   bool
	closes atomic.Int32
}

func NewMockDevice(pcm []byte, loop bool) *MockDevice {
	return &MockDevice{pcm: append([]byte(nil), pcm...), loop: loop}
}

// Closes reports how many times a stream from this device was closed.
func (d *MockDevice) Closes() int { return int(d.closes.Load()) }

func (d *MockDevice) Open(_ context.Context) (io.ReadCloser, error) {
	return &mockStream{dev: d}, nil
}

type mockStream struct {
	dev    *MockDevice
	offset int
}

func (s *mockStream) Read(p []byte) (int, error) {
	if len(s.dev.pcm) == 0 {
		return 0, io.EOF
	}
	if s.offset >= len(s.dev.pcm) {
		if !s.dev.loop {
			return 0, io.EOF
		}
		s.offset = 0
	}
	n := copy(p, s.dev.pcm[s.offset:])
	s.offset += n
	return n, nil
}

func (s *mockStream) Close() error {
	s.dev.closes.Add(1)
	return nil
}
