package audio

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// LiveSource pumps a capture device into a bounded FIFO queue from its own
// goroutine. The queue is the only state shared between the capture side
// and the consumer; chunks come out exactly in capture order.
type LiveSource struct {
	format      Format
	stream      io.ReadCloser
	chunks      chan Chunk
	cancel      context.CancelFunc
	closeStream sync.Once
	wg          sync.WaitGroup
	log         *slog.Logger
}

// NewLiveSource claims the device and starts the capture pump. The device
// is released exactly once, on Close or when the pump stops, whichever
// comes first.
func NewLiveSource(ctx context.Context, dev Device, format Format, queueChunks int, logger *slog.Logger) (*LiveSource, error) {
	if queueChunks <= 0 {
		queueChunks = 64
	}
	pumpCtx, cancel := context.WithCancel(ctx)
	stream, err := dev.Open(pumpCtx)
	if err != nil {
		cancel()
		return nil, err
	}
	s := &LiveSource{
		format: format,
		stream: stream,
		chunks: make(chan Chunk, queueChunks),
		cancel: cancel,
		log:    logger,
	}
	s.wg.Add(1)
	go s.pump(pumpCtx)
	return s, nil
}

func (s *LiveSource) pump(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.chunks)
	defer s.releaseStream()

	chunkBytes := s.format.ChunkBytes()
	for {
		if ctx.Err() != nil {
			return
		}
		buf := make([]byte, chunkBytes)
		n, err := io.ReadFull(s.stream, buf)
		if n > 0 {
			chunk := Chunk{PCM: buf[:n], SampleRate: s.format.SampleRate, Channels: s.format.Channels}
			select {
			case s.chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF && ctx.Err() == nil {
				s.log.Warn("capture read failed", slogError(err))
			}
			return
		}
	}
}

func (s *LiveSource) releaseStream() {
	s.closeStream.Do(func() {
		_ = s.stream.Close()
	})
}

// Next blocks until a chunk is available. Cancellation and device
// exhaustion both surface as ErrEndOfStream, never as a raised error.
func (s *LiveSource) Next(ctx context.Context) (Chunk, error) {
	select {
	case <-ctx.Done():
		return Chunk{}, ErrEndOfStream
	case chunk, ok := <-s.chunks:
		if !ok {
			return Chunk{}, ErrEndOfStream
		}
		return chunk, nil
	}
}

func (s *LiveSource) Finite() bool { return false }

// Depth reports how many captured chunks are waiting in the queue.
func (s *LiveSource) Depth() int { return len(s.chunks) }

// Close stops the pump and releases the capture device. Safe to call more
// than once.
func (s *LiveSource) Close() error {
	s.cancel()
	s.releaseStream()
	s.wg.Wait()
	return nil
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
