package transcribe

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/audio"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/recognizer"
)

type state int

const (
	stateIdle state = iota
	stateActive
	stateStopped
)

// ErrStopped reports a Start on a transcriber whose session already ended.
// Recognizer state is reset only by constructing a fresh transcriber.
var ErrStopped = errors.New("transcriber stopped; create a new one")

// Transcriber drives one session of stateful incremental speech-to-text.
// It owns the recognizer state for its lifetime (Start allocates, Stop
// releases) and folds every update into the session buffer. Not safe for
// concurrent use; exactly one consumer goroutine feeds it.
type Transcriber struct {
	engine recognizer.Engine
	format audio.Format
	buf    *Buffer
	rec    recognizer.Recognizer
	state  state
	log    *slog.Logger
}

// NewTranscriber binds an engine backend and a session buffer. The buffer
// outlives the transcriber: a stopped session's transcript stays readable
// until the caller clears it.
func NewTranscriber(engine recognizer.Engine, format audio.Format, buf *Buffer, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		engine: engine,
		format: format,
		buf:    buf,
		log:    logger,
	}
}

// Start allocates fresh recognizer state bound to the session's sample
// rate and makes the transcriber ready to feed.
func (t *Transcriber) Start() error {
	switch t.state {
	case stateActive:
		return ErrAlreadyActive
	case stateStopped:
		return ErrStopped
	}
	rec, err := t.engine.NewRecognizer()
	if err != nil {
		return fmt.Errorf("allocate recognizer: %w", err)
	}
	t.rec = rec
	t.state = stateActive
	return nil
}

// Feed advances recognizer state by exactly one chunk. Chunks must arrive
// in capture order with no gaps or duplication; endpointing is the
// recognizer's job, independent of where chunk boundaries fall. A
// malformed chunk fails with InvalidChunkError before recognizer state is
// touched; a transient recognizer failure drops the chunk and reports it,
// leaving the session usable.
func (t *Transcriber) Feed(chunk audio.Chunk) (Update, error) {
	if t.state != stateActive {
		return Update{}, ErrNotActive
	}
	if err := t.validate(chunk); err != nil {
		return Update{}, err
	}

	endpoint, err := t.rec.AcceptWaveform(chunk.PCM)
	if err != nil {
		return Update{}, fmt.Errorf("recognizer rejected chunk: %w", err)
	}

	if endpoint {
		text, err := t.rec.Result()
		if err != nil {
			return Update{}, fmt.Errorf("read endpoint result: %w", err)
		}
		update := Update{Kind: KindFinal, Text: text}
		t.buf.Apply(update)
		if text == "" {
			return Update{Kind: KindEmpty}, nil
		}
		return update, nil
	}

	partial, err := t.rec.PartialResult()
	if err != nil {
		return Update{}, fmt.Errorf("read partial result: %w", err)
	}
	if partial == "" && t.buf.Snapshot().Partial == "" {
		return Update{Kind: KindEmpty}, nil
	}
	update := Update{Kind: KindPartial, Text: partial}
	t.buf.Apply(update)
	return update, nil
}

// Stop flushes whatever audio is still buffered into a trailing final,
// even when no natural endpoint fired, then releases recognizer state.
// The returned update is the flush result; its text may be empty.
func (t *Transcriber) Stop() (Update, error) {
	if t.state != stateActive {
		return Update{}, ErrNotActive
	}
	t.state = stateStopped

	text, err := t.rec.FinalResult()
	closeErr := t.rec.Close()
	t.rec = nil
	if err != nil {
		return Update{}, fmt.Errorf("flush final result: %w", err)
	}
	if closeErr != nil {
		t.log.Warn("recognizer close failed", slogError(closeErr))
	}

	update := Update{Kind: KindFinal, Text: text}
	t.buf.Apply(update)
	return update, nil
}

// Buffer exposes the session buffer for snapshot reads.
func (t *Transcriber) Buffer() *Buffer { return t.buf }

func (t *Transcriber) validate(chunk audio.Chunk) error {
	if len(chunk.PCM)%2 != 0 {
		return &InvalidChunkError{Reason: "torn sample: odd PCM byte length"}
	}
	if chunk.Channels != t.format.Channels {
		return &InvalidChunkError{Reason: fmt.Sprintf("channel count %d (want %d)", chunk.Channels, t.format.Channels)}
	}
	if chunk.SampleRate != t.format.SampleRate {
		return &InvalidChunkError{Reason: fmt.Sprintf("sample rate %d (want %d)", chunk.SampleRate, t.format.SampleRate)}
	}
	return nil
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
