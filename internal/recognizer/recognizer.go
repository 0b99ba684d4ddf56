package recognizer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/config"
)

// ErrModelNotFound reports a recognizer model directory that does not exist.
var ErrModelNotFound = errors.New("model directory not found")

// Recognizer is one session's stateful incremental engine. Audio is handed
// over in arrival order with no gaps or duplication; the engine segments
// speech into endpoints on its own, independent of chunk boundaries.
//
// AcceptWaveform reports whether the audio so far completed an endpoint;
// Result then yields the committed text for that utterance. PartialResult
// yields tentative text since the last endpoint. FinalResult flushes
// whatever audio is still buffered, endpoint or not.
type Recognizer interface {
	AcceptWaveform(pcm []byte) (bool, error)
	Result() (string, error)
	PartialResult() (string, error)
	FinalResult() (string, error)
	Close() error
}

// Engine builds one fresh Recognizer per session. Recognizer state is never
// shared across sessions.
type Engine interface {
	NewRecognizer() (Recognizer, error)
	Close() error
}

// New selects an engine backend by mode.
func New(cfg config.RecognizerConfig, sampleRate int, logger *slog.Logger) (Engine, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockEngine(MockConfig{
			Text:        cfg.MockText,
			WordSamples: cfg.MockWordSamples,
		}), nil
	case "exec":
		return NewExecEngine(cfg, sampleRate)
	case "vosk":
		return NewVoskEngine(cfg.ModelPath, sampleRate, logger)
	default:
		return nil, fmt.Errorf("unknown recognizer mode %q", cfg.Mode)
	}
}
