//go:build !cgo

package recognizer

import (
	"errors"
	"log/slog"
)

// VoskEngine requires the cgo vosk-api binding; this stub stands in when
// the binary is built with CGO_ENABLED=0.
type VoskEngine struct{}

func NewVoskEngine(modelPath string, sampleRate int, logger *slog.Logger) (*VoskEngine, error) {
	return nil, errors.New("vosk recognizer requires a cgo build (CGO_ENABLED=1) with libvosk installed")
}

func (e *VoskEngine) NewRecognizer() (Recognizer, error) {
	return nil, errors.New("vosk recognizer requires a cgo build (CGO_ENABLED=1) with libvosk installed")
}

func (e *VoskEngine) Close() error { return nil }
