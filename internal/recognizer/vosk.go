//go:build cgo

package recognizer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	vosk "github.com/alphacep/vosk-api/go"
)

// VoskEngine loads a Kaldi acoustic model once and hands out one native
// recognizer per session.
type VoskEngine struct {
	model      *vosk.VoskModel
	sampleRate int
	log        *slog.Logger
}

func NewVoskEngine(modelPath string, sampleRate int, logger *slog.Logger) (*VoskEngine, error) {
	info, err := os.Stat(modelPath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	}
	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load vosk model: %w", err)
	}
	logger.Info("vosk model loaded",
		slog.String("path", modelPath),
		slog.Int("sample_rate", sampleRate))
	return &VoskEngine{model: model, sampleRate: sampleRate, log: logger}, nil
}

func (e *VoskEngine) NewRecognizer() (Recognizer, error) {
	rec, err := vosk.NewRecognizer(e.model, float64(e.sampleRate))
	if err != nil {
		return nil, fmt.Errorf("create vosk recognizer: %w", err)
	}
	return &voskRecognizer{rec: rec}, nil
}

func (e *VoskEngine) Close() error {
	e.model.Free()
	return nil
}

type voskRecognizer struct {
	rec *vosk.VoskRecognizer
}

type voskPayload struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

func (r *voskRecognizer) AcceptWaveform(pcm []byte) (bool, error) {
	return r.rec.AcceptWaveform(pcm) != 0, nil
}

func (r *voskRecognizer) Result() (string, error) {
	return parseVoskText(r.rec.Result())
}

func (r *voskRecognizer) PartialResult() (string, error) {
	return parseVoskText(r.rec.PartialResult())
}

func (r *voskRecognizer) FinalResult() (string, error) {
	return parseVoskText(r.rec.FinalResult())
}

func (r *voskRecognizer) Close() error {
	r.rec.Free()
	return nil
}

func parseVoskText(raw string) (string, error) {
	var payload voskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("decode recognizer result: %w", err)
	}
	if payload.Text != "" {
		return payload.Text, nil
	}
	return payload.Partial, nil
}
