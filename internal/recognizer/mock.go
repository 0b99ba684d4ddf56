package recognizer

import (
	"encoding/binary"
	"strings"
)

// MockConfig shapes the scripted engine: one word of Text per WordSamples
// of loud audio, an endpoint after HangoverSamples of trailing silence.
type MockConfig struct {
	Text            string
	WordSamples     int
	Threshold       int
	HangoverSamples int
}

// MockEngine is a deterministic recognizer for tests and development. Its
// output depends only on the sample stream, never on chunk boundaries:
// samples louder than the threshold advance a word counter, trailing
// silence closes the utterance.
type MockEngine struct {
	cfg MockConfig
}

func NewMockEngine(cfg MockConfig) *MockEngine {
	if cfg.Text == "" {
		cfg.Text = "नमस्ते आप कैसे हैं"
	}
	if cfg.WordSamples <= 0 {
		cfg.WordSamples = 4000
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 500
	}
	if cfg.HangoverSamples <= 0 {
		cfg.HangoverSamples = 3200
	}
	return &MockEngine{cfg: cfg}
}

func (e *MockEngine) NewRecognizer() (Recognizer, error) {
	return &mockRecognizer{
		cfg:   e.cfg,
		words: strings.Fields(e.cfg.Text),
	}, nil
}

func (e *MockEngine) Close() error { return nil }

type mockRecognizer struct {
	cfg        MockConfig
	words      []string
	speech     int
	silenceRun int
	pending    string
}

func (r *mockRecognizer) AcceptWaveform(pcm []byte) (bool, error) {
	endpoint := false
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(pcm[i:])))
		if v < 0 {
			v = -v
		}
		if v >= r.cfg.Threshold {
			r.speech++
			r.silenceRun = 0
		} else {
			r.silenceRun++
			if r.speech > 0 && r.silenceRun == r.cfg.HangoverSamples {
				r.pending = r.currentText()
				r.speech = 0
				endpoint = true
			}
		}
	}
	return endpoint, nil
}

func (r *mockRecognizer) currentText() string {
	k := r.speech / r.cfg.WordSamples
	if k > len(r.words) {
		k = len(r.words)
	}
	return strings.Join(r.words[:k], " ")
}

func (r *mockRecognizer) Result() (string, error) {
	text := r.pending
	r.pending = ""
	return text, nil
}

func (r *mockRecognizer) PartialResult() (string, error) {
	return r.currentText(), nil
}

func (r *mockRecognizer) FinalResult() (string, error) {
	text := r.currentText()
	r.speech = 0
	r.silenceRun = 0
	return text, nil
}

func (r *mockRecognizer) Close() error { return nil }
