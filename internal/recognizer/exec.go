package recognizer

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mattn/go-shellwords"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/config"
)

// ExecEngine shells out to an external recognizer command once per
// utterance. The command receives a WAV file path and prints {"text": ...}
// on stdout. Endpointing happens locally with a sample-level energy gate,
// so this mode offers no interim results.
type ExecEngine struct {
	cmd        []string
	modelPath  string
	language   string
	sampleRate int
}

func NewExecEngine(cfg config.RecognizerConfig, sampleRate int) (*ExecEngine, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse recognizer command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("recognizer command is empty")
	}
	if cfg.ModelPath != "" {
		if info, err := os.Stat(cfg.ModelPath); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
		}
	}
	return &ExecEngine{
		cmd:        args,
		modelPath:  cfg.ModelPath,
		language:   cfg.Language,
		sampleRate: sampleRate,
	}, nil
}

func (e *ExecEngine) NewRecognizer() (Recognizer, error) {
	return &execRecognizer{
		engine: e,
		gate:   newEnergyGate(e.sampleRate),
	}, nil
}

func (e *ExecEngine) Close() error { return nil }

type execResult struct {
	Text string `json:"text"`
}

type execRecognizer struct {
	engine    *ExecEngine
	gate      *energyGate
	utterance []byte
	pending   string
}

func (r *execRecognizer) AcceptWaveform(pcm []byte) (bool, error) {
	r.utterance = append(r.utterance, pcm...)
	if !r.gate.feed(pcm) {
		return false, nil
	}
	text, err := r.transcribe(r.utterance)
	r.utterance = r.utterance[:0]
	r.gate.reset()
	if err != nil {
		return false, err
	}
	r.pending = text
	return true, nil
}

func (r *execRecognizer) Result() (string, error) {
	text := r.pending
	r.pending = ""
	return text, nil
}

func (r *execRecognizer) PartialResult() (string, error) {
	return "", nil
}

func (r *execRecognizer) FinalResult() (string, error) {
	if !r.gate.sawSpeech() {
		r.utterance = r.utterance[:0]
		return "", nil
	}
	text, err := r.transcribe(r.utterance)
	r.utterance = r.utterance[:0]
	r.gate.reset()
	return text, err
}

func (r *execRecognizer) Close() error {
	r.utterance = nil
	return nil
}

func (r *execRecognizer) transcribe(pcm []byte) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}
	file, err := os.CreateTemp("", "hindivosk_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := writePCMToWav(file, pcm, r.engine.sampleRate, 1); err != nil {
		return "", err
	}

	args := append([]string{}, r.engine.cmd...)
	base := args[0]
	cmdArgs := args[1:]
	cmdArgs = append(cmdArgs, "--audio", file.Name())
	if r.engine.modelPath != "" {
		cmdArgs = append(cmdArgs, "--model", r.engine.modelPath)
	}
	if r.engine.language != "" {
		cmdArgs = append(cmdArgs, "--language", r.engine.language)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	command := exec.CommandContext(ctx, base, cmdArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("recognizer command failed: %w: %s", err, stderr.String())
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("decode recognizer response: %w", err)
	}
	return resp.Text, nil
}

func writePCMToWav(file *os.File, pcm []byte, sampleRate int, channels int) error {
	if len(pcm)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}
	buffer := &audio.IntBuffer{Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate}}
	samples := make([]int, len(pcm)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buffer.Data = samples

	enc := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// energyGate tracks speech activity at sample granularity so endpoint
// decisions do not depend on how the stream was chunked.
type energyGate struct {
	threshold   int
	hangSamples int
	speech      int
	silenceRun  int
}

func newEnergyGate(sampleRate int) *energyGate {
	return &energyGate{
		threshold:   500,
		hangSamples: sampleRate * 6 / 10,
	}
}

// feed consumes one chunk of little-endian int16 PCM and reports whether an
// utterance just ended.
func (g *energyGate) feed(pcm []byte) bool {
	endpoint := false
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(pcm[i:])))
		if v < 0 {
			v = -v
		}
		if v >= g.threshold {
			g.speech++
			g.silenceRun = 0
		} else {
			g.silenceRun++
			if g.speech > 0 && g.silenceRun == g.hangSamples {
				endpoint = true
			}
		}
	}
	return endpoint
}

func (g *energyGate) sawSpeech() bool { return g.speech > 0 }

func (g *energyGate) reset() {
	g.speech = 0
	g.silenceRun = 0
}
