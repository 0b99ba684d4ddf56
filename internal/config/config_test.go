package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected default sample rate 16000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ChunkSamples != 4000 {
		t.Fatalf("expected default chunk size 4000, got %d", cfg.Audio.ChunkSamples)
	}
	if cfg.Recognizer.Mode != "mock" {
		t.Fatalf("expected default recognizer mode mock, got %s", cfg.Recognizer.Mode)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
}

func TestLoadFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "hindi-vosk.yaml")
	data := []byte(`
audio:
  chunk_samples: 8000
  capture_mode: mock
recognizer:
  mode: vosk
  model_path: ./models/vosk-model-small-hi-0.22
file:
  normalize: false
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.ChunkSamples != 8000 {
		t.Fatalf("expected chunk size 8000, got %d", cfg.Audio.ChunkSamples)
	}
	if cfg.Recognizer.Mode != "vosk" {
		t.Fatalf("expected recognizer mode vosk, got %s", cfg.Recognizer.Mode)
	}
	if cfg.Recognizer.ModelPath != "./models/vosk-model-small-hi-0.22" {
		t.Fatalf("expected model path override, got %s", cfg.Recognizer.ModelPath)
	}
	if cfg.File.Normalize {
		t.Fatal("expected normalize disabled")
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected untouched default sample rate, got %d", cfg.Audio.SampleRate)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HINDIVOSK_AUDIO_SAMPLE_RATE", "8000")
	t.Setenv("HINDIVOSK_AUDIO_CHUNK_SAMPLES", "2000")
	t.Setenv("HINDIVOSK_AUDIO_CAPTURE_MODE", "mock")
	t.Setenv("HINDIVOSK_RECOGNIZER_MODE", "exec")
	t.Setenv("HINDIVOSK_RECOGNIZER_COMMAND", "whisper-cli --json")
	t.Setenv("HINDIVOSK_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("HINDIVOSK_BUS_EMBEDDED", "false")
	t.Setenv("HINDIVOSK_WEB_ENABLED", "false")
	t.Setenv("HINDIVOSK_ARTIFACT_DIR", "./transcripts")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audio.SampleRate != 8000 {
		t.Fatalf("expected sample rate 8000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ChunkSamples != 2000 {
		t.Fatalf("expected chunk size 2000, got %d", cfg.Audio.ChunkSamples)
	}
	if cfg.Recognizer.Mode != "exec" {
		t.Fatalf("expected recognizer mode exec, got %s", cfg.Recognizer.Mode)
	}
	if cfg.Recognizer.Command != "whisper-cli --json" {
		t.Fatalf("expected command override, got %s", cfg.Recognizer.Command)
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Embedded {
		t.Fatal("expected embedded mode disabled")
	}
	if cfg.Web.Enabled {
		t.Fatal("expected web disabled")
	}
	if cfg.Artifact.Dir != "./transcripts" {
		t.Fatalf("expected artifact dir override, got %s", cfg.Artifact.Dir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"stereo", map[string]string{"HINDIVOSK_AUDIO_CHANNELS": "2"}},
		{"zero chunk", map[string]string{"HINDIVOSK_AUDIO_CHUNK_SAMPLES": "0"}},
		{"bad capture mode", map[string]string{"HINDIVOSK_AUDIO_CAPTURE_MODE": "portaudio"}},
		{"bad recognizer mode", map[string]string{"HINDIVOSK_RECOGNIZER_MODE": "cloud"}},
		{"vosk without model", map[string]string{"HINDIVOSK_RECOGNIZER_MODE": "vosk"}},
		{"exec without command", map[string]string{"HINDIVOSK_RECOGNIZER_MODE": "exec"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
