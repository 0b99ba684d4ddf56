package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gorilla/websocket"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/config"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/protocol"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/recognizer"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/session"
)

var browserReport = protocol.BrowserReport{Transcript: "hello from the browser", IsListening: true}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T) (*Server, *session.Manager, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.Bus.Enabled = false
	cfg.Audio.ChunkSamples = 1000
	engine := recognizer.NewMockEngine(recognizer.MockConfig{
		Text:            "नमस्ते आप कैसे हैं",
		WordSamples:     2000,
		HangoverSamples: 1600,
	})
	manager := session.NewManager(context.Background(), cfg, engine, nil, nil, testLogger())
	t.Cleanup(manager.Close)

	s := NewServer(cfg, manager, testLogger())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, manager, ts
}

func writeUtteranceWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "utterance.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	samples := make([]int, 16000)
	for i := 0; i < 8000; i++ {
		samples[i] = 3000
	}
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestDownloadEmptyTranscript(t *testing.T) {
	_, _, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/download")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDownloadServesTimestampedArtifact(t *testing.T) {
	_, manager, ts := newTestServer(t)
	if _, _, err := manager.TranscribeFile(writeUtteranceWAV(t)); err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	resp, err := http.Get(ts.URL + "/download")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "transcript_") || !strings.Contains(disposition, ".txt") {
		t.Fatalf("content disposition = %q", disposition)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != manager.Snapshot().Finalized {
		t.Fatalf("body = %q, want %q", body, manager.Snapshot().Finalized)
	}
}

func TestWebSocketCommands(t *testing.T) {
	_, _, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var state stateMessage
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("initial state: %v", err)
	}
	if state.Type != "state" || state.Live {
		t.Fatalf("unexpected initial state %+v", state)
	}

	if err := conn.WriteJSON(command{Type: "browser_report", Report: &browserReport}); err != nil {
		t.Fatalf("send report: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := conn.ReadJSON(&state); err != nil {
			t.Fatalf("read state: %v", err)
		}
		if state.Browser.Partial == "hello from the browser" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("browser partial never arrived, last state %+v", state)
		}
	}

	if err := conn.WriteJSON(command{Type: "clear"}); err != nil {
		t.Fatalf("send clear: %v", err)
	}
	for {
		if err := conn.ReadJSON(&state); err != nil {
			t.Fatalf("read state: %v", err)
		}
		if state.Browser.Partial == "" && state.Machine.Displayed == "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("clear never applied, last state %+v", state)
		}
	}

	if err := conn.WriteJSON(command{Type: "bogus"}); err != nil {
		t.Fatalf("send bogus: %v", err)
	}
	for {
		if err := conn.ReadJSON(&state); err != nil {
			t.Fatalf("read state: %v", err)
		}
		if state.Error != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("unknown command not reported")
		}
	}
}
