// Command hindi-vosk transcribes speech in the terminal: live microphone
// capture by default, or one audio file with -file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/artifact"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/config"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/protocol"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/recognizer"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/runtime"
	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/session"
)

func main() {
	var (
		configPath string
		modelPath  string
		filePath   string
		duration   time.Duration
		outPath    string
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&modelPath, "model", "", "Vosk model directory (switches recognizer to vosk mode)")
	flag.StringVar(&filePath, "file", "", "Transcribe this audio file instead of the microphone")
	flag.DurationVar(&duration, "duration", 0, "Stop live capture after this long (0 = until interrupt)")
	flag.StringVar(&outPath, "o", "", "Write the finalized transcript to this file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if modelPath != "" {
		cfg.Recognizer.Mode = "vosk"
		cfg.Recognizer.ModelPath = modelPath
	}
	// The CLI is a plain pipeline consumer: no bus, no dashboard.
	cfg.Bus.Enabled = false
	cfg.Web.Enabled = false

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.Telemetry.LogLevel),
	}))

	engine, err := recognizer.New(cfg.Recognizer, cfg.Audio.SampleRate, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "recognizer:", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exitCode int
	if filePath != "" {
		exitCode = transcribeFile(ctx, cfg, engine, filePath, outPath, logger)
	} else {
		exitCode = transcribeLive(ctx, cfg, engine, duration, outPath, logger)
	}
	os.Exit(exitCode)
}

func transcribeFile(ctx context.Context, cfg config.Config, engine recognizer.Engine, path, outPath string, logger *slog.Logger) int {
	manager := session.NewManager(ctx, cfg, engine, nil, nil, logger)
	defer manager.Close()
	printUpdates(manager)

	snap, elapsed, err := manager.TranscribeFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "transcribe:", err)
		return 1
	}
	fmt.Println()
	fmt.Println(snap.Finalized)
	fmt.Fprintf(os.Stderr, "done in %s\n", elapsed.Round(time.Millisecond))
	return saveTranscript(cfg, snap.Finalized, outPath, logger)
}

func transcribeLive(ctx context.Context, cfg config.Config, engine recognizer.Engine, duration time.Duration, outPath string, logger *slog.Logger) int {
	device, err := runtime.NewCaptureDevice(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "capture:", err)
		return 1
	}

	manager := session.NewManager(ctx, cfg, engine, device, nil, logger)
	defer manager.Close()
	printUpdates(manager)

	if _, err := manager.StartLive(); err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		return 1
	}
	fmt.Fprintln(os.Stderr, "listening… press Ctrl-C to stop")

	if duration > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(duration):
		}
	} else {
		<-ctx.Done()
	}
	_ = manager.StopLive()

	snap := manager.Snapshot()
	fmt.Println()
	fmt.Println(snap.Finalized)
	return saveTranscript(cfg, snap.Finalized, outPath, logger)
}

func printUpdates(manager *session.Manager) {
	manager.Subscribe(func(t protocol.Transcript) {
		if t.Partial {
			fmt.Printf("\r\033[K… %s", t.Text)
			return
		}
		if t.Text != "" {
			fmt.Printf("\r\033[K%s\n", t.Text)
		}
	})
}

func saveTranscript(cfg config.Config, text, outPath string, logger *slog.Logger) int {
	if outPath == "" {
		return 0
	}
	writer := artifact.NewWriter(cfg.Artifact.Dir, logger)
	if err := writer.SaveTo(outPath, text); err != nil {
		fmt.Fprintln(os.Stderr, "save:", err)
		return 1
	}
	return 0
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
