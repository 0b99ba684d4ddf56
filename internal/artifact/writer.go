// Package artifact turns a finalized transcript into the downloadable
// plain-text file the demo surfaces offer.
package artifact

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrEmptyTranscript reports that there is nothing to save. An empty
// session produces no artifact.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Writer saves transcripts under a fixed directory with timestamped
// names. The clock is injectable for tests.
type Writer struct {
	dir   string
	clock func() time.Time
	log   *slog.Logger
}

func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, clock: time.Now, log: logger}
}

// Filename names one transcript artifact: transcript_YYYYMMDD_HHMMSS.txt.
func Filename(now time.Time) string {
	return "transcript_" + now.Format("20060102_150405") + ".txt"
}

// Save writes text to a fresh timestamped file and returns its path.
func (w *Writer) Save(text string) (string, error) {
	if text == "" {
		return "", ErrEmptyTranscript
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(w.dir, Filename(w.clock()))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	w.log.Info("transcript saved", slog.String("path", path), slog.Int("bytes", len(text)))
	return path, nil
}

// SaveTo writes text to an explicit path, for the CLI's -o flag.
func (w *Writer) SaveTo(path, text string) error {
	if text == "" {
		return ErrEmptyTranscript
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	w.log.Info("transcript saved", slog.String("path", path), slog.Int("bytes", len(text)))
	return nil
}
