package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/mattn/go-shellwords"
)

// ExecDevice claims the system microphone by spawning a capture command
// (arecord, sox, ffmpeg) that writes raw PCM to stdout.
type ExecDevice struct {
	cmd []string
	log *slog.Logger
}

func NewExecDevice(command string, logger *slog.Logger) (*ExecDevice, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse capture command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("capture command is empty")
	}
	return &ExecDevice{cmd: args, log: logger}, nil
}

func (d *ExecDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, d.cmd[0], d.cmd[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	d.log.Info("capture device claimed", slog.String("command", d.cmd[0]))
	return &execStream{cmd: cmd, out: stdout, log: d.log}, nil
}

type execStream struct {
	cmd *exec.Cmd
	out io.ReadCloser
	log *slog.Logger
}

func (s *execStream) Read(p []byte) (int, error) {
	return s.out.Read(p)
}

func (s *execStream) Close() error {
	_ = s.out.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.log.Info("capture device released")
	return nil
}
