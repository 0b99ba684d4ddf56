package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DivyanshuRana9418127188/Hindi-Vosk/internal/audio"
)

// Run is the driver loop: it pulls chunks from the source and pushes them
// into the transcriber until the source is exhausted or ctx is cancelled,
// forwarding every update (the trailing flush included) to onUpdate. The
// cancellation flag is observed before each feed; once seen, remaining
// live chunks are discarded and the transcriber is stopped immediately.
//
// A malformed chunk is dropped and logged and the loop continues. The
// exception is a finite source, where nothing downstream can be salvaged
// once the open-time format check has passed, so the session aborts with
// the error.
// Either way the transcriber is stopped and previously finalized segments
// survive intact.
func Run(ctx context.Context, source audio.Source, t *Transcriber, onUpdate func(Update) error, logger *slog.Logger) error {
	if err := t.Start(); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return finish(t, onUpdate)
		}

		chunk, err := source.Next(ctx)
		if errors.Is(err, audio.ErrEndOfStream) {
			return finish(t, onUpdate)
		}
		if err != nil {
			stopErr := finish(t, onUpdate)
			if stopErr != nil {
				logger.Warn("stop after source failure", slogError(stopErr))
			}
			return fmt.Errorf("read chunk: %w", err)
		}

		update, err := t.Feed(chunk)
		if err != nil {
			var invalid *InvalidChunkError
			switch {
			case errors.As(err, &invalid) && source.Finite():
				stopErr := finish(t, onUpdate)
				if stopErr != nil {
					logger.Warn("stop after feed failure", slogError(stopErr))
				}
				return err
			case errors.Is(err, ErrNotActive):
				return err
			default:
				// Malformed live chunk or a transient recognizer failure:
				// the chunk is dropped and the session continues.
				logger.Warn("chunk dropped", slogError(err))
				continue
			}
		}

		if onUpdate != nil {
			if err := onUpdate(update); err != nil {
				if stopErr := finish(t, nil); stopErr != nil {
					logger.Warn("stop after observer failure", slogError(stopErr))
				}
				return fmt.Errorf("forward update: %w", err)
			}
		}
	}
}

// finish stops the transcriber and forwards the flush final like any
// other update.
func finish(t *Transcriber, onUpdate func(Update) error) error {
	update, err := t.Stop()
	if err != nil {
		if errors.Is(err, ErrNotActive) {
			return nil
		}
		return err
	}
	if onUpdate != nil {
		return onUpdate(update)
	}
	return nil
}
