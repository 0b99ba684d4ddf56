package audio

import (
	"context"
	"io"
)

// Device is one claimable capture source. Open takes an exclusive claim for
// the session; the returned stream delivers raw little-endian int16 mono
// PCM and must be closed exactly once, however the session ends.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
