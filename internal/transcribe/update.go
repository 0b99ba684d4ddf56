package transcribe

import (
	"errors"
	"fmt"
)

// Kind classifies one incremental result from the recognizer.
type Kind int

const (
	// KindEmpty reports no new signal; the transcript is unchanged.
	KindEmpty Kind = iota
	// KindPartial carries tentative text since the last endpoint. It is
	// superseded wholesale by the next update from the same boundary and
	// never lands in the permanent transcript verbatim.
	KindPartial
	// KindFinal carries committed text. Once emitted it is never retracted
	// or revised; only audio after the boundary can produce further text.
	KindFinal
)

func (k Kind) String() string {
	switch k {
	case KindPartial:
		return "partial"
	case KindFinal:
		return "final"
	default:
		return "empty"
	}
}

// Update is the result of feeding one chunk (or of stopping the session).
type Update struct {
	Kind Kind
	Text string
}

// Contract violations. Feeding outside Start/Stop brackets is caller
// misuse, not a recoverable condition.
var (
	ErrAlreadyActive = errors.New("transcriber already active")
	ErrNotActive     = errors.New("transcriber not active")
)

// InvalidChunkError reports a malformed chunk. The offending chunk is
// dropped without touching recognizer state; the session may continue.
type InvalidChunkError struct {
	Reason string
}

func (e *InvalidChunkError) Error() string {
	return fmt.Sprintf("invalid chunk: %s", e.Reason)
}
