package transcribe

import (
	"strings"
	"sync"
)

const segmentSeparator = " "

// Buffer holds one session's transcript: finalized segments, immutable
// once appended, plus at most one current partial that each new update
// replaces wholesale. Reads take a snapshot so render layers can poll
// concurrently while the consumer side mutates.
type Buffer struct {
	mu       sync.RWMutex
	segments []string
	partial  string
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Apply folds one update into the buffer. Finals append a segment and
// discard the partial; partials replace it; empty updates change nothing.
// An empty final still clears the partial but appends no segment, so a
// session of pure silence ends with an empty transcript.
func (b *Buffer) Apply(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch u.Kind {
	case KindPartial:
		b.partial = u.Text
	case KindFinal:
		if u.Text != "" {
			b.segments = append(b.segments, u.Text)
		}
		b.partial = ""
	}
}

// Snapshot is a read-only view of the buffer at one instant. Displayed is
// always the finalized text followed by the current partial, one separator
// between segments.
type Snapshot struct {
	Finalized string
	Partial   string
	Displayed string
	Segments  int
}

func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	finalized := strings.Join(b.segments, segmentSeparator)
	displayed := finalized
	if b.partial != "" {
		if displayed != "" {
			displayed += segmentSeparator
		}
		displayed += b.partial
	}
	return Snapshot{
		Finalized: finalized,
		Partial:   b.partial,
		Displayed: displayed,
		Segments:  len(b.segments),
	}
}

// Clear discards everything and leaves an empty buffer. Idempotent.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments = nil
	b.partial = ""
}
