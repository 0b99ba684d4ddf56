package protocol

import "time"

// Transcript is one incremental transcription update broadcast on the bus.
// Partial text is tentative and replaced wholesale by the next update from
// the same boundary; final text is committed and never revised.
type Transcript struct {
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Partial   bool      `json:"partial"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionEvent marks a lifecycle transition of a transcription session.
type SessionEvent struct {
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// BrowserReport is the payload the dashboard forwards from the browser's
// built-in speech recognition service.
type BrowserReport struct {
	Transcript  string `json:"transcript"`
	IsListening bool   `json:"isListening"`
	Error       string `json:"error,omitempty"`
}

const (
	SubjectTranscriptPartial = "transcript.partial"
	SubjectTranscriptFinal   = "transcript.final"
	SubjectSessionState      = "session.state"
)

const (
	SessionStarted = "started"
	SessionStopped = "stopped"
	SessionCleared = "cleared"
)

const (
	SourceLive    = "live"
	SourceFile    = "file"
	SourceBrowser = "browser"
)
