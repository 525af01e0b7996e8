// Package session coordinates the push-to-talk lifecycle: capture,
// transcription, formatting, and insertion for one utterance at a time.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal classification of one session.
type Outcome string

const (
	// OutcomeInserted means text reached the focused application.
	OutcomeInserted Outcome = "inserted"
	// OutcomeAborted means the session ended early without failure, for
	// example a too-short capture or an empty transcript.
	OutcomeAborted Outcome = "aborted"
	// OutcomeFailed means a pipeline stage errored.
	OutcomeFailed Outcome = "failed"
)

// ReleaseReason records what ended the recording phase.
type ReleaseReason string

const (
	ReleaseKey      ReleaseReason = "key"
	ReleaseTimer    ReleaseReason = "max-duration"
	ReleaseShutdown ReleaseReason = "shutdown"
)

// Session carries the full record of one utterance through the pipeline.
type Session struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	Release       ReleaseReason
	AudioDevice   string
	AudioWarning  string
	AudioDuration time.Duration
	BytesCaptured int64

	RawTranscript string
	Transcript    string

	Outcome Outcome
	Stage   Stage
	Err     error
}

func newSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Elapsed reports wall time from press to completion.
func (s *Session) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
