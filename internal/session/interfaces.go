package session

import (
	"context"

	"github.com/voxtool/vox/internal/audio"
)

// CaptureSource records one utterance at a time.
type CaptureSource interface {
	// Start begins capturing and reports the selected device. The returned
	// warning is non-empty when a fallback device was selected.
	Start(ctx context.Context) (device string, warning string, err error)
	// Stop ends the capture and returns whatever was recorded. Stopping an
	// idle source returns an empty buffer.
	Stop(ctx context.Context) (audio.Buffer, error)
}

// Transcriber turns a finished capture into raw text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, buf audio.Buffer) (string, error)
}

// Formatter optionally rewrites raw transcripts before insertion.
type Formatter interface {
	Format(ctx context.Context, raw string) (string, error)
}

// Inserter commits final text into the focused application.
type Inserter interface {
	Insert(ctx context.Context, text string) error
}

// MediaCoordinator pauses playing media for the duration of a session.
type MediaCoordinator interface {
	Engage(ctx context.Context) error
	Release(ctx context.Context) error
}
