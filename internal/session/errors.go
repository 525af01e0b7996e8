package session

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step an error belongs to.
type Stage string

const (
	StageCapture       Stage = "capture"
	StageTranscription Stage = "transcription"
	StageFormatting    Stage = "formatting"
	StageInsertion     Stage = "insertion"
	StageShutdown      Stage = "shutdown"
)

var (
	// ErrEmptyTranscript marks a session where recognition produced no text.
	ErrEmptyTranscript = errors.New("transcription produced no text")
	// ErrTooShort marks a capture below the minimum utterance duration.
	ErrTooShort = errors.New("capture shorter than minimum duration")
	// ErrShutdownTimeout marks a drain that exceeded the shutdown budget.
	ErrShutdownTimeout = errors.New("shutdown timed out waiting for active session")
	// ErrBusy rejects a press while a session is already in flight.
	ErrBusy = errors.New("session already in progress")
	// ErrNotRecording rejects a release with no recording to stop.
	ErrNotRecording = errors.New("no recording in progress")
)

// StageError wraps a pipeline failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// ErrorStage extracts the stage from a wrapped pipeline error.
func ErrorStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
