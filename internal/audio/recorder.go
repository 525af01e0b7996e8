package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

// maxDurationHeadroom pads the hard buffer cap past the session timer so the
// timer, not the cap, normally ends a capture.
const maxDurationHeadroom = 2 * time.Second

// Recorder binds device selection preferences to one capture at a time.
type Recorder struct {
	input       string
	fallback    string
	maxDuration time.Duration

	mu        sync.Mutex
	capture   *Capture
	selection Selection
}

// NewRecorder returns a recorder for the configured input preferences.
func NewRecorder(input, fallback string, maxDuration time.Duration) *Recorder {
	return &Recorder{input: input, fallback: fallback, maxDuration: maxDuration}
}

// Start selects a device and begins capturing. The chosen device id is
// returned along with a warning when fallback selection kicked in.
func (r *Recorder) Start(ctx context.Context) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capture != nil {
		return "", "", errors.New("capture already in progress")
	}

	selection, err := SelectDevice(ctx, r.input, r.fallback)
	if err != nil {
		return "", "", err
	}

	maxPCM := 0
	if r.maxDuration > 0 {
		budget := r.maxDuration + maxDurationHeadroom
		maxPCM = int(budget.Seconds() * SampleRate * Channels * bytesPerSample)
	}

	capture, err := StartCapture(ctx, selection.Device, maxPCM)
	if err != nil {
		return "", "", err
	}

	r.capture = capture
	r.selection = selection
	return selection.Device.ID, selection.Warning, nil
}

// Stop ends the active capture and returns its buffer. Stopping an idle
// recorder returns an empty buffer and no error.
func (r *Recorder) Stop(_ context.Context) (Buffer, error) {
	r.mu.Lock()
	capture := r.capture
	r.capture = nil
	r.mu.Unlock()

	if capture == nil {
		return Buffer{SampleRate: SampleRate, Channels: Channels}, nil
	}

	if err := capture.Stop(); err != nil {
		return Buffer{SampleRate: SampleRate, Channels: Channels}, err
	}
	return capture.Buffer(), nil
}

// Selection returns the device chosen by the most recent Start.
func (r *Recorder) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selection
}
