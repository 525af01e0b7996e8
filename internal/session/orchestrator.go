package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxtool/vox/internal/fsm"
	"github.com/voxtool/vox/internal/ipc"
)

// Options bounds the session lifecycle.
type Options struct {
	// MaxDuration force-releases a recording that runs too long. Zero
	// disables the timer.
	MaxDuration time.Duration
	// MinDuration aborts captures shorter than this before transcription.
	MinDuration time.Duration
	// ShutdownTimeout bounds draining the in-flight session on shutdown.
	ShutdownTimeout time.Duration
}

// Deps wires the pipeline stages into the orchestrator. Capture,
// Transcriber, and Inserter are required; Formatter and Media are optional.
type Deps struct {
	Logger      *slog.Logger
	Capture     CaptureSource
	Transcriber Transcriber
	Formatter   Formatter
	Inserter    Inserter
	Media       MediaCoordinator
	// OnResult observes every finished session, failed or not.
	OnResult func(*Session)
}

// Orchestrator serializes push-to-talk sessions: at most one utterance is
// in flight, and every session releases its resources on all exit paths.
type Orchestrator struct {
	logger    *slog.Logger
	capture   CaptureSource
	stt       Transcriber
	formatter Formatter
	inserter  Inserter
	media     MediaCoordinator
	onResult  func(*Session)
	opts      Options

	mu      sync.Mutex
	state   fsm.State
	current *running

	wg sync.WaitGroup
}

// running tracks the worker goroutine of the in-flight session.
type running struct {
	session   *Session
	releaseCh chan ReleaseReason
	timer     *time.Timer
}

// NewOrchestrator builds an idle orchestrator.
func NewOrchestrator(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Capture == nil {
		return nil, fmt.Errorf("orchestrator requires a capture source")
	}
	if deps.Transcriber == nil {
		return nil, fmt.Errorf("orchestrator requires a transcriber")
	}
	if deps.Inserter == nil {
		return nil, fmt.Errorf("orchestrator requires an inserter")
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Orchestrator{
		logger:    deps.Logger,
		capture:   deps.Capture,
		stt:       deps.Transcriber,
		formatter: deps.Formatter,
		inserter:  deps.Inserter,
		media:     deps.Media,
		onResult:  deps.OnResult,
		opts:      opts,
		state:     fsm.StateIdle,
	}, nil
}

// State returns the current lifecycle state snapshot.
func (o *Orchestrator) State() fsm.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// OnPress starts a new session. A press while one is already in flight is
// dropped, not queued.
func (o *Orchestrator) OnPress() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	next, err := fsm.Transition(o.state, fsm.EventPress)
	if err != nil {
		if o.state == fsm.StateShuttingDown {
			return fmt.Errorf("press ignored: %w", err)
		}
		o.logger.Debug("press dropped", "state", string(o.state))
		return fmt.Errorf("press dropped in state %s: %w", o.state, ErrBusy)
	}
	o.state = next

	sess := newSession()
	r := &running{
		session:   sess,
		releaseCh: make(chan ReleaseReason, 1),
	}
	if o.opts.MaxDuration > 0 {
		r.timer = time.AfterFunc(o.opts.MaxDuration, func() {
			o.signalRelease(sess.ID, ReleaseTimer)
		})
	}
	o.current = r

	o.logger.Info("session started", "session_id", sess.ID)
	o.wg.Add(1)
	go o.run(r)
	return nil
}

// OnRelease ends the recording phase of the in-flight session.
func (o *Orchestrator) OnRelease() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil || o.state != fsm.StateRecording {
		return ErrNotRecording
	}
	return o.releaseLocked(o.current, ReleaseKey)
}

// signalRelease releases a specific session. Stale signals for finished
// sessions are ignored, which makes the max-duration timer race-free
// against a near-simultaneous key release.
func (o *Orchestrator) signalRelease(id string, reason ReleaseReason) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil || o.current.session.ID != id || o.state != fsm.StateRecording {
		return
	}
	_ = o.releaseLocked(o.current, reason)
}

func (o *Orchestrator) releaseLocked(r *running, reason ReleaseReason) error {
	next, err := fsm.Transition(o.state, fsm.EventRelease)
	if err != nil {
		return err
	}
	o.state = next
	if r.timer != nil {
		r.timer.Stop()
	}
	r.session.Release = reason
	select {
	case r.releaseCh <- reason:
	default:
	}
	return nil
}

// Shutdown drains the in-flight session and moves to the terminal state.
// A recording session is released first so its audio is not lost.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if o.state == fsm.StateRecording && o.current != nil {
		_ = o.releaseLocked(o.current, ReleaseShutdown)
	}
	if next, err := fsm.Transition(o.state, fsm.EventShutdown); err == nil {
		o.state = next
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	timeout := o.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return stageErr(StageShutdown, ctx.Err())
	case <-timer.C:
		return stageErr(StageShutdown, ErrShutdownTimeout)
	}
}

// Handle serves IPC commands against the orchestrator.
func (o *Orchestrator) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(o.State()), Message: "status"}
	case ipc.CommandPress:
		if err := o.OnPress(); err != nil {
			return ipc.Response{OK: false, State: string(o.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(o.State()), Message: "recording started"}
	case ipc.CommandRelease:
		if err := o.OnRelease(); err != nil {
			return ipc.Response{OK: false, State: string(o.State()), Error: err.Error()}
		}
		return ipc.Response{OK: true, State: string(o.State()), Message: "processing"}
	default:
		return ipc.Response{OK: false, State: string(o.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// run executes one session from capture start to completion. Cleanup runs
// on every exit path.
func (o *Orchestrator) run(r *running) {
	defer o.wg.Done()

	sess := r.session
	ctx := context.Background()

	mediaEngaged := false
	if o.media != nil {
		if err := o.media.Engage(ctx); err != nil {
			o.logger.Warn("media pause failed", "session_id", sess.ID, "error", err.Error())
		} else {
			mediaEngaged = true
		}
	}

	defer func() {
		if mediaEngaged {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := o.media.Release(releaseCtx); err != nil {
				o.logger.Warn("media resume failed", "session_id", sess.ID, "error", err.Error())
			}
			cancel()
		}
		sess.FinishedAt = time.Now()
		o.finish(sess)
	}()

	device, warning, err := o.capture.Start(ctx)
	if err != nil {
		o.fail(sess, StageCapture, err)
		return
	}
	sess.AudioDevice = device
	if warning != "" {
		sess.AudioWarning = warning
		o.logger.Warn("audio device fallback", "session_id", sess.ID, "warning", warning)
	}

	<-r.releaseCh

	buf, err := o.capture.Stop(ctx)
	if err != nil {
		o.fail(sess, StageCapture, err)
		return
	}
	sess.AudioDuration = buf.Duration()
	sess.BytesCaptured = int64(len(buf.PCM))

	if buf.Duration() < o.opts.MinDuration {
		sess.Outcome = OutcomeAborted
		sess.Err = ErrTooShort
		return
	}

	raw, err := o.stt.Transcribe(ctx, buf)
	if err != nil {
		o.fail(sess, StageTranscription, err)
		return
	}
	sess.RawTranscript = raw
	if strings.TrimSpace(raw) == "" {
		sess.Outcome = OutcomeAborted
		sess.Err = ErrEmptyTranscript
		return
	}

	text := strings.TrimSpace(raw)
	if o.formatter != nil {
		formatted, err := o.formatter.Format(ctx, text)
		if err != nil {
			// Formatting is best-effort: fall back to the raw transcript.
			o.logger.Warn("formatting failed; inserting raw transcript",
				"session_id", sess.ID, "error", err.Error())
		} else if formatted != "" {
			text = formatted
		}
	}
	sess.Transcript = text

	if err := o.inserter.Insert(ctx, text); err != nil {
		o.fail(sess, StageInsertion, err)
		return
	}
	sess.Outcome = OutcomeInserted
}

func (o *Orchestrator) fail(sess *Session, stage Stage, err error) {
	sess.Outcome = OutcomeFailed
	sess.Stage = stage
	sess.Err = stageErr(stage, err)
}

// finish applies the terminal FSM transition, clears the in-flight slot,
// and reports the result.
func (o *Orchestrator) finish(sess *Session) {
	o.mu.Lock()
	switch o.state {
	case fsm.StateProcessing:
		if next, err := fsm.Transition(o.state, fsm.EventComplete); err == nil {
			o.state = next
		}
	case fsm.StateRecording:
		// Capture failed before release; abort back to idle.
		if next, err := fsm.Transition(o.state, fsm.EventAbort); err == nil {
			o.state = next
		}
	}
	o.current = nil
	o.mu.Unlock()

	attrs := []any{
		"session_id", sess.ID,
		"outcome", string(sess.Outcome),
		"release", string(sess.Release),
		"elapsed_ms", sess.Elapsed().Milliseconds(),
		"audio_ms", sess.AudioDuration.Milliseconds(),
		"bytes_captured", sess.BytesCaptured,
	}
	if sess.AudioDevice != "" {
		attrs = append(attrs, "device", sess.AudioDevice)
	}
	if sess.Err != nil {
		attrs = append(attrs, "error", sess.Err.Error())
	}
	if sess.Stage != "" {
		attrs = append(attrs, "stage", string(sess.Stage))
	}
	switch sess.Outcome {
	case OutcomeFailed:
		o.logger.Error("session failed", attrs...)
	case OutcomeAborted:
		o.logger.Info("session aborted", attrs...)
	default:
		o.logger.Info("session finished", attrs...)
	}

	if o.onResult != nil {
		o.onResult(sess)
	}
}
