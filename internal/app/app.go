// Package app dispatches CLI commands: the daemon, IPC forwarding, and
// diagnostics.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/voxtool/vox/internal/audio"
	"github.com/voxtool/vox/internal/cli"
	"github.com/voxtool/vox/internal/config"
	"github.com/voxtool/vox/internal/doctor"
	"github.com/voxtool/vox/internal/hotkey"
	"github.com/voxtool/vox/internal/ipc"
	"github.com/voxtool/vox/internal/llm"
	"github.com/voxtool/vox/internal/logging"
	"github.com/voxtool/vox/internal/media"
	"github.com/voxtool/vox/internal/output"
	"github.com/voxtool/vox/internal/session"
	"github.com/voxtool/vox/internal/stt"
	"github.com/voxtool/vox/internal/version"
)

const forwardTimeout = 220 * time.Millisecond

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// preflight overrides the live startup checks; nil means doctor.Preflight.
	preflight func(ctx context.Context, cfg config.Config) error
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("vox"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("vox"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandPress:
		return r.forwardOrFail(ctx, ipc.CommandPress)
	case cli.CommandRelease:
		return r.forwardOrFail(ctx, ipc.CommandRelease)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandShutdown)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandRun starts the daemon: single-instance socket, pipeline wiring,
// hotkey listener, and graceful drain on shutdown.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	validateWarnings, err := config.Validate(cfg)
	for _, w := range validateWarnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("config validation failed", "error", err.Error())
		return 1
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: vox daemon already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	// The capture device and STT endpoint must be usable before the daemon
	// accepts a single press.
	preflight := r.preflight
	if preflight == nil {
		preflight = doctor.Preflight
	}
	if err := preflight(ctx, cfg); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("startup check failed", "error", err.Error())
		return 1
	}

	maxDuration := time.Duration(cfg.Audio.MaxDurationSec) * time.Second
	recorder := audio.NewRecorder(cfg.Audio.Input, cfg.Audio.Fallback, maxDuration)

	engine, err := stt.New(cfg.STT)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	var formatter session.Formatter
	if cfg.LLM.Enable {
		formatter = llm.NewFormatter(cfg.LLM)
	}

	var mediaCoord session.MediaCoordinator
	if cfg.Media.Enable {
		mediaCoord = media.NewCoordinator(cfg.Media.PlayerCmd.Argv)
	}

	orch, err := session.NewOrchestrator(session.Deps{
		Logger:      logger,
		Capture:     recorder,
		Transcriber: engine,
		Formatter:   formatter,
		Inserter:    output.NewInserter(cfg.Insert, logger),
		Media:       mediaCoord,
	}, session.Options{
		MaxDuration:     maxDuration,
		MinDuration:     time.Duration(cfg.Audio.MinDurationMS) * time.Millisecond,
		ShutdownTimeout: time.Duration(cfg.Shutdown.TimeoutSec) * time.Second,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	shutdownCh := make(chan struct{})
	var shutdownOnce sync.Once
	handler := ipc.HandlerFunc(func(hctx context.Context, req ipc.Request) ipc.Response {
		if req.Command == ipc.CommandShutdown {
			shutdownOnce.Do(func() { close(shutdownCh) })
			return ipc.Response{OK: true, State: string(orch.State()), Message: "shutting down"}
		}
		return orch.Handle(hctx, req)
	})

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, handler)
	}()

	hotkeyErrCh := make(chan error, 1)
	if cfg.Hotkey.Backend == "evdev" {
		hk, err := hotkey.NewListener(cfg.Hotkey, hotkey.Events{
			OnPress:   func() { _ = orch.OnPress() },
			OnRelease: func() { _ = orch.OnRelease() },
		}, logger)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		go func() {
			hotkeyErrCh <- hk.Run(serverCtx)
		}()
	}

	logger.Info("daemon started",
		"socket", socketPath,
		"hotkey_backend", cfg.Hotkey.Backend,
		"stt_engine", engine.Name(),
		"llm_enabled", cfg.LLM.Enable,
		"media_enabled", cfg.Media.Enable,
	)
	fmt.Fprintln(r.Stdout, "vox daemon running")

	exit := 0
	select {
	case <-ctx.Done():
		logger.Info("daemon interrupted")
	case <-shutdownCh:
		logger.Info("daemon stop requested")
	case err := <-hotkeyErrCh:
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: hotkey listener failed: %v\n", err)
			logger.Error("hotkey listener failed", "error", err.Error())
			exit = 1
		}
	}

	drainBudget := time.Duration(cfg.Shutdown.TimeoutSec)*time.Second + time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), drainBudget)
	defer shutdownCancel()
	if err := orch.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("shutdown drain failed", "error", err.Error())
		exit = 1
	}

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		exit = 1
	}

	logger.Info("daemon stopped")
	return exit
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: vox daemon is not running")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward sends one command to a running daemon. handled is false when no
// daemon is listening.
func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsSocketMissing(err) || ipc.IsConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}
