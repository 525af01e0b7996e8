// Package output inserts finished transcripts into the focused application
// via clipboard and paste dispatch.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/voxtool/vox/internal/config"
)

const (
	commandTimeout = 2 * time.Second
	// restoreDelay gives the focused app time to read the clipboard before
	// the previous contents are put back.
	restoreDelay = 300 * time.Millisecond
)

// Inserter commits transcript text: snapshot clipboard, set it, paste,
// then optionally restore the previous contents.
type Inserter struct {
	cfg    config.InsertConfig
	logger *slog.Logger
}

// NewInserter constructs an inserter from runtime config.
func NewInserter(cfg config.InsertConfig, logger *slog.Logger) *Inserter {
	return &Inserter{cfg: cfg, logger: logger}
}

// Insert writes text to the clipboard and optionally dispatches paste.
// A paste failure is not fatal, the clipboard stays set for manual pasting.
func (i *Inserter) Insert(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	snapshot, haveSnapshot := i.snapshotClipboard(ctx)

	setCtx, setCancel := context.WithTimeout(ctx, commandTimeout)
	defer setCancel()
	if err := runCommandWithInput(setCtx, i.cfg.ClipboardCopy.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !i.cfg.PasteEnable {
		return nil
	}

	if delay := time.Duration(i.cfg.PrePasteDelayMS) * time.Millisecond; delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if err := i.dispatchPaste(ctx); err != nil {
		i.logPasteFailure(err)
		return nil
	}

	if i.cfg.RestoreClipboard && haveSnapshot {
		i.restoreClipboard(ctx, snapshot)
	}
	return nil
}

// snapshotClipboard reads the current clipboard contents when restore is on.
func (i *Inserter) snapshotClipboard(ctx context.Context) (string, bool) {
	if !i.cfg.RestoreClipboard || len(i.cfg.ClipboardPaste.Argv) == 0 {
		return "", false
	}

	readCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	argv := i.cfg.ClipboardPaste.Argv
	out, err := exec.CommandContext(readCtx, argv[0], argv[1:]...).Output()
	if err != nil {
		// An empty clipboard makes wl-paste exit nonzero. Treat it as an
		// empty snapshot so restore clears the transcript afterwards.
		if strings.Contains(err.Error(), "exit status 1") {
			return "", true
		}
		if i.logger != nil {
			i.logger.Warn("clipboard snapshot failed; skipping restore", "error", err.Error())
		}
		return "", false
	}
	return string(out), true
}

func (i *Inserter) restoreClipboard(ctx context.Context, snapshot string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(restoreDelay):
	}

	restoreCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if err := runCommandWithInput(restoreCtx, i.cfg.ClipboardCopy.Argv, snapshot); err != nil && i.logger != nil {
		i.logger.Warn("clipboard restore failed", "error", err.Error())
	}
}

func (i *Inserter) dispatchPaste(ctx context.Context) error {
	if len(i.cfg.PasteCmd.Argv) > 0 {
		pasteCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		return runCommandWithInput(pasteCtx, i.cfg.PasteCmd.Argv, "")
	}

	pasteCtx, cancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer cancel()
	return shortcutPaste(pasteCtx, i.cfg.PasteShortcut)
}

// logPasteFailure records paste errors while preserving clipboard success semantics.
func (i *Inserter) logPasteFailure(err error) {
	if i.logger == nil || err == nil {
		return
	}
	i.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
