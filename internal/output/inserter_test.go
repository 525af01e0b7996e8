package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxtool/vox/internal/config"
)

// stubClipboard installs fake wl-copy/wl-paste scripts and returns the file
// that records every wl-copy stdin payload.
func stubClipboard(t *testing.T, pasteOutput string) string {
	t.Helper()

	copyFile := filepath.Join(t.TempDir(), "copies.log")
	t.Setenv("COPY_LOG", copyFile)
	t.Setenv("PASTE_OUTPUT", pasteOutput)

	dir := t.TempDir()
	copyScript := "#!/usr/bin/env bash\npayload=$(cat)\nprintf '%s\\n' \"${payload}\" >> \"${COPY_LOG}\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wl-copy"), []byte(copyScript), 0o755))
	pasteScript := "#!/usr/bin/env bash\nprintf '%s' \"${PASTE_OUTPUT}\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wl-paste"), []byte(pasteScript), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
	return copyFile
}

func copiedPayloads(t *testing.T, copyFile string) []string {
	t.Helper()
	data, err := os.ReadFile(copyFile)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var out []string
	for _, line := range splitLines(string(data)) {
		out = append(out, line)
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func testInsertConfig() config.InsertConfig {
	return config.InsertConfig{
		ClipboardCopy:    config.CommandConfig{Argv: []string{"wl-copy"}},
		ClipboardPaste:   config.CommandConfig{Argv: []string{"wl-paste"}},
		PasteCmd:         config.CommandConfig{Argv: []string{"true"}},
		PasteEnable:      true,
		PrePasteDelayMS:  1,
		RestoreClipboard: true,
	}
}

func TestInsertSetsClipboardPastesAndRestores(t *testing.T) {
	copyFile := stubClipboard(t, "previous contents")

	inserter := NewInserter(testInsertConfig(), nil)
	require.NoError(t, inserter.Insert(context.Background(), "hello world"))

	payloads := copiedPayloads(t, copyFile)
	require.Len(t, payloads, 2)
	require.Equal(t, "hello world", payloads[0])
	require.Equal(t, "previous contents", payloads[1])
}

func TestInsertClipboardOnlyWhenPasteDisabled(t *testing.T) {
	copyFile := stubClipboard(t, "previous contents")

	cfg := testInsertConfig()
	cfg.PasteEnable = false
	inserter := NewInserter(cfg, nil)
	require.NoError(t, inserter.Insert(context.Background(), "hello world"))

	payloads := copiedPayloads(t, copyFile)
	require.Len(t, payloads, 1)
	require.Equal(t, "hello world", payloads[0])
}

func TestInsertSkipsRestoreWhenDisabled(t *testing.T) {
	copyFile := stubClipboard(t, "previous contents")

	cfg := testInsertConfig()
	cfg.RestoreClipboard = false
	inserter := NewInserter(cfg, nil)
	require.NoError(t, inserter.Insert(context.Background(), "hello world"))

	payloads := copiedPayloads(t, copyFile)
	require.Len(t, payloads, 1)
}

func TestInsertPasteFailureLeavesClipboardSet(t *testing.T) {
	copyFile := stubClipboard(t, "previous contents")

	cfg := testInsertConfig()
	cfg.PasteCmd = config.CommandConfig{Argv: []string{"false"}}
	inserter := NewInserter(cfg, nil)
	require.NoError(t, inserter.Insert(context.Background(), "hello world"))

	// Restore is skipped so the transcript stays available for manual paste.
	payloads := copiedPayloads(t, copyFile)
	require.Len(t, payloads, 1)
	require.Equal(t, "hello world", payloads[0])
}

func TestInsertEmptyTextIsNoop(t *testing.T) {
	copyFile := stubClipboard(t, "previous contents")

	inserter := NewInserter(testInsertConfig(), nil)
	require.NoError(t, inserter.Insert(context.Background(), ""))
	require.Empty(t, copiedPayloads(t, copyFile))
}

func TestInsertClipboardSetFailure(t *testing.T) {
	stubClipboard(t, "previous contents")

	cfg := testInsertConfig()
	cfg.ClipboardCopy = config.CommandConfig{Argv: []string{"false"}}
	inserter := NewInserter(cfg, nil)

	err := inserter.Insert(context.Background(), "hello world")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}
