package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONLToStateDir(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	runtime, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })

	require.Equal(t, filepath.Join(state, "vox", "log.jsonl"), runtime.Path)

	runtime.Logger.Info("session complete", "transcript_length", 11)
	require.NoError(t, runtime.Close())

	content, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(content), `"msg":"session complete"`)
	require.Contains(t, string(content), `"transcript_length":11`)
	require.True(t, strings.HasSuffix(strings.TrimRight(string(content), "\n"), "}"))
}

func TestNewFallsBackToHomeState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	runtime, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })

	require.Equal(t, filepath.Join(home, ".local", "state", "vox", "log.jsonl"), runtime.Path)
}
