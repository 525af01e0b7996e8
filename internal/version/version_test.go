package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringIncludesBuildMetadata(t *testing.T) {
	originalVersion := Version
	originalCommit := Commit
	originalDate := Date
	t.Cleanup(func() {
		Version = originalVersion
		Commit = originalCommit
		Date = originalDate
	})

	Version = "0.4.0"
	Commit = "f00dcafe"
	Date = "2026-08-12"

	got := String()
	require.Contains(t, got, "vox 0.4.0")
	require.Contains(t, got, "commit=f00dcafe")
	require.Contains(t, got, "date=2026-08-12")
	require.Contains(t, got, "go=")
}
