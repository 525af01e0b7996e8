package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "whitespace only", input: "   ", want: nil},
		{name: "clipboard default", input: "wl-copy --trim-newline", want: []string{"wl-copy", "--trim-newline"}},
		{name: "player command", input: "playerctl -p spotify pause", want: []string{"playerctl", "-p", "spotify", "pause"}},
		{name: "double quoted arg", input: `notify-send --app-name "vox daemon"`, want: []string{"notify-send", "--app-name", "vox daemon"}},
		{name: "single quoted arg", input: `notify-send --app-name 'vox daemon'`, want: []string{"notify-send", "--app-name", "vox daemon"}},
		{name: "escaped space", input: `run my\ tool`, want: []string{"run", "my tool"}},
		{name: "commented out", input: `# wl-copy --trim-newline`, want: nil},
		{name: "unterminated quote", input: `wl-copy "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `wl-copy oops\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMustParseArgvPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustParseArgv(`wl-copy "unterminated`)
	})
}
