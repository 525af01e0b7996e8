// Package config resolves, parses, validates, and defaults vox configuration.
package config

// Config is the fully materialized runtime configuration used by vox.
// It is consumed as an immutable snapshot at construction time; changing
// the file requires a restart.
type Config struct {
	Hotkey   HotkeyConfig
	Audio    AudioConfig
	STT      STTConfig
	LLM      LLMConfig
	Insert   InsertConfig
	Media    MediaConfig
	Shutdown ShutdownConfig
}

// HotkeyConfig controls the push-to-talk trigger source.
type HotkeyConfig struct {
	// Backend is "evdev" (read the keyboard device directly) or "ipc"
	// (press/release arrive over the control socket, e.g. from
	// compositor keybinds).
	Backend string
	// Device is an evdev node path, or "auto" to scan for a keyboard.
	Device string
	// Key is the trigger key name, e.g. "rightalt".
	Key string
}

// AudioConfig controls input-source selection and recording bounds.
type AudioConfig struct {
	Input          string
	Fallback       string
	MaxDurationSec int
	MinDurationMS  int
}

// STTConfig selects and parameterizes the transcription engine.
type STTConfig struct {
	Engine     string
	BaseURL    string
	APIKey     string
	Model      string
	Language   string
	TimeoutSec int
	// GRPCHealth is an optional host:port probed via the standard gRPC
	// health service during startup validation and doctor runs.
	GRPCHealth string
}

// LLMConfig controls the optional transcript formatting pass.
type LLMConfig struct {
	Enable            bool
	BaseURL           string
	Model             string
	Temperature       float64
	MaxTokens         int
	TimeoutSec        int
	SkipShortMaxChars int
}

// InsertConfig controls clipboard handling and paste dispatch.
type InsertConfig struct {
	ClipboardCopy    CommandConfig
	ClipboardPaste   CommandConfig
	PasteCmd         CommandConfig
	PasteEnable      bool
	PasteShortcut    string
	PrePasteDelayMS  int
	RestoreClipboard bool
}

// MediaConfig controls media auto-pause around the recording window.
type MediaConfig struct {
	Enable    bool
	PlayerCmd CommandConfig
}

// ShutdownConfig bounds how long shutdown waits for an in-flight worker.
type ShutdownConfig struct {
	TimeoutSec int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
