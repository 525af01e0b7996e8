package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboardCopy := "wl-copy --trim-newline"
	clipboardPaste := "wl-paste --no-newline"
	player := "playerctl"

	return Config{
		Hotkey: HotkeyConfig{
			Backend: "evdev",
			Device:  "auto",
			Key:     "rightalt",
		},
		Audio: AudioConfig{
			Input:          "default",
			Fallback:       "default",
			MaxDurationSec: 60,
			MinDurationMS:  300,
		},
		STT: STTConfig{
			Engine:     "whisper-server",
			BaseURL:    "http://127.0.0.1:8178/v1",
			Model:      "whisper-1",
			Language:   "en",
			TimeoutSec: 30,
		},
		LLM: LLMConfig{
			Enable:            false,
			BaseURL:           "http://127.0.0.1:11434/v1",
			Model:             "qwen2.5:7b-instruct-q4_K_M",
			Temperature:       0.3,
			MaxTokens:         512,
			TimeoutSec:        30,
			SkipShortMaxChars: 20,
		},
		Insert: InsertConfig{
			ClipboardCopy:    CommandConfig{Raw: clipboardCopy, Argv: mustParseArgv(clipboardCopy)},
			ClipboardPaste:   CommandConfig{Raw: clipboardPaste, Argv: mustParseArgv(clipboardPaste)},
			PasteEnable:      true,
			PasteShortcut:    "CTRL,V",
			PrePasteDelayMS:  50,
			RestoreClipboard: true,
		},
		Media: MediaConfig{
			Enable:    false,
			PlayerCmd: CommandConfig{Raw: player, Argv: mustParseArgv(player)},
		},
		Shutdown: ShutdownConfig{TimeoutSec: 10},
	}
}
