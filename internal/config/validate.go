package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	backend := strings.ToLower(strings.TrimSpace(cfg.Hotkey.Backend))
	if backend == "" {
		return nil, fmt.Errorf("hotkey.backend must not be empty")
	}
	if backend != "evdev" && backend != "ipc" {
		return nil, fmt.Errorf("hotkey.backend must be one of: evdev, ipc")
	}
	if backend == "evdev" {
		if strings.TrimSpace(cfg.Hotkey.Device) == "" {
			return nil, fmt.Errorf("hotkey.device must not be empty when hotkey.backend=evdev")
		}
		if strings.TrimSpace(cfg.Hotkey.Key) == "" {
			return nil, fmt.Errorf("hotkey.key must not be empty when hotkey.backend=evdev")
		}
	}

	if cfg.Audio.MaxDurationSec <= 0 {
		return nil, fmt.Errorf("audio.max_duration_sec must be > 0")
	}
	if cfg.Audio.MinDurationMS < 0 {
		return nil, fmt.Errorf("audio.min_duration_ms must be >= 0")
	}
	if cfg.Audio.MinDurationMS >= cfg.Audio.MaxDurationSec*1000 {
		return nil, fmt.Errorf("audio.min_duration_ms must be shorter than audio.max_duration_sec")
	}

	engine := strings.ToLower(strings.TrimSpace(cfg.STT.Engine))
	if engine == "" {
		return nil, fmt.Errorf("stt.engine must not be empty")
	}
	if engine != "whisper-server" && engine != "openai" {
		return nil, fmt.Errorf("stt.engine must be one of: whisper-server, openai")
	}
	if strings.TrimSpace(cfg.STT.BaseURL) == "" {
		return nil, fmt.Errorf("stt.base_url must not be empty")
	}
	if strings.TrimSpace(cfg.STT.Model) == "" {
		return nil, fmt.Errorf("stt.model must not be empty")
	}
	if cfg.STT.TimeoutSec <= 0 {
		return nil, fmt.Errorf("stt.timeout_sec must be > 0")
	}
	if engine == "openai" && strings.TrimSpace(cfg.STT.APIKey) == "" {
		warnings = append(warnings, Warning{Message: "stt.engine=openai with empty stt.api_key; requests will be unauthenticated"})
	}

	if cfg.LLM.Enable {
		if strings.TrimSpace(cfg.LLM.BaseURL) == "" {
			return nil, fmt.Errorf("llm.base_url must not be empty when llm.enable=true")
		}
		if strings.TrimSpace(cfg.LLM.Model) == "" {
			return nil, fmt.Errorf("llm.model must not be empty when llm.enable=true")
		}
		if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
			return nil, fmt.Errorf("llm.temperature must be within [0, 2]")
		}
		if cfg.LLM.MaxTokens <= 0 {
			return nil, fmt.Errorf("llm.max_tokens must be > 0")
		}
		if cfg.LLM.TimeoutSec <= 0 {
			return nil, fmt.Errorf("llm.timeout_sec must be > 0")
		}
		if cfg.LLM.SkipShortMaxChars < 0 {
			return nil, fmt.Errorf("llm.skip_short_max_chars must be >= 0")
		}
	}

	if len(cfg.Insert.ClipboardCopy.Argv) == 0 {
		return nil, fmt.Errorf("insert.clipboard_copy_cmd must not be empty")
	}
	if cfg.Insert.RestoreClipboard && len(cfg.Insert.ClipboardPaste.Argv) == 0 {
		return nil, fmt.Errorf("insert.clipboard_paste_cmd must not be empty when insert.restore_clipboard=true")
	}
	if cfg.Insert.PrePasteDelayMS < 0 {
		return nil, fmt.Errorf("insert.pre_paste_delay_ms must be >= 0")
	}
	if cfg.Insert.PasteEnable && cfg.Insert.PasteCmd.Raw != "" && len(cfg.Insert.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("insert.paste_cmd is configured but empty")
	}
	if cfg.Insert.PasteEnable && len(cfg.Insert.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Insert.PasteShortcut) == "" {
		return nil, fmt.Errorf("insert.paste_shortcut must not be empty when insert.paste_enable=true and insert.paste_cmd is unset")
	}

	if cfg.Media.Enable && len(cfg.Media.PlayerCmd.Argv) == 0 {
		return nil, fmt.Errorf("media.player_cmd must not be empty when media.enable=true")
	}

	if cfg.Shutdown.TimeoutSec <= 0 {
		return nil, fmt.Errorf("shutdown.timeout_sec must be > 0")
	}

	return warnings, nil
}
