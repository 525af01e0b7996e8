package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse reads configuration content as JSONC layered over base defaults.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		return Config{}, nil, errors.New("config must be a JSONC object (expected '{')")
	}

	return parseJSONC(content, base)
}

type jsoncConfig struct {
	Hotkey   *jsoncHotkey   `json:"hotkey"`
	Audio    *jsoncAudio    `json:"audio"`
	STT      *jsoncSTT      `json:"stt"`
	LLM      *jsoncLLM      `json:"llm"`
	Insert   *jsoncInsert   `json:"insert"`
	Media    *jsoncMedia    `json:"media"`
	Shutdown *jsoncShutdown `json:"shutdown"`
}

type jsoncHotkey struct {
	Backend *string `json:"backend"`
	Device  *string `json:"device"`
	Key     *string `json:"key"`
}

type jsoncAudio struct {
	Input          *string `json:"input"`
	Fallback       *string `json:"fallback"`
	MaxDurationSec *int    `json:"max_duration_sec"`
	MinDurationMS  *int    `json:"min_duration_ms"`
}

type jsoncSTT struct {
	Engine     *string `json:"engine"`
	BaseURL    *string `json:"base_url"`
	APIKey     *string `json:"api_key"`
	Model      *string `json:"model"`
	Language   *string `json:"language"`
	TimeoutSec *int    `json:"timeout_sec"`
	GRPCHealth *string `json:"grpc_health"`
}

type jsoncLLM struct {
	Enable            *bool    `json:"enable"`
	BaseURL           *string  `json:"base_url"`
	Model             *string  `json:"model"`
	Temperature       *float64 `json:"temperature"`
	MaxTokens         *int     `json:"max_tokens"`
	TimeoutSec        *int     `json:"timeout_sec"`
	SkipShortMaxChars *int     `json:"skip_short_max_chars"`
}

type jsoncInsert struct {
	ClipboardCopyCmd  *string `json:"clipboard_copy_cmd"`
	ClipboardPasteCmd *string `json:"clipboard_paste_cmd"`
	PasteCmd          *string `json:"paste_cmd"`
	PasteEnable       *bool   `json:"paste_enable"`
	PasteShortcut     *string `json:"paste_shortcut"`
	PrePasteDelayMS   *int    `json:"pre_paste_delay_ms"`
	RestoreClipboard  *bool   `json:"restore_clipboard"`
}

type jsoncMedia struct {
	Enable    *bool   `json:"enable"`
	PlayerCmd *string `json:"player_cmd"`
}

type jsoncShutdown struct {
	TimeoutSec *int `json:"timeout_sec"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.Hotkey != nil {
		if payload.Hotkey.Backend != nil {
			cfg.Hotkey.Backend = strings.TrimSpace(*payload.Hotkey.Backend)
		}
		if payload.Hotkey.Device != nil {
			cfg.Hotkey.Device = strings.TrimSpace(*payload.Hotkey.Device)
		}
		if payload.Hotkey.Key != nil {
			cfg.Hotkey.Key = strings.TrimSpace(*payload.Hotkey.Key)
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
		if payload.Audio.MaxDurationSec != nil {
			cfg.Audio.MaxDurationSec = *payload.Audio.MaxDurationSec
		}
		if payload.Audio.MinDurationMS != nil {
			cfg.Audio.MinDurationMS = *payload.Audio.MinDurationMS
		}
	}

	if payload.STT != nil {
		if payload.STT.Engine != nil {
			cfg.STT.Engine = strings.TrimSpace(*payload.STT.Engine)
		}
		if payload.STT.BaseURL != nil {
			cfg.STT.BaseURL = strings.TrimSpace(*payload.STT.BaseURL)
		}
		if payload.STT.APIKey != nil {
			cfg.STT.APIKey = strings.TrimSpace(*payload.STT.APIKey)
		}
		if payload.STT.Model != nil {
			cfg.STT.Model = strings.TrimSpace(*payload.STT.Model)
		}
		if payload.STT.Language != nil {
			cfg.STT.Language = strings.TrimSpace(*payload.STT.Language)
		}
		if payload.STT.TimeoutSec != nil {
			cfg.STT.TimeoutSec = *payload.STT.TimeoutSec
		}
		if payload.STT.GRPCHealth != nil {
			cfg.STT.GRPCHealth = strings.TrimSpace(*payload.STT.GRPCHealth)
		}
	}

	if payload.LLM != nil {
		if payload.LLM.Enable != nil {
			cfg.LLM.Enable = *payload.LLM.Enable
		}
		if payload.LLM.BaseURL != nil {
			cfg.LLM.BaseURL = strings.TrimSpace(*payload.LLM.BaseURL)
		}
		if payload.LLM.Model != nil {
			cfg.LLM.Model = strings.TrimSpace(*payload.LLM.Model)
		}
		if payload.LLM.Temperature != nil {
			cfg.LLM.Temperature = *payload.LLM.Temperature
		}
		if payload.LLM.MaxTokens != nil {
			cfg.LLM.MaxTokens = *payload.LLM.MaxTokens
		}
		if payload.LLM.TimeoutSec != nil {
			cfg.LLM.TimeoutSec = *payload.LLM.TimeoutSec
		}
		if payload.LLM.SkipShortMaxChars != nil {
			cfg.LLM.SkipShortMaxChars = *payload.LLM.SkipShortMaxChars
		}
	}

	if payload.Insert != nil {
		if payload.Insert.ClipboardCopyCmd != nil {
			cmd, err := parseCommand("clipboard_copy_cmd", *payload.Insert.ClipboardCopyCmd)
			if err != nil {
				return err
			}
			cfg.Insert.ClipboardCopy = cmd
		}
		if payload.Insert.ClipboardPasteCmd != nil {
			cmd, err := parseCommand("clipboard_paste_cmd", *payload.Insert.ClipboardPasteCmd)
			if err != nil {
				return err
			}
			cfg.Insert.ClipboardPaste = cmd
		}
		if payload.Insert.PasteCmd != nil {
			cmd, err := parseCommand("paste_cmd", *payload.Insert.PasteCmd)
			if err != nil {
				return err
			}
			cfg.Insert.PasteCmd = cmd
		}
		if payload.Insert.PasteEnable != nil {
			cfg.Insert.PasteEnable = *payload.Insert.PasteEnable
		}
		if payload.Insert.PasteShortcut != nil {
			cfg.Insert.PasteShortcut = strings.TrimSpace(*payload.Insert.PasteShortcut)
		}
		if payload.Insert.PrePasteDelayMS != nil {
			cfg.Insert.PrePasteDelayMS = *payload.Insert.PrePasteDelayMS
		}
		if payload.Insert.RestoreClipboard != nil {
			cfg.Insert.RestoreClipboard = *payload.Insert.RestoreClipboard
		}
	}

	if payload.Media != nil {
		if payload.Media.Enable != nil {
			cfg.Media.Enable = *payload.Media.Enable
		}
		if payload.Media.PlayerCmd != nil {
			cmd, err := parseCommand("player_cmd", *payload.Media.PlayerCmd)
			if err != nil {
				return err
			}
			cfg.Media.PlayerCmd = cmd
		}
	}

	if payload.Shutdown != nil && payload.Shutdown.TimeoutSec != nil {
		cfg.Shutdown.TimeoutSec = *payload.Shutdown.TimeoutSec
	}

	return nil
}

func parseCommand(name string, raw string) (CommandConfig, error) {
	argv, err := parseArgv(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
