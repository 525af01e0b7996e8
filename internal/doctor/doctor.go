// Package doctor runs runtime readiness diagnostics for config, tools,
// audio, and the transcription backend.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/voxtool/vox/internal/audio"
	"github.com/voxtool/vox/internal/config"
	"github.com/voxtool/vox/internal/hotkey"
	"github.com/voxtool/vox/internal/stt"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))

	checks = append(checks, checkHotkey(cfg.Config.Hotkey))
	checks = append(checks, checkCommand(cfg.Config.Insert.ClipboardCopy.Argv, "insert.clipboard_copy"))

	if cfg.Config.Insert.RestoreClipboard {
		checks = append(checks, checkCommand(cfg.Config.Insert.ClipboardPaste.Argv, "insert.clipboard_paste"))
	}

	if cfg.Config.Insert.PasteEnable {
		if len(cfg.Config.Insert.PasteCmd.Argv) > 0 {
			checks = append(checks, checkCommand(cfg.Config.Insert.PasteCmd.Argv, "insert.paste_cmd"))
		} else {
			checks = append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
		}
	}

	if cfg.Config.Media.Enable {
		checks = append(checks, checkCommand(cfg.Config.Media.PlayerCmd.Argv, "media.player_cmd"))
	}

	checks = append(checks, checkAudioSelection(context.Background(), cfg.Config))
	checks = append(checks, checkSTTReady(cfg.Config))

	if cfg.Config.STT.GRPCHealth != "" {
		checks = append(checks, checkSTTGRPCHealth(cfg.Config))
	}

	if cfg.Config.LLM.Enable {
		checks = append(checks, checkLLMReady(cfg.Config))
	}

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkHotkey validates the configured key name and, for evdev, that a
// readable keyboard device can be resolved.
func checkHotkey(cfg config.HotkeyConfig) Check {
	if cfg.Backend == "ipc" {
		return Check{Name: "hotkey", Pass: true, Message: "ipc backend, compositor keybinds drive press/release"}
	}

	if _, err := hotkey.KeyCode(cfg.Key); err != nil {
		return Check{Name: "hotkey", Pass: false, Message: err.Error()}
	}

	device := cfg.Device
	if device == "" || device == "auto" {
		resolved, err := hotkey.ScanKeyboardDevice()
		if err != nil {
			return Check{Name: "hotkey", Pass: false, Message: err.Error()}
		}
		device = resolved
	}

	file, err := os.Open(device)
	if err != nil {
		return Check{Name: "hotkey", Pass: false, Message: fmt.Sprintf("cannot read %s: %v (is the user in the input group?)", device, err)}
	}
	_ = file.Close()
	return Check{Name: "hotkey", Pass: true, Message: fmt.Sprintf("key %q on %s", cfg.Key, device)}
}

// Preflight runs the startup-critical subset of the doctor checks: live
// capture device selection and transcription endpoint reachability. The
// daemon refuses to start when either fails.
func Preflight(ctx context.Context, cfg config.Config) error {
	if check := checkAudioSelection(ctx, cfg); !check.Pass {
		return fmt.Errorf("%s: %s", check.Name, check.Message)
	}
	if check := checkSTTReady(cfg); !check.Pass {
		return fmt.Errorf("%s: %s", check.Name, check.Message)
	}
	return nil
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkSTTReady probes the transcription HTTP endpoint.
func checkSTTReady(cfg config.Config) Check {
	base := strings.TrimSpace(cfg.STT.BaseURL)
	if base == "" {
		return Check{Name: "stt.base_url", Pass: false, Message: "stt.base_url is empty"}
	}

	url := strings.TrimRight(base, "/") + "/models"
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return Check{Name: "stt.base_url", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Check{Name: "stt.base_url", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "stt.base_url", Pass: true, Message: fmt.Sprintf("reachable at %s (HTTP %d)", url, resp.StatusCode)}
}

// checkSTTGRPCHealth probes the optional gRPC health endpoint.
func checkSTTGRPCHealth(cfg config.Config) Check {
	status, err := stt.CheckHealth(context.Background(), cfg.STT.GRPCHealth, 2*time.Second)
	if err != nil {
		return Check{Name: "stt.grpc_health", Pass: false, Message: err.Error()}
	}
	return Check{Name: "stt.grpc_health", Pass: true, Message: status}
}

// checkLLMReady probes the formatter chat endpoint.
func checkLLMReady(cfg config.Config) Check {
	base := strings.TrimSpace(cfg.LLM.BaseURL)
	if base == "" {
		return Check{Name: "llm.base_url", Pass: false, Message: "llm.base_url is empty"}
	}

	url := strings.TrimRight(base, "/") + "/models"
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return Check{Name: "llm.base_url", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Check{Name: "llm.base_url", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "llm.base_url", Pass: true, Message: fmt.Sprintf("reachable at %s (HTTP %d)", url, resp.StatusCode)}
}
