// Package doctor runs runtime readiness diagnostics for config, hotkeys, audio, and the transcription engine.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rbright/hotscribe/internal/asr"
	"github.com/rbright/hotscribe/internal/audio"
	"github.com/rbright/hotscribe/internal/config"
	"github.com/rbright/hotscribe/internal/hotkey"
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

// Run executes environment/config/runtime checks for a loaded config. Audio
// checks query driver.
func Run(ctx context.Context, loaded config.Loaded, driver audio.Driver) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkHotkey("hotkey.toggle", cfg.Hotkey.Toggle))
	if strings.TrimSpace(cfg.Hotkey.Cancel) != "" {
		checks = append(checks, checkHotkey("hotkey.cancel", cfg.Hotkey.Cancel))
	}
	checks = append(checks, checkSessionType(runtime.GOOS, os.Getenv))

	if cfg.Clipboard.Enabled() {
		checks = append(checks, checkCommand(cfg.Clipboard.Argv, "clipboard_cmd"))
	}
	if cfg.Notify.Desktop {
		checks = append(checks, checkBinary("busctl", "desktop notifications"))
	}

	checks = append(checks, checkAudioSelection(ctx, driver, cfg))
	checks = append(checks, checkEngine(cfg))
	if target := strings.TrimSpace(cfg.Transcription.HealthGRPC); target != "" {
		checks = append(checks, checkGRPCHealth(ctx, target, 2*time.Second))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	var parts []string
	if loaded.Exists {
		parts = append(parts, fmt.Sprintf("loaded %q", loaded.Path))
	} else {
		parts = append(parts, fmt.Sprintf("no file at %q; using defaults", loaded.Path))
	}
	if len(loaded.EnvApplied) > 0 {
		parts = append(parts, "env overrides: "+strings.Join(loaded.EnvApplied, ", "))
	}
	if len(loaded.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", len(loaded.Warnings)))
	}
	return Check{Name: "config", Pass: true, Message: strings.Join(parts, "; ")}
}

func checkHotkey(name string, spec string) Check {
	key, err := hotkey.Parse(spec)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s (keycode %d)", key, key.Code)}
}

// checkSessionType reports whether a global key tap can work. Under XWayland
// the tap only sees keys sent to X11 clients.
func checkSessionType(goos string, getenv func(string) string) Check {
	const name = "session"
	if err := hotkey.CheckTap(goos, getenv); err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	if goos == "darwin" || goos == "windows" {
		return Check{Name: name, Pass: true, Message: goos + " supports a global key tap (grant input monitoring if prompted)"}
	}
	display := strings.TrimSpace(getenv("DISPLAY"))
	if strings.EqualFold(strings.TrimSpace(getenv("XDG_SESSION_TYPE")), "wayland") {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("XWayland display %s only sees keys sent to X11 windows; bind `hotscribe toggle` in the compositor instead", display)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("X display %s supports a global key tap", display)}
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

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, driver audio.Driver, cfg config.Config) Check {
	selection, err := audio.SelectWith(ctx, driver, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %s", audio.Describe(selection.Device))
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkEngine validates that the configured backend can be constructed.
func checkEngine(cfg config.Config) Check {
	const name = "transcription.engine"
	tc := cfg.Transcription

	switch tc.Engine {
	case asr.EngineOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return Check{Name: name, Pass: false, Message: "OPENAI_API_KEY is not set"}
		}
		endpoint := tc.BaseURL
		if endpoint == "" {
			endpoint = "api.openai.com"
		}
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("openai model %q via %s", tc.Model, endpoint)}
	case asr.EngineCommand:
		check := checkCommand(tc.Command.Argv, "transcription.command")
		check.Name = name
		return check
	case asr.EngineEcho:
		return Check{Name: name, Pass: true, Message: "echo engine reports recording length only"}
	default:
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("unknown engine %q", tc.Engine)}
	}
}
