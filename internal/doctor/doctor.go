// Package doctor runs readiness diagnostics for config, tools, audio, and
// the speech, LLM and NER services.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/signal"
	"github.com/rbright/hark/internal/stt"
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
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkSignals(loaded.SignalsPath))
	checks = append(checks, checkClipboard(cfg.Clipboard.Argv, "clipboard_cmd"))
	checks = append(checks, checkClipboard(cfg.ClipboardGet.Argv, "clipboard_get_cmd"))

	if cfg.Paste.Enable {
		if len(cfg.PasteCmd.Argv) > 0 {
			checks = append(checks, checkCommand(cfg.PasteCmd.Argv, "paste_cmd"))
		} else {
			checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
				return strings.TrimSpace(v) != ""
			}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
			checks = append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
		}
	}
	if len(cfg.TTS.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.TTS.Argv, "tts_cmd"))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg))
	checks = append(checks, checkSTT(ctx, cfg.STT))
	if strings.TrimSpace(cfg.STT.HealthGRPC) != "" {
		checks = append(checks, checkGRPCHealth(ctx, cfg.STT.HealthGRPC))
	}
	checks = append(checks, checkAPIKey("llm.api_key_env", cfg.LLM.BaseURL, cfg.LLM.APIKeyEnv))
	checks = append(checks, checkNER(ctx, cfg.NER))

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", loaded.Path)}
	}
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if n := len(loaded.Warnings); n > 0 {
		message += fmt.Sprintf(" (%d warnings)", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

func checkSignals(path string) Check {
	table, warnings, err := signal.LoadFile(path)
	if err != nil {
		return Check{Name: "signals", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("%d signals from %q", table.Len(), path)
	if len(warnings) > 0 {
		message += fmt.Sprintf(" (%d warnings, first: %s)", len(warnings), warnings[0])
	}
	return Check{Name: "signals", Pass: true, Message: message}
}

// checkClipboard accepts an unset command when the system clipboard tools
// can serve as the fallback.
func checkClipboard(argv []string, name string) Check {
	if len(argv) > 0 {
		return checkCommand(argv, name)
	}
	if clipboard.Unsupported {
		return Check{Name: name, Pass: false, Message: "unset and no system clipboard tool found"}
	}
	return Check{Name: name, Pass: true, Message: "unset; using the system clipboard tools"}
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

func checkSTT(ctx context.Context, cfg config.STTConfig) Check {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case stt.KindOpenAI:
		if key := checkAPIKey("stt.api_key_env", cfg.BaseURL, cfg.APIKeyEnv); !key.Pass {
			return key
		}
		base := cfg.BaseURL
		if strings.TrimSpace(base) == "" {
			return Check{Name: "stt.engine", Pass: true, Message: "openai engine using the default endpoint"}
		}
		return checkReachable(ctx, "stt.base_url", base)
	default:
		engine, err := stt.NewExecEngine(cfg.Command, cfg.Language)
		if err != nil {
			return Check{Name: "stt.command", Pass: false, Message: err.Error()}
		}
		return checkBinary(engine.Binary(), "stt exec engine")
	}
}

// checkAPIKey fails only when the hosted endpoint is in use without a key.
// Local OpenAI-compatible servers usually need none.
func checkAPIKey(name, baseURL, envName string) Check {
	envName = strings.TrimSpace(envName)
	if envName != "" && config.APIKey(envName) != "" {
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s is set", envName)}
	}
	if strings.TrimSpace(baseURL) != "" {
		return Check{Name: name, Pass: true, Message: "no key; custom base_url in use"}
	}
	if envName == "" {
		return Check{Name: name, Pass: false, Message: "api_key_env is empty"}
	}
	return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s is not set", envName)}
}

func checkNER(ctx context.Context, cfg config.NERConfig) Check {
	if strings.TrimSpace(cfg.URL) == "" {
		return Check{Name: "ner.url", Pass: true, Message: "unset; entity actions deliver {}"}
	}
	return checkReachable(ctx, "ner.url", cfg.URL)
}
