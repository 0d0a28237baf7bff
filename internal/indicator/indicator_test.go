package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/state"
	"github.com/stretchr/testify/require"
)

func TestNotifyDispatchesThroughHyprctl(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	t.Setenv("LANG", "en_US.UTF-8")
	installHyprctlStub(t, `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false

	n := New(cfg, nil)
	n.ShowRecording(context.Background(), state.State{Mode: state.ModeSwissGerman, Hint: "de-CH"})
	n.ShowProcessing(context.Background())
	n.ShowMessage(context.Background(), "Sending to LLM...")
	n.ShowError(context.Background(), "")
	n.Hide(context.Background())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Listening… [de-CH de-CH]",
		"--quiet dispatch notify 1 300000 rgb(cba6f7) Transcribing…",
		"--quiet dispatch notify 1 1500 rgb(a6e3a1) Sending to LLM...",
		"--quiet dispatch notify 3 1600 rgb(f38ba8) Speech recognition error",
		"--quiet dispatch dismissnotify",
	}, lines)
}

func TestNotifyDisabledSkipsDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	cfg := config.Default().Indicator
	cfg.Enable = false
	cfg.SoundEnable = false

	n := New(cfg, nil)
	n.ShowRecording(context.Background(), state.State{})
	n.ShowMessage(context.Background(), "ignored")
	n.ShowError(context.Background(), "ignored")
	n.Hide(context.Background())

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
}

func TestShowMessageSkipsBlankText(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	New(cfg, nil).ShowMessage(context.Background(), "  ")

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
}

func TestCuesPlayInOrderWhenSoundEnabled(t *testing.T) {
	cfg := config.Default().Indicator
	cfg.Enable = false

	played := make(chan cueKind, 3)
	n := New(cfg, nil)
	n.play = func(_ context.Context, kind cueKind) error {
		played <- kind
		return nil
	}

	n.CueStop(context.Background())
	require.Equal(t, cueStop, <-played)
	n.CueComplete(context.Background())
	require.Equal(t, cueComplete, <-played)
	n.CueCancel(context.Background())
	require.Equal(t, cueCancel, <-played)
}

func TestRecordingLabel(t *testing.T) {
	tests := []struct {
		name string
		st   state.State
		want string
	}{
		{name: "plain", st: state.State{Mode: state.ModeNormal}, want: "Listening…"},
		{name: "hint only", st: state.State{Mode: state.ModeNormal, Hint: "de"}, want: "Listening… [de]"},
		{name: "llm mode", st: state.State{Mode: state.ModeLLM}, want: "Listening… [llm]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, recordingLabel("Listening…", tc.st))
		})
	}
}

func TestMessagesFor(t *testing.T) {
	require.Equal(t, "Listening…", messagesFor("en_US.UTF-8").recording)
	require.Equal(t, "Höre zu…", messagesFor("de_CH.UTF-8").recording)
	require.Equal(t, "Transcribing…", messagesFor("fr_FR.UTF-8").processing)
	require.Equal(t, "Speech recognition error", messagesFor("").errorText)
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
