package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/stretchr/testify/require"
)

func TestRunCommandPassesStdinAndCapturesStdout(t *testing.T) {
	out, err := runCommand(context.Background(), []string{"tr", "a-z", "A-Z"}, "hello hark")
	require.NoError(t, err)
	require.Equal(t, "HELLO HARK", out)
}

func TestRunCommandErrors(t *testing.T) {
	_, err := runCommand(context.Background(), nil, "payload")
	require.ErrorContains(t, err, "argv cannot be empty")

	_, err = runCommand(context.Background(), []string{writeFailScript(t, "no clipboard")}, "")
	require.ErrorContains(t, err, "no clipboard")
}

func TestDelivererWritesClipboardWhenPasteDisabled(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	cfg := config.Default()
	cfg.Paste.Enable = false
	cfg.Clipboard = config.CommandConfig{Argv: []string{scriptPath, clipboardPath}}

	require.NoError(t, NewDeliverer(cfg, nil).Deliver(context.Background(), "Grüezi mitenand"))

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "Grüezi mitenand", string(data))
}

func TestDelivererSkipsEmptyText(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	cfg := config.Default()
	cfg.Clipboard = config.CommandConfig{Argv: []string{scriptPath, clipboardPath}}

	require.NoError(t, NewDeliverer(cfg, nil).Deliver(context.Background(), ""))
	_, err := os.Stat(clipboardPath)
	require.True(t, os.IsNotExist(err))
}

func TestDelivererClipboardFailureFails(t *testing.T) {
	cfg := config.Default()
	cfg.Paste.Enable = false
	cfg.Clipboard = config.CommandConfig{Argv: []string{writeFailScript(t, "clipboard failed")}}

	err := NewDeliverer(cfg, nil).Deliver(context.Background(), "text")
	require.ErrorContains(t, err, "set clipboard")
}

func TestDelivererPasteFailureKeepsClipboard(t *testing.T) {
	clipboardScript := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	cfg := config.Default()
	cfg.Clipboard = config.CommandConfig{Argv: []string{clipboardScript, clipboardPath}}
	cfg.Paste.Enable = true
	cfg.PasteCmd = config.CommandConfig{Argv: []string{writeFailScript(t, "paste failed")}}

	require.NoError(t, NewDeliverer(cfg, nil).Deliver(context.Background(), "kept"))

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "kept", string(data))
}

func TestClipboardGetUsesCommandAndTrimsNewline(t *testing.T) {
	cfg := config.Default()
	cfg.ClipboardGet = config.CommandConfig{Argv: []string{"printf", "Zurich office\n"}}

	got, err := NewClipboard(cfg).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Zurich office", got)
}

func TestClipboardFallsBackToSystemClipboard(t *testing.T) {
	var written string
	c := &Clipboard{
		readAll:  func() (string, error) { return "from system", nil },
		writeAll: func(s string) error { written = s; return nil },
	}

	require.NoError(t, c.Set(context.Background(), "to system"))
	require.Equal(t, "to system", written)

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "from system", got)

	c.readAll = func() (string, error) { return "", errors.New("no clipboard utilities available") }
	_, err = c.Get(context.Background())
	require.Error(t, err)
}

func TestShellRunReturnsStdout(t *testing.T) {
	out, err := Shell{Timeout: time.Second}.Run(context.Background(), []string{"cat"}, "echo me")
	require.NoError(t, err)
	require.Equal(t, "echo me", out)
}

func TestShellRunTimesOut(t *testing.T) {
	_, err := Shell{Timeout: 20 * time.Millisecond}.Run(context.Background(), []string{"sleep", "5"}, "")
	require.Error(t, err)
}

func TestSpeakArgs(t *testing.T) {
	tests := []struct {
		name       string
		template   []string
		wantArgv   []string
		wantInline bool
	}{
		{
			name:       "inline text and lang",
			template:   []string{"espeak-ng", "-v", "{lang}", "{text}"},
			wantArgv:   []string{"espeak-ng", "-v", "de", "guten tag"},
			wantInline: true,
		},
		{
			name:     "stdin text",
			template: []string{"piper", "--lang={lang}"},
			wantArgv: []string{"piper", "--lang=de"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			argv, inline := speakArgs(tc.template, "guten tag", "de")
			require.Equal(t, tc.wantArgv, argv)
			require.Equal(t, tc.wantInline, inline)
		})
	}
}

func TestSpeakerSendsTextOnStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	spoken := filepath.Join(t.TempDir(), "spoken.txt")

	s := Speaker{Argv: []string{scriptPath, spoken}, Timeout: time.Second}
	require.NoError(t, s.Speak(context.Background(), "hello", "en"))

	data, err := os.ReadFile(spoken)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	require.Error(t, Speaker{}.Speak(context.Background(), "hello", "en"))
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture-stdin.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\ncat > \"$1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fail.sh")
	script := "#!/usr/bin/env bash\necho \"" + message + "\" >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
