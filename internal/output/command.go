package output

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// runCommand executes argv with input on stdin and returns stdout.
// Stderr is folded into the error on failure.
func runCommand(ctx context.Context, argv []string, input string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("command argv cannot be empty")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("run %s: %w (%s)", argv[0], err, msg)
		}
		return "", fmt.Errorf("run %s: %w", argv[0], err)
	}
	return stdout.String(), nil
}

// Shell runs shell actions under a fixed timeout.
type Shell struct {
	Timeout time.Duration
}

// Run executes argv with stdin and returns its stdout.
func (s Shell) Run(ctx context.Context, argv []string, stdin string) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return runCommand(ctx, argv, stdin)
}

// Speaker voices text through an external TTS command. The argv may carry
// {text} and {lang} placeholders; without {text} the text goes to stdin.
type Speaker struct {
	Argv    []string
	Timeout time.Duration
}

// Speak runs the TTS command for text.
func (s Speaker) Speak(ctx context.Context, text string, lang string) error {
	if len(s.Argv) == 0 {
		return fmt.Errorf("tts_cmd is not configured")
	}

	argv, inline := speakArgs(s.Argv, text, lang)
	stdin := text
	if inline {
		stdin = ""
	}

	shell := Shell{Timeout: s.Timeout}
	_, err := shell.Run(ctx, argv, stdin)
	return err
}

func speakArgs(template []string, text string, lang string) ([]string, bool) {
	argv := make([]string, 0, len(template))
	inline := false
	for _, arg := range template {
		if strings.Contains(arg, "{text}") {
			inline = true
		}
		arg = strings.ReplaceAll(arg, "{text}", text)
		arg = strings.ReplaceAll(arg, "{lang}", lang)
		argv = append(argv, arg)
	}
	return argv, inline
}
