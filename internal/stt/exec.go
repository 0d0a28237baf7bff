package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

const (
	audioPlaceholder    = "{audio}"
	languagePlaceholder = "{language}"
)

// ExecEngine runs a local recognizer command once per segment.
//
// The command receives a temporary WAV file. If no argument contains {audio}
// the path is appended. {language} expands to the hint (or the default
// language). Stdout is either JSON with a "text" field or plain text.
type ExecEngine struct {
	argv     []string
	language string
	tempDir  string
}

type execResult struct {
	Text string `json:"text"`
}

// NewExecEngine parses command with shell quoting rules.
func NewExecEngine(command string, language string) (*ExecEngine, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	argv, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("stt command is empty")
	}
	return &ExecEngine{argv: argv, language: strings.TrimSpace(language)}, nil
}

// Binary returns the executable name for readiness checks.
func (e *ExecEngine) Binary() string {
	return e.argv[0]
}

func (e *ExecEngine) Transcribe(ctx context.Context, pcm []byte, hint string) (string, error) {
	file, err := os.CreateTemp(e.tempDir, "hark-stt-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := EncodeWAV(file, pcm); err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close temp wav: %w", err)
	}

	language := strings.TrimSpace(hint)
	if language == "" {
		language = e.language
	}
	args := e.expandArgs(file.Name(), language)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("stt command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return decodeOutput(stdout.Bytes())
}

func (e *ExecEngine) expandArgs(audioPath string, language string) []string {
	args := make([]string, 0, len(e.argv)+1)
	sawAudio := false
	for _, arg := range e.argv {
		if strings.Contains(arg, audioPlaceholder) {
			sawAudio = true
			arg = strings.ReplaceAll(arg, audioPlaceholder, audioPath)
		}
		arg = strings.ReplaceAll(arg, languagePlaceholder, language)
		args = append(args, arg)
	}
	if !sawAudio {
		args = append(args, audioPath)
	}
	return args
}

func decodeOutput(raw []byte) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var resp execResult
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return "", fmt.Errorf("decode stt response: %w", err)
		}
		return strings.TrimSpace(resp.Text), nil
	}
	return string(trimmed), nil
}
