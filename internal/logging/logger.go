// Package logging sets up the JSONL runtime log shared by the daemon and
// its short-lived client invocations.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Runtime owns the log file behind Logger.
type Runtime struct {
	Logger *slog.Logger
	Path   string

	level *slog.LevelVar
	file  *os.File
}

// DefaultPath is $XDG_STATE_HOME/hark/log.jsonl, or ~/.local/state/hark/log.jsonl.
func DefaultPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); dir != "" {
		return filepath.Join(dir, "hark", "log.jsonl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve log path: %w", err)
	}
	return filepath.Join(home, ".local", "state", "hark", "log.jsonl"), nil
}

// New opens the log at DefaultPath.
func New() (*Runtime, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Open appends JSON lines to path at Info level. Every line carries the pid
// so daemon and client entries in the shared file can be told apart.
func Open(path string) (*Runtime, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	level := new(slog.LevelVar)
	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return &Runtime{
		Logger: slog.New(handler).With(slog.Int("pid", os.Getpid())),
		Path:   path,
		level:  level,
		file:   f,
	}, nil
}

// Discard returns a runtime whose logger drops everything.
func Discard() *Runtime {
	return &Runtime{Logger: slog.New(slog.DiscardHandler)}
}

// SetVerbose toggles Debug output once config is known.
func (r *Runtime) SetVerbose(verbose bool) {
	if r.level == nil {
		return
	}
	r.level.Set(slog.LevelInfo)
	if verbose {
		r.level.Set(slog.LevelDebug)
	}
}

func (r *Runtime) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
