package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath applies CLI/XDG/home fallback rules for config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "hark", "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "hark", "config.jsonc"), nil
}

// SignalsPath returns the signal table location. Relative paths resolve
// against the directory holding the config file.
func SignalsPath(configPath string, cfg Config) string {
	return relativeTo(filepath.Dir(configPath), cfg.Signals.Path, "signals.yaml")
}

// TranslogPath returns the sqlite history location, defaulting to
// $XDG_DATA_HOME/hark/history.db.
func TranslogPath(cfg Config) (string, error) {
	if p := strings.TrimSpace(cfg.Translog.Path); p != "" {
		return expandHome(p)
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "hark", "history.db"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for translog path")
	}
	return filepath.Join(home, ".local", "share", "hark", "history.db"), nil
}

func relativeTo(dir, path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = fallback
	}
	if expanded, err := expandHome(path); err == nil {
		path = expanded
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, rest), nil
}
