package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path        string
	SignalsPath string
	Config      Config
	Warnings    []Warning
	Exists      bool
}

// Load resolves, reads, overlays, applies HARK_* overrides, and validates.
func Load(explicitPath string) (Loaded, error) {
	return load(explicitPath, os.LookupEnv)
}

func load(explicitPath string, lookup func(string) (string, bool)) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	var (
		cfg      = Default()
		warnings []Warning
		exists   = true
	)

	content, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		exists = false
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	default:
		var fileWarnings []Warning
		cfg, fileWarnings, err = overlay(string(content), cfg)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
		warnings = append(warnings, fileWarnings...)
	}

	cfg, envWarnings := applyEnv(cfg, lookup)
	warnings = append(warnings, envWarnings...)

	validated, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("config %q: %w", resolvedPath, err)
	}

	return Loaded{
		Path:        resolvedPath,
		SignalsPath: SignalsPath(resolvedPath, cfg),
		Config:      cfg,
		Warnings:    append(warnings, validated...),
		Exists:      exists,
	}, nil
}
