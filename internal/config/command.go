package config

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// parseCommand splits a command line with shell quoting rules.
// Blank input and comment-only input yield an empty argv.
func parseCommand(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}
	argv, err := shellwords.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", raw, err)
	}
	return argv, nil
}

func mustParseCommand(raw string) []string {
	argv, err := parseCommand(raw)
	if err != nil {
		panic(err)
	}
	return argv
}

func commandConfig(field string, raw string) (CommandConfig, error) {
	argv, err := parseCommand(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}
