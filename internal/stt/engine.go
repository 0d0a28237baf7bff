// Package stt provides speech-to-text engines for the transcription pool.
package stt

import (
	"fmt"
	"strings"

	"github.com/rbright/hark/internal/transcribe"
)

// Engine kinds accepted by New.
const (
	KindExec   = "exec"
	KindOpenAI = "openai"
)

// Options selects and configures one engine.
type Options struct {
	Kind     string
	Command  string
	BaseURL  string
	APIKey   string
	Model    string
	Language string
}

// New builds the configured engine.
func New(opts Options) (transcribe.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindExec:
		return NewExecEngine(opts.Command, opts.Language)
	case KindOpenAI:
		return NewOpenAIEngine(OpenAIOptions{
			BaseURL:  opts.BaseURL,
			APIKey:   opts.APIKey,
			Model:    opts.Model,
			Language: opts.Language,
		})
	default:
		return nil, fmt.Errorf("unknown stt engine %q", opts.Kind)
	}
}
