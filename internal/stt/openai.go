package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEngine posts segments to an OpenAI-compatible /audio/transcriptions endpoint.
// Local servers such as whisper.cpp's server or faster-whisper-server speak the same API.
type OpenAIEngine struct {
	client   openai.Client
	model    string
	language string
}

// OpenAIOptions configures the HTTP engine.
type OpenAIOptions struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
}

func NewOpenAIEngine(opts OpenAIOptions) (*OpenAIEngine, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("stt model is required")
	}

	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	} else {
		// Local servers ignore the key but the SDK requires one.
		reqOpts = append(reqOpts, option.WithAPIKey("unused"))
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}

	return &OpenAIEngine{
		client:   openai.NewClient(reqOpts...),
		model:    model,
		language: strings.TrimSpace(opts.Language),
	}, nil
}

func (e *OpenAIEngine) Transcribe(ctx context.Context, pcm []byte, hint string) (string, error) {
	payload, err := WAVBytes(pcm)
	if err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(e.model),
		File:  openai.File(bytes.NewReader(payload), "segment.wav", "audio/wav"),
	}
	if language := languageCode(hint, e.language); language != "" {
		params.Language = openai.String(language)
	}

	resp, err := e.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// languageCode reduces a hint like "de-CH" to the ISO-639-1 code the API accepts.
func languageCode(hint string, fallback string) string {
	value := strings.TrimSpace(hint)
	if value == "" {
		value = fallback
	}
	if idx := strings.IndexAny(value, "-_"); idx > 0 {
		value = value[:idx]
	}
	return strings.ToLower(value)
}
