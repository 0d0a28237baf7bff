// Package llm sends prompts to an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("llm returned empty response")

// Client turns a prompt into text. An empty model selects the default.
type Client interface {
	Transform(ctx context.Context, prompt string, model string) (string, error)
}

// Options configures the OpenAI-compatible client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration
}

// OpenAI is a Client backed by the Chat Completions API.
type OpenAI struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature *float64
	timeout     time.Duration
}

// New returns an OpenAI-compatible client, or an error when the model is unset.
func New(opts Options) (*OpenAI, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("llm model is required")
	}

	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = "unused"
	}
	reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAI{
		client:      openai.NewClient(reqOpts...),
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		timeout:     timeout,
	}, nil
}

// Transform sends prompt as a single user message.
func (c *OpenAI) Transform(ctx context.Context, prompt string, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}
	if c.temperature != nil {
		params.Temperature = openai.Float(*c.temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Func adapts a function to Client.
type Func func(ctx context.Context, prompt string, model string) (string, error)

func (f Func) Transform(ctx context.Context, prompt string, model string) (string, error) {
	return f(ctx, prompt, model)
}
