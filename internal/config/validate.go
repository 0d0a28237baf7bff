package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := validateSegmenter(cfg.Segmenter); err != nil {
		return nil, err
	}

	engine := strings.ToLower(strings.TrimSpace(cfg.STT.Engine))
	switch engine {
	case "exec":
		if strings.TrimSpace(cfg.STT.Command) == "" {
			return nil, fmt.Errorf("stt.command must not be empty when stt.engine=exec")
		}
		if _, err := parseCommand(cfg.STT.Command); err != nil {
			return nil, fmt.Errorf("stt.command: %w", err)
		}
	case "openai":
		if strings.TrimSpace(cfg.STT.Model) == "" {
			return nil, fmt.Errorf("stt.model must not be empty when stt.engine=openai")
		}
		if APIKey(cfg.STT.APIKeyEnv) == "" && strings.TrimSpace(cfg.STT.BaseURL) == "" {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("stt: %s is unset and no base_url configured", cfg.STT.APIKeyEnv)})
		}
	default:
		return nil, fmt.Errorf("stt.engine must be one of: exec, openai")
	}
	if cfg.STT.MaxWorkers <= 0 {
		return nil, fmt.Errorf("stt.max_workers must be > 0")
	}
	if cfg.STT.TimeoutMS <= 0 {
		return nil, fmt.Errorf("stt.timeout_ms must be > 0")
	}

	if strings.TrimSpace(cfg.LLM.Model) == "" {
		return nil, fmt.Errorf("llm.model must not be empty")
	}
	if cfg.LLM.TimeoutMS <= 0 {
		return nil, fmt.Errorf("llm.timeout_ms must be > 0")
	}
	if cfg.LLM.MaxTokens < 0 {
		return nil, fmt.Errorf("llm.max_tokens must be >= 0")
	}
	if t := cfg.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return nil, fmt.Errorf("llm.temperature must be within [0, 2]")
	}
	if cfg.NER.TimeoutMS <= 0 {
		return nil, fmt.Errorf("ner.timeout_ms must be > 0")
	}
	if strings.TrimSpace(cfg.NER.URL) == "" {
		warnings = append(warnings, Warning{Message: "ner.url is unset; entity actions deliver {}"})
	}

	if strings.TrimSpace(cfg.Processing.DefaultMode) == "" {
		return nil, fmt.Errorf("processing.default_mode must not be empty")
	}
	if strings.TrimSpace(cfg.Processing.DefaultHint) == "" {
		return nil, fmt.Errorf("processing.default_hint must not be empty")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.MessageTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.message_timeout_ms must be >= 0")
	}

	if cfg.Translog.RetentionDays < 0 {
		return nil, fmt.Errorf("translog.retention_days must be >= 0")
	}
	if cfg.Translog.Enable && cfg.Translog.QueueSize <= 0 {
		return nil, fmt.Errorf("translog.queue_size must be > 0 when translog.enable=true")
	}
	if cfg.Shell.TimeoutMS <= 0 {
		return nil, fmt.Errorf("shell.timeout_ms must be > 0")
	}

	if len(cfg.Clipboard.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "clipboard_cmd is unset; using the system clipboard tools"})
	}
	if cfg.Paste.Enable && cfg.PasteCmd.Raw != "" && len(cfg.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste_cmd is configured but empty")
	}
	if cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Paste.Shortcut) == "" {
		return nil, fmt.Errorf("paste.shortcut must not be empty when paste.enable=true and paste_cmd is unset")
	}
	if len(cfg.TTS.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "tts_cmd is unset; speak actions are skipped"})
	}

	return warnings, nil
}

func validateSegmenter(s SegmenterConfig) error {
	if s.SilenceThreshold < 0 || s.SilenceThreshold > 1 {
		return fmt.Errorf("segmenter.silence_threshold must be within [0, 1]")
	}
	if s.FrameMS <= 0 {
		return fmt.Errorf("segmenter.frame_ms must be > 0")
	}
	if s.MinSegmentLengthMS < 0 || s.SilenceSpanMS < 0 || s.PreRollMS < 0 {
		return fmt.Errorf("segmenter durations must be >= 0")
	}
	if s.SilenceSpanMS > 0 && s.SilenceSpanMS < s.FrameMS {
		return fmt.Errorf("segmenter.silence_span_ms must be >= segmenter.frame_ms")
	}
	return nil
}
