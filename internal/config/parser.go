package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Audio      *jsoncAudio      `json:"audio"`
	Segmenter  *jsoncSegmenter  `json:"segmenter"`
	STT        *jsoncSTT        `json:"stt"`
	LLM        *jsoncLLM        `json:"llm"`
	NER        *jsoncNER        `json:"ner"`
	Signals    *jsoncSignals    `json:"signals"`
	Processing *jsoncProcessing `json:"processing"`
	Paste      *jsoncPaste      `json:"paste"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	Translog   *jsoncTranslog   `json:"translog"`
	Metrics    *jsoncMetrics    `json:"metrics"`
	Shell      *jsoncShell      `json:"shell"`
	Debug      *jsoncDebug      `json:"debug"`

	ClipboardCmd    *string `json:"clipboard_cmd"`
	ClipboardGetCmd *string `json:"clipboard_get_cmd"`
	PasteCmd        *string `json:"paste_cmd"`
	TTSCmd          *string `json:"tts_cmd"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncSegmenter struct {
	SilenceThreshold   *float64 `json:"silence_threshold"`
	MinSegmentLengthMS *int     `json:"min_segment_length_ms"`
	SilenceSpanMS      *int     `json:"silence_span_ms"`
	PreRollMS          *int     `json:"pre_roll_ms"`
	FrameMS            *int     `json:"frame_ms"`
	HandsFree          *bool    `json:"hands_free"`
}

type jsoncSTT struct {
	Engine     *string `json:"engine"`
	Command    *string `json:"command"`
	BaseURL    *string `json:"base_url"`
	APIKeyEnv  *string `json:"api_key_env"`
	Model      *string `json:"model"`
	Language   *string `json:"language"`
	TimeoutMS  *int    `json:"timeout_ms"`
	MaxWorkers *int    `json:"max_workers"`
	HealthGRPC *string `json:"health_grpc"`
}

type jsoncLLM struct {
	BaseURL     *string  `json:"base_url"`
	APIKeyEnv   *string  `json:"api_key_env"`
	Model       *string  `json:"model"`
	TimeoutMS   *int     `json:"timeout_ms"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

type jsoncNER struct {
	URL       *string `json:"url"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncSignals struct {
	Path *string `json:"path"`
}

type jsoncProcessing struct {
	DefaultMode   *string     `json:"default_mode"`
	DefaultHint   *string     `json:"default_hint"`
	FilterPhrases *stringList `json:"filter_phrases"`
	ResetModes    *stringList `json:"reset_modes"`
	ResetHints    *stringList `json:"reset_hints"`
}

type jsoncPaste struct {
	Enable   *bool   `json:"enable"`
	Shortcut *string `json:"shortcut"`
}

type jsoncIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
	MessageTimeoutMS  *int    `json:"message_timeout_ms"`
}

type jsoncTranslog struct {
	Enable        *bool   `json:"enable"`
	Path          *string `json:"path"`
	NATSURL       *string `json:"nats_url"`
	NATSSubject   *string `json:"nats_subject"`
	RetentionDays *int    `json:"retention_days"`
	QueueSize     *int    `json:"queue_size"`
}

type jsoncMetrics struct {
	Listen *string `json:"listen"`
}

type jsoncShell struct {
	TimeoutMS *int `json:"timeout_ms"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
	Verbose   *bool `json:"verbose"`
}

// Parse overlays JSONC content onto base and validates the result.
// Blank content validates base unchanged.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg, warnings, err := overlay(content, base)
	if err != nil {
		return Config{}, nil, err
	}
	validated, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validated...), nil
}

func overlay(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		return base, nil, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *[]string, src *stringList) {
	if src != nil {
		*dst = append([]string(nil), (*src)...)
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	var warnings []Warning

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if s := payload.Segmenter; s != nil {
		if s.SilenceThreshold != nil {
			cfg.Segmenter.SilenceThreshold = *s.SilenceThreshold
		}
		setInt(&cfg.Segmenter.MinSegmentLengthMS, s.MinSegmentLengthMS)
		setInt(&cfg.Segmenter.SilenceSpanMS, s.SilenceSpanMS)
		setInt(&cfg.Segmenter.PreRollMS, s.PreRollMS)
		setInt(&cfg.Segmenter.FrameMS, s.FrameMS)
		setBool(&cfg.Segmenter.HandsFree, s.HandsFree)
	}

	if s := payload.STT; s != nil {
		setString(&cfg.STT.Engine, s.Engine)
		setString(&cfg.STT.Command, s.Command)
		setString(&cfg.STT.BaseURL, s.BaseURL)
		setString(&cfg.STT.APIKeyEnv, s.APIKeyEnv)
		setString(&cfg.STT.Model, s.Model)
		setString(&cfg.STT.Language, s.Language)
		setInt(&cfg.STT.TimeoutMS, s.TimeoutMS)
		setInt(&cfg.STT.MaxWorkers, s.MaxWorkers)
		setString(&cfg.STT.HealthGRPC, s.HealthGRPC)
	}

	if l := payload.LLM; l != nil {
		setString(&cfg.LLM.BaseURL, l.BaseURL)
		setString(&cfg.LLM.APIKeyEnv, l.APIKeyEnv)
		setString(&cfg.LLM.Model, l.Model)
		setInt(&cfg.LLM.TimeoutMS, l.TimeoutMS)
		setInt(&cfg.LLM.MaxTokens, l.MaxTokens)
		if l.Temperature != nil {
			temperature := *l.Temperature
			cfg.LLM.Temperature = &temperature
		}
	}

	if n := payload.NER; n != nil {
		setString(&cfg.NER.URL, n.URL)
		setInt(&cfg.NER.TimeoutMS, n.TimeoutMS)
	}

	if payload.Signals != nil {
		setString(&cfg.Signals.Path, payload.Signals.Path)
	}

	if p := payload.Processing; p != nil {
		setString(&cfg.Processing.DefaultMode, p.DefaultMode)
		setString(&cfg.Processing.DefaultHint, p.DefaultHint)
		setList(&cfg.Processing.FilterPhrases, p.FilterPhrases)
		setList(&cfg.Processing.ResetModes, p.ResetModes)
		setList(&cfg.Processing.ResetHints, p.ResetHints)
	}

	if p := payload.Paste; p != nil {
		setBool(&cfg.Paste.Enable, p.Enable)
		setString(&cfg.Paste.Shortcut, p.Shortcut)
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setString(&cfg.Indicator.SoundStopFile, i.SoundStopFile)
		setString(&cfg.Indicator.SoundCompleteFile, i.SoundCompleteFile)
		setString(&cfg.Indicator.SoundCancelFile, i.SoundCancelFile)
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
		setInt(&cfg.Indicator.MessageTimeoutMS, i.MessageTimeoutMS)
	}

	if t := payload.Translog; t != nil {
		setBool(&cfg.Translog.Enable, t.Enable)
		setString(&cfg.Translog.Path, t.Path)
		setString(&cfg.Translog.NATSURL, t.NATSURL)
		setString(&cfg.Translog.NATSSubject, t.NATSSubject)
		setInt(&cfg.Translog.RetentionDays, t.RetentionDays)
		setInt(&cfg.Translog.QueueSize, t.QueueSize)
	}

	if payload.Metrics != nil {
		setString(&cfg.Metrics.Listen, payload.Metrics.Listen)
	}
	if payload.Shell != nil {
		setInt(&cfg.Shell.TimeoutMS, payload.Shell.TimeoutMS)
	}
	if d := payload.Debug; d != nil {
		setBool(&cfg.Debug.EnableAudioDump, d.AudioDump)
		setBool(&cfg.Debug.Verbose, d.Verbose)
	}

	commands := []struct {
		field string
		raw   *string
		dst   *CommandConfig
	}{
		{field: "clipboard_cmd", raw: payload.ClipboardCmd, dst: &cfg.Clipboard},
		{field: "clipboard_get_cmd", raw: payload.ClipboardGetCmd, dst: &cfg.ClipboardGet},
		{field: "paste_cmd", raw: payload.PasteCmd, dst: &cfg.PasteCmd},
		{field: "tts_cmd", raw: payload.TTSCmd, dst: &cfg.TTS},
	}
	for _, c := range commands {
		if c.raw == nil {
			continue
		}
		parsed, err := commandConfig(c.field, *c.raw)
		if err != nil {
			return nil, err
		}
		*c.dst = parsed
	}

	if payload.STT != nil && payload.STT.Command != nil && cfg.STT.Engine != "exec" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("stt.command is ignored when stt.engine=%q", cfg.STT.Engine)})
	}

	return warnings, nil
}
