// Package config resolves, parses, validates, and defaults hark configuration.
package config

// Config is the fully materialized runtime configuration used by hark.
type Config struct {
	Audio      AudioConfig
	Segmenter  SegmenterConfig
	STT        STTConfig
	LLM        LLMConfig
	NER        NERConfig
	Signals    SignalsConfig
	Processing ProcessingConfig
	Paste      PasteConfig
	Indicator  IndicatorConfig
	Translog   TranslogConfig
	Metrics    MetricsConfig
	Shell      ShellConfig

	Clipboard    CommandConfig
	ClipboardGet CommandConfig
	PasteCmd     CommandConfig
	TTS          CommandConfig
	Debug        DebugConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// SegmenterConfig controls utterance boundary detection.
type SegmenterConfig struct {
	SilenceThreshold   float64
	MinSegmentLengthMS int
	SilenceSpanMS      int
	PreRollMS          int
	FrameMS            int
	// HandsFree emits utterances on trailing silence while recording.
	HandsFree bool
}

// STTConfig selects and tunes the speech engine.
type STTConfig struct {
	Engine     string
	Command    string
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Language   string
	TimeoutMS  int
	MaxWorkers int
	HealthGRPC string
}

// LLMConfig configures the OpenAI-compatible chat endpoint.
type LLMConfig struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	TimeoutMS   int
	MaxTokens   int
	Temperature *float64
}

// NERConfig points at the entity extraction service.
type NERConfig struct {
	URL       string
	TimeoutMS int
}

// SignalsConfig locates the YAML signal table.
type SignalsConfig struct {
	Path string
}

// ProcessingConfig holds mode defaults, auto-reset lists, and filter phrases.
type ProcessingConfig struct {
	DefaultMode   string
	DefaultHint   string
	FilterPhrases []string
	ResetModes    []string
	ResetHints    []string
}

// PasteConfig controls post-commit paste behavior.
type PasteConfig struct {
	Enable   bool
	Shortcut string
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	ErrorTimeoutMS    int
	MessageTimeoutMS  int
}

// TranslogConfig controls the transcription history sinks.
type TranslogConfig struct {
	Enable        bool
	Path          string
	NATSURL       string
	NATSSubject   string
	RetentionDays int
	QueueSize     int
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Listen string
}

// ShellConfig bounds shell actions and speech commands.
type ShellConfig struct {
	TimeoutMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	Verbose         bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
