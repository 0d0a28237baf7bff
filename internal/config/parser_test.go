package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOverlaysSections(t *testing.T) {
	content := `
{
  "stt": {
    "engine": "openai",
    "base_url": "http://127.0.0.1:8000/v1",
    "model": "whisper-large-v3",
    "max_workers": 4
  },
  "llm": { "model": "llama3", "temperature": 0.2, "max_tokens": 512 },
  "ner": { "url": "http://127.0.0.1:9100/entities" },
  "signals": { "path": "commands.yaml" },
  "processing": {
    "default_mode": "llm",
    "filter_phrases": "thank you, you",
    "reset_hints": ["de-DE"]
  },
  "segmenter": { "hands_free": false, "silence_span_ms": 600 },
  "translog": { "nats_url": "nats://127.0.0.1:4222", "retention_days": 30 },
  "metrics": { "listen": "127.0.0.1:9464" },
  "tts_cmd": "espeak-ng -v {lang}",
  "clipboard_get_cmd": "wl-paste -n",
  "debug": { "audio_dump": true }
}
`
	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)

	require.Equal(t, "openai", cfg.STT.Engine)
	require.Equal(t, "whisper-large-v3", cfg.STT.Model)
	require.Equal(t, 4, cfg.STT.MaxWorkers)
	require.Equal(t, "llama3", cfg.LLM.Model)
	require.NotNil(t, cfg.LLM.Temperature)
	require.InDelta(t, 0.2, *cfg.LLM.Temperature, 1e-9)
	require.Equal(t, 512, cfg.LLM.MaxTokens)
	require.Equal(t, "http://127.0.0.1:9100/entities", cfg.NER.URL)
	require.Equal(t, "commands.yaml", cfg.Signals.Path)
	require.Equal(t, "llm", cfg.Processing.DefaultMode)
	require.Equal(t, "en", cfg.Processing.DefaultHint)
	require.Equal(t, []string{"thank you", "you"}, cfg.Processing.FilterPhrases)
	require.Equal(t, []string{"de-DE"}, cfg.Processing.ResetHints)
	require.Equal(t, []string{"de-CH"}, cfg.Processing.ResetModes)
	require.False(t, cfg.Segmenter.HandsFree)
	require.Equal(t, 600, cfg.Segmenter.SilenceSpanMS)
	require.Equal(t, 20, cfg.Segmenter.FrameMS)
	require.Equal(t, "nats://127.0.0.1:4222", cfg.Translog.NATSURL)
	require.Equal(t, 30, cfg.Translog.RetentionDays)
	require.Equal(t, "127.0.0.1:9464", cfg.Metrics.Listen)
	require.Equal(t, []string{"espeak-ng", "-v", "{lang}"}, cfg.TTS.Argv)
	require.Equal(t, []string{"wl-paste", "-n"}, cfg.ClipboardGet.Argv)
	require.Equal(t, []string{"wl-copy", "--trim-newline"}, cfg.Clipboard.Argv)
	require.True(t, cfg.Debug.EnableAudioDump)
}

func TestParseBlankContentKeepsBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NotEmpty(t, warnings)
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown key", content: `{"whisper": {}}`, want: "unknown field"},
		{name: "syntax error position", content: "{\n  \"stt\": {\n    \"engine\" \"exec\"\n  }\n}", want: "line 3"},
		{name: "type mismatch", content: `{"stt": {"max_workers": "many"}}`, want: "line 1"},
		{name: "multiple values", content: `{} {}`, want: "multiple JSON values"},
		{name: "bad command quoting", content: `{"tts_cmd": "say 'unterminated"}`, want: "invalid tts_cmd"},
		{name: "invalid engine", content: `{"stt": {"engine": "vosk"}}`, want: "stt.engine"},
		{name: "zero workers", content: `{"stt": {"max_workers": 0}}`, want: "stt.max_workers"},
		{name: "temperature range", content: `{"llm": {"temperature": 3}}`, want: "llm.temperature"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.content, Default())
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestParseWarnsWhenCommandIgnored(t *testing.T) {
	_, warnings, err := Parse(`{"stt": {"engine": "openai", "command": "whisper-cli"}}`, Default())
	require.NoError(t, err)

	var messages []string
	for _, w := range warnings {
		messages = append(messages, w.Message)
	}
	require.Contains(t, messages, `stt.command is ignored when stt.engine="openai"`)
}
