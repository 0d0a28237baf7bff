package action

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/state"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Action
	}{
		{raw: "mode:de-CH", want: SetMode{Mode: state.ModeSwissGerman}},
		{raw: " mode : llm ", want: SetMode{Mode: state.ModeLLM}},
		{raw: "language:de-DE", want: SetHint{Hint: "de-DE"}},
		{raw: "stt_language:de", want: SetHint{Hint: "de"}},
		{raw: "llm", want: CallLLM{}},
		{raw: "llm:claude-3-haiku-20240307", want: CallLLM{Model: "claude-3-haiku-20240307"}},
		{raw: "llm:model=gpt-4o-mini", want: CallLLM{Model: "gpt-4o-mini"}},
		{raw: "process_template", want: RenderTemplate{}},
		{raw: "ner_extract:types_source=spoken", want: ExtractEntities{FromSpeech: true, Threshold: 0.5}},
		{
			raw:  "ner_extract:types=person,city,threshold=0.4",
			want: ExtractEntities{Types: "person,city", Threshold: 0.4},
		},
		{raw: `shell:tr a-z A-Z`, want: RunShell{Argv: []string{"tr", "a-z", "A-Z"}}},
		{raw: `shell:sed 's/a=b/c/' --x={text}`, want: RunShell{Argv: []string{"sed", "s/a=b/c/", "--x={text}"}}},
		{raw: "speak", want: Speak{}},
		{raw: "speak:en", want: Speak{Lang: "en"}},
		{raw: "noop", want: Noop{}},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		unknown bool
	}{
		{raw: "", unknown: true},
		{raw: ":x", unknown: true},
		{raw: "teleport:mars", unknown: true},
		{raw: "mode"},
		{raw: "mode:"},
		{raw: "language"},
		{raw: "ner_extract"},
		{raw: "ner_extract:types=person,threshold=high"},
		{raw: "shell:"},
		{raw: `shell:echo "unterminated`},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.raw)
			require.Error(t, err)
			if tc.unknown {
				require.ErrorIs(t, err, ErrUnknownAction)
			}
		})
	}
}

func TestParseListKeepsValidEntries(t *testing.T) {
	t.Parallel()

	actions, errs := ParseList([]string{"mode:llm", "bogus", "language:de"})
	require.Equal(t, []Action{SetMode{Mode: state.ModeLLM}, SetHint{Hint: "de"}}, actions)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrUnknownAction)
}

func TestRender(t *testing.T) {
	t.Parallel()

	ctx := Context{Text: "hello", Clipboard: "clip"}
	tests := []struct {
		name     string
		template string
		want     string
		wantErr  bool
	}{
		{name: "text", template: "Translate: {text}", want: "Translate: hello"},
		{name: "both", template: "{clipboard} / {text}", want: "clip / hello"},
		{name: "escaped braces", template: `{{"q": "{text}"}}`, want: `{"q": "hello"}`},
		{name: "no tokens", template: "plain", want: "plain"},
		{name: "unknown field", template: "{name}", wantErr: true},
		{name: "unclosed", template: "{text", wantErr: true},
		{name: "stray close", template: "a } b", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Render(tc.template, ctx)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrTemplate)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
