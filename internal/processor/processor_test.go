package processor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/signal"
	"github.com/rbright/hark/internal/state"
	"github.com/rbright/hark/internal/transcript"
	"github.com/rbright/hark/internal/translog"
)

type transcribeCall struct {
	pcm  []byte
	hint string
}

type fakeTranscriber struct {
	mu     sync.Mutex
	byHint map[string]string
	calls  []transcribeCall
}

func (f *fakeTranscriber) Transcribe(_ context.Context, pcm []byte, hint string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transcribeCall{pcm: pcm, hint: hint})
	return f.byHint[hint]
}

type llmCall struct {
	prompt string
	model  string
}

type fakeLLM struct {
	reply string
	err   error
	calls []llmCall
}

func (f *fakeLLM) Transform(_ context.Context, prompt string, model string) (string, error) {
	f.calls = append(f.calls, llmCall{prompt: prompt, model: model})
	return f.reply, f.err
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) ShowMessage(_ context.Context, text string) {
	f.messages = append(f.messages, text)
}

type fakeClipboard struct{ text string }

func (f fakeClipboard) Get(context.Context) (string, error) { return f.text, nil }

type fakeLog struct{ entries []translog.Entry }

func (f *fakeLog) Log(e translog.Entry) { f.entries = append(f.entries, e) }

func table(t *testing.T, doc string) *signal.Store {
	t.Helper()
	tbl, _, err := signal.Parse([]byte(doc))
	require.NoError(t, err)
	return signal.NewStore(tbl)
}

var normal = state.State{Mode: state.ModeNormal, Hint: "en"}

func TestNormalModePassthrough(t *testing.T) {
	t.Parallel()

	stt := &fakeTranscriber{byHint: map[string]string{"en": "hello world"}}
	model := &fakeLLM{}
	log := &fakeLog{}
	p := New(Options{Transcriber: stt, LLM: model, Cleaner: transcript.MustCleaner(transcript.DefaultFilterPhrases), Log: log})

	res := p.Process(context.Background(), Utterance{ID: "u1", PCM: []byte{1, 2}}, normal)
	require.Equal(t, Result{Text: "hello world", Delivered: true, State: normal}, res)
	require.Empty(t, model.calls)

	require.Len(t, log.entries, 1)
	require.Equal(t, "u1", log.entries[0].ID)
	require.Equal(t, "hello world", log.entries[0].Text)
	require.True(t, log.entries[0].Delivered)
}

func TestLLMMode(t *testing.T) {
	t.Parallel()

	st := state.State{Mode: state.ModeLLM, Hint: "en"}
	stt := &fakeTranscriber{byHint: map[string]string{"en": "summarize this"}}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		model := &fakeLLM{reply: "Summary."}
		notifier := &fakeNotifier{}
		p := New(Options{Transcriber: stt, LLM: model, Notifier: notifier})

		res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, st)
		require.True(t, res.Delivered)
		require.Equal(t, "Summary.", res.Text)
		require.Equal(t, []llmCall{{prompt: "summarize this"}}, model.calls)
		require.Equal(t, []string{"Sending to LLM..."}, notifier.messages)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		model := &fakeLLM{err: context.DeadlineExceeded}
		p := New(Options{Transcriber: stt, LLM: model})

		res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, st)
		require.False(t, res.Delivered)
		require.Empty(t, res.Text)
		require.Equal(t, st, res.State)
	})
}

func TestSignalSelectsTemplatedMode(t *testing.T) {
	t.Parallel()

	store := table(t, `
signals:
  - name: "mode:de-CH"
    trigger: translate
    template: "{text}"
    llm_model_override: swiss-model
`)
	stt := &fakeTranscriber{byHint: map[string]string{"en": "translate hello there"}}
	model := &fakeLLM{reply: "Hoi zäme"}
	notifier := &fakeNotifier{}
	p := New(Options{Transcriber: stt, LLM: model, Signals: store, Notifier: notifier})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, normal)
	require.True(t, res.Delivered)
	require.Equal(t, "Hoi zäme", res.Text)
	require.Equal(t, "mode:de-CH", res.Signal)
	require.Equal(t, state.ModeSwissGerman, res.State.Mode)
	require.Equal(t, []llmCall{{prompt: "hello there", model: "swiss-model"}}, model.calls)
	require.Equal(t, []string{"Translating..."}, notifier.messages)
}

func TestEmptyAfterCleaningMakesNoCalls(t *testing.T) {
	t.Parallel()

	stt := &fakeTranscriber{byHint: map[string]string{"en": "Thank you."}}
	model := &fakeLLM{reply: "x"}
	log := &fakeLog{}
	p := New(Options{
		Transcriber: stt,
		LLM:         model,
		Cleaner:     transcript.MustCleaner(transcript.DefaultFilterPhrases),
		Log:         log,
	})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, state.State{Mode: state.ModeLLM, Hint: "en"})
	require.False(t, res.Delivered)
	require.Empty(t, res.Text)
	require.Empty(t, model.calls)
	require.Empty(t, log.entries)
}

func TestEmptyTranscriptIsNotDelivered(t *testing.T) {
	t.Parallel()

	stt := &fakeTranscriber{byHint: map[string]string{}}
	p := New(Options{Transcriber: stt})

	res := p.Process(context.Background(), Utterance{}, normal)
	require.Equal(t, Result{State: normal}, res)
}

func TestRehintTranscribesSameSegmentOnce(t *testing.T) {
	t.Parallel()

	store := table(t, `
signals:
  - name: german
    trigger: german
    action: ["language:de-DE"]
`)
	stt := &fakeTranscriber{byHint: map[string]string{
		"en":    "german hello friends",
		"de-DE": "German, hallo Freunde",
	}}
	p := New(Options{Transcriber: stt, Signals: store})

	pcm := []byte{9, 8, 7, 6}
	res := p.Process(context.Background(), Utterance{PCM: pcm}, normal)

	require.True(t, res.Delivered)
	require.Equal(t, "hallo Freunde", res.Text)
	require.Equal(t, "de-DE", res.State.Hint)
	require.Len(t, stt.calls, 2)
	require.Equal(t, pcm, stt.calls[0].pcm)
	require.Equal(t, pcm, stt.calls[1].pcm)
	require.Equal(t, "de-DE", stt.calls[1].hint)
}

func TestRehintWithoutSecondMatchUsesWholeText(t *testing.T) {
	t.Parallel()

	store := table(t, `
signals:
  - name: german
    trigger: german
    action: ["language:de-DE"]
`)
	stt := &fakeTranscriber{byHint: map[string]string{
		"en":    "german hello",
		"de-DE": "Deutsch hallo",
	}}
	p := New(Options{Transcriber: stt, Signals: store})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, normal)
	require.True(t, res.Delivered)
	require.Equal(t, "Deutsch hallo", res.Text)
	require.Len(t, stt.calls, 2)
}

func TestRehintEmptyIsNotDelivered(t *testing.T) {
	t.Parallel()

	store := table(t, "signals:\n  - name: g\n    trigger: german\n    action: [\"language:de\"]\n")
	stt := &fakeTranscriber{byHint: map[string]string{"en": "german hello"}}
	p := New(Options{Transcriber: stt, Signals: store})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, normal)
	require.False(t, res.Delivered)
	require.Equal(t, "de", res.State.Hint)
}

func TestDeliverableShortCircuitsModeResolution(t *testing.T) {
	t.Parallel()

	store := table(t, `
signals:
  - name: list
    trigger: shopping list
    action: ["mode:llm", "process_template"]
    template: "- {text}\n- {clipboard}"
`)
	stt := &fakeTranscriber{byHint: map[string]string{"en": "shopping list milk"}}
	model := &fakeLLM{reply: "should not be used"}
	p := New(Options{Transcriber: stt, Signals: store, LLM: model, Clipboard: fakeClipboard{text: "eggs"}})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, normal)
	require.True(t, res.Delivered)
	require.Equal(t, "- milk\n- eggs", res.Text)
	require.Equal(t, state.ModeLLM, res.State.Mode)
	require.Empty(t, model.calls)
}

func TestSignalWithNoRemainingTextIsNotDelivered(t *testing.T) {
	t.Parallel()

	store := table(t, "signals:\n  - name: llm-on\n    trigger: llm mode\n    action: [\"mode:llm\"]\n")
	stt := &fakeTranscriber{byHint: map[string]string{"en": "LLM mode."}}
	model := &fakeLLM{reply: "x"}
	p := New(Options{Transcriber: stt, Signals: store, LLM: model})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, normal)
	require.False(t, res.Delivered)
	require.Equal(t, state.ModeLLM, res.State.Mode)
	require.Empty(t, model.calls)
}

func TestModeErrors(t *testing.T) {
	t.Parallel()

	stt := &fakeTranscriber{byHint: map[string]string{"en": "hello"}}

	tests := []struct {
		name string
		doc  string
		mode state.Mode
		want string
	}{
		{name: "swiss german missing", doc: "", mode: state.ModeSwissGerman, want: "Error: Config for mode 'de-CH' missing."},
		{name: "template missing", doc: "signals:\n  - name: \"mode:pirate\"\n", mode: "pirate", want: "Error: Config for mode 'pirate' missing."},
		{name: "unknown mode", doc: "", mode: "klingon", want: "Error: Unknown mode 'klingon'"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			model := &fakeLLM{reply: "x"}
			p := New(Options{Transcriber: stt, Signals: table(t, tc.doc), LLM: model})
			res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, state.State{Mode: tc.mode, Hint: "en"})
			require.False(t, res.Delivered)
			require.Equal(t, tc.want, res.Text)
			require.Empty(t, model.calls)
		})
	}
}

func TestCustomTemplatedMode(t *testing.T) {
	t.Parallel()

	store := table(t, "signals:\n  - name: \"mode:pirate\"\n    template: \"Say like a pirate: {text}\"\n")
	stt := &fakeTranscriber{byHint: map[string]string{"en": "hello"}}
	model := &fakeLLM{reply: "Ahoy"}
	p := New(Options{Transcriber: stt, Signals: store, LLM: model})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, state.State{Mode: "pirate", Hint: "en"})
	require.True(t, res.Delivered)
	require.Equal(t, "Ahoy", res.Text)
	require.Equal(t, "Say like a pirate: hello", model.calls[0].prompt)
}

func TestLLMFailureInActionFallsThroughToMode(t *testing.T) {
	t.Parallel()

	store := table(t, "signals:\n  - name: ask\n    trigger: ask\n    action: [llm]\n")
	stt := &fakeTranscriber{byHint: map[string]string{"en": "ask what time is it"}}
	model := &fakeLLM{err: errors.New("down")}
	p := New(Options{Transcriber: stt, Signals: store, LLM: model})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, normal)
	require.True(t, res.Delivered)
	require.Equal(t, "what time is it", res.Text)
	require.Len(t, model.calls, 1)
}

func TestOverlayShownBeforeLLMAction(t *testing.T) {
	t.Parallel()

	store := table(t, `
signals:
  - name: ask
    trigger: ask
    overlay_message: "Thinking"
    action: [llm]
`)
	stt := &fakeTranscriber{byHint: map[string]string{"en": "ask what time is it"}}
	model := &fakeLLM{reply: "Noon."}
	notifier := &fakeNotifier{}
	p := New(Options{Transcriber: stt, Signals: store, LLM: model, Notifier: notifier})

	res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, normal)
	require.True(t, res.Delivered)
	require.Equal(t, "Noon.", res.Text)
	require.Equal(t, []string{"Thinking", "Sending to LLM..."}, notifier.messages)
}

func TestModeSignalNameSwitchesOnlyWithTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		doc    string
		spoken string
		want   state.Mode
	}{
		{
			name:   "templated entry switches",
			doc:    "signals:\n  - name: \"mode:pirate\"\n    trigger: pirate\n    template: \"Say like a pirate: {text}\"\n",
			spoken: "pirate",
			want:   "pirate",
		},
		{
			name:   "untemplated entry keeps mode",
			doc:    "signals:\n  - name: \"mode:help\"\n    trigger: help me\n    action: [\"language:en\"]\n",
			spoken: "help me",
			want:   state.ModeNormal,
		},
		{
			name:   "explicit mode action wins",
			doc:    "signals:\n  - name: \"mode:help\"\n    trigger: help me\n    action: [\"mode:llm\"]\n",
			spoken: "help me",
			want:   state.ModeLLM,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stt := &fakeTranscriber{byHint: map[string]string{"en": tc.spoken}}
			p := New(Options{Transcriber: stt, Signals: table(t, tc.doc), LLM: &fakeLLM{reply: "x"}})

			res := p.Process(context.Background(), Utterance{PCM: []byte{1}}, normal)
			require.Equal(t, tc.want, res.State.Mode)
		})
	}
}
