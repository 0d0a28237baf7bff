package action

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/hark/internal/llm"
	"github.com/rbright/hark/internal/metrics"
	"github.com/rbright/hark/internal/ner"
	"github.com/rbright/hark/internal/state"
)

// StatusLLM is shown before every LLM call.
const StatusLLM = "Sending to LLM..."

var errNoPrompt = errors.New("no prompt: signal has no template and no text followed the trigger")

// Context is the read-only input to one action list.
type Context struct {
	Text      string
	Clipboard string
}

// Signal carries the matched signal fields actions may use.
type Signal struct {
	Name          string
	Template      string
	ModelOverride string
}

// Result accumulates state changes and the deliverable text.
// Empty Mode or Hint means unchanged.
type Result struct {
	Mode      state.Mode
	Hint      string
	Text      string
	Delivered bool
}

// Deliverable reports whether the actions produced text to deliver verbatim.
func (r Result) Deliverable() bool {
	return r.Delivered && r.Text != ""
}

// Runner executes argv with stdin and returns stdout.
type Runner interface {
	Run(ctx context.Context, argv []string, stdin string) (string, error)
}

// Speaker voices text.
type Speaker interface {
	Speak(ctx context.Context, text string, lang string) error
}

// Notifier shows transient status text.
type Notifier interface {
	ShowMessage(ctx context.Context, text string)
}

// Executor runs decoded actions. Nil collaborators make their actions no-ops.
type Executor struct {
	LLM      llm.Client
	NER      ner.Extractor
	Shell    Runner
	Speaker  Speaker
	Notifier Notifier
	Logger   *slog.Logger
	Metrics  *metrics.Pipeline
}

// Execute runs actions in order. A failing action is logged and skipped;
// it never clears a deliverable produced by an earlier action.
func (e *Executor) Execute(ctx context.Context, actions []Action, actx Context, sig Signal) Result {
	var res Result
	for _, a := range actions {
		switch act := a.(type) {
		case SetMode:
			res.Mode = act.Mode
		case SetHint:
			res.Hint = act.Hint
		case CallLLM:
			text, err := e.callLLM(ctx, act, actx, sig)
			e.deliver(&res, a, sig, text, err)
		case RenderTemplate:
			text, err := renderSignal(sig, actx)
			e.deliver(&res, a, sig, text, err)
		case ExtractEntities:
			text, err := e.extract(ctx, act, actx, sig)
			e.deliver(&res, a, sig, text, err)
		case RunShell:
			text, err := e.runShell(ctx, act, actx)
			e.deliver(&res, a, sig, text, err)
		case Speak:
			if err := e.speak(ctx, act, actx); err != nil {
				e.logFailure(a, sig, err)
			}
		case Noop:
		}
	}
	return res
}

func (e *Executor) deliver(res *Result, a Action, sig Signal, text string, err error) {
	if err != nil {
		e.logFailure(a, sig, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	res.Text = text
	res.Delivered = true
}

func (e *Executor) callLLM(ctx context.Context, act CallLLM, actx Context, sig Signal) (string, error) {
	if e.LLM == nil {
		return "", errors.New("llm client not configured")
	}

	prompt := strings.TrimSpace(actx.Text)
	if sig.Template != "" {
		rendered, err := Render(sig.Template, actx)
		if err != nil {
			return "", err
		}
		prompt = rendered
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errNoPrompt
	}

	model := act.Model
	if model == "" {
		model = sig.ModelOverride
	}

	e.notify(ctx, StatusLLM)
	start := time.Now()
	text, err := e.LLM.Transform(ctx, prompt, model)
	e.Metrics.StageDuration(ctx, metrics.StageLLM, start)
	if err != nil {
		e.Metrics.StageFailed(ctx, metrics.StageLLM)
		return "", err
	}
	return text, nil
}

func renderSignal(sig Signal, actx Context) (string, error) {
	if sig.Template == "" {
		return "", errors.New("process_template requires a template on the signal")
	}
	return Render(sig.Template, actx)
}

func (e *Executor) extract(ctx context.Context, act ExtractEntities, actx Context, sig Signal) (string, error) {
	if e.NER == nil {
		return "", ner.ErrNotConfigured
	}

	types := act.Types
	if act.FromSpeech {
		types = strings.TrimRight(strings.TrimSpace(actx.Text), ".,!?;:")
		if types == "" {
			return "", errors.New("no entity types spoken after the trigger")
		}
	}

	input := actx.Clipboard
	if sig.Template != "" {
		rendered, err := Render(sig.Template, actx)
		if err != nil {
			return "", err
		}
		input = rendered
	}
	if strings.TrimSpace(input) == "" {
		return "", errors.New("no input text for entity extraction")
	}

	start := time.Now()
	entities, err := e.NER.Extract(ctx, input, types, act.Threshold)
	e.Metrics.StageDuration(ctx, metrics.StageNER, start)
	if err != nil {
		e.Metrics.StageFailed(ctx, metrics.StageNER)
		e.log().Warn("entity extraction degraded to empty result",
			slog.String("signal", sig.Name),
			slog.String("error", err.Error()),
		)
		entities = nil
	}
	return ner.Format(ner.Group(entities)), nil
}

func (e *Executor) runShell(ctx context.Context, act RunShell, actx Context) (string, error) {
	if e.Shell == nil {
		return "", errors.New("shell runner not configured")
	}

	argv := make([]string, 0, len(act.Argv))
	for _, arg := range act.Argv {
		rendered, err := Render(arg, actx)
		if err != nil {
			return "", err
		}
		argv = append(argv, rendered)
	}

	start := time.Now()
	out, err := e.Shell.Run(ctx, argv, actx.Text)
	e.Metrics.StageDuration(ctx, metrics.StageShell, start)
	if err != nil {
		e.Metrics.StageFailed(ctx, metrics.StageShell)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (e *Executor) speak(ctx context.Context, act Speak, actx Context) error {
	if e.Speaker == nil {
		return errors.New("speech command not configured")
	}
	text := strings.TrimSpace(actx.Text)
	if text == "" {
		return errors.New("nothing to speak")
	}
	return e.Speaker.Speak(ctx, text, act.Lang)
}

func (e *Executor) notify(ctx context.Context, text string) {
	if e.Notifier != nil {
		e.Notifier.ShowMessage(ctx, text)
	}
}

func (e *Executor) logFailure(a Action, sig Signal, err error) {
	attrs := []any{
		slog.String("action", a.Kind()),
		slog.String("error", err.Error()),
	}
	if sig.Name != "" {
		attrs = append(attrs, slog.String("signal", sig.Name))
	}
	e.log().Warn("action skipped", attrs...)
}

func (e *Executor) log() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}
