// Package processor turns one recorded utterance into deliverable text.
//
// Each call runs transcription, cleaning, signal matching, action execution
// and mode resolution in sequence. Mode and hint come in as a value and go out
// in the Result; the processor holds no per-utterance state.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/hark/internal/action"
	"github.com/rbright/hark/internal/llm"
	"github.com/rbright/hark/internal/metrics"
	"github.com/rbright/hark/internal/signal"
	"github.com/rbright/hark/internal/state"
	"github.com/rbright/hark/internal/transcript"
	"github.com/rbright/hark/internal/translog"
)

// StatusTranslate is shown before a templated mode calls the LLM.
const StatusTranslate = "Translating..."

// Transcriber returns the transcript of pcm, or "" on any failure.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, hint string) string
}

// Signals supplies the active signal table.
type Signals interface {
	Load() *signal.Table
}

// Clipboard reads the current clipboard content.
type Clipboard interface {
	Get(ctx context.Context) (string, error)
}

// Log receives one entry per transcribed utterance. It must not block.
type Log interface {
	Log(e translog.Entry)
}

// Utterance is one segment handed over by the recorder.
type Utterance struct {
	ID  string
	PCM []byte
}

// Result is the outcome of one utterance.
// Text may hold an error message when Delivered is false.
type Result struct {
	Text      string
	Delivered bool
	State     state.State
	Signal    string
}

// Options wires the processor's collaborators. Only Transcriber is required.
type Options struct {
	Transcriber Transcriber
	Signals     Signals
	Executor    *action.Executor
	LLM         llm.Client
	Cleaner     *transcript.Cleaner
	Clipboard   Clipboard
	Notifier    action.Notifier
	Log         Log
	Logger      *slog.Logger
	Metrics     *metrics.Pipeline
}

// Processor is safe for concurrent use but callers process utterances one at a time
// so that each sees the state produced by the previous one.
type Processor struct {
	transcriber Transcriber
	signals     Signals
	executor    *action.Executor
	llm         llm.Client
	cleaner     *transcript.Cleaner
	clipboard   Clipboard
	notifier    action.Notifier
	log         Log
	logger      *slog.Logger
	metrics     *metrics.Pipeline
}

// New builds a Processor, filling unset collaborators with defaults.
func New(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	executor := opts.Executor
	if executor == nil {
		executor = &action.Executor{LLM: opts.LLM, Notifier: opts.Notifier, Logger: logger, Metrics: opts.Metrics}
	}
	signals := opts.Signals
	if signals == nil {
		signals = signal.NewStore(nil)
	}
	return &Processor{
		transcriber: opts.Transcriber,
		signals:     signals,
		executor:    executor,
		llm:         opts.LLM,
		cleaner:     opts.Cleaner,
		clipboard:   opts.Clipboard,
		notifier:    opts.Notifier,
		log:         opts.Log,
		logger:      logger,
		metrics:     opts.Metrics,
	}
}

// Process runs the pipeline for u starting from st.
func (p *Processor) Process(ctx context.Context, u Utterance, st state.State) Result {
	start := time.Now()
	logger := p.logger.With(slog.String("utterance_id", u.ID))

	res, cleaned := p.process(ctx, logger, u, st)

	outcome := "undelivered"
	switch {
	case res.Delivered:
		outcome = "delivered"
	case cleaned == "":
		outcome = "empty"
	}
	p.metrics.Utterance(ctx, outcome)
	p.metrics.StageDuration(ctx, metrics.StageUtterance, start)

	if cleaned != "" && p.log != nil {
		p.log.Log(translog.Entry{
			ID:        u.ID,
			Time:      start,
			Text:      cleaned,
			Signal:    res.Signal,
			Mode:      string(res.State.Mode),
			Hint:      res.State.Hint,
			Delivered: res.Delivered,
		})
	}

	logger.Info("utterance processed",
		slog.String("outcome", outcome),
		slog.String("signal", res.Signal),
		slog.String("mode", string(res.State.Mode)),
		slog.String("hint", res.State.Hint),
		slog.Int("chars", len(res.Text)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return res
}

func (p *Processor) process(ctx context.Context, logger *slog.Logger, u Utterance, st state.State) (Result, string) {
	undelivered := Result{State: st}

	raw := p.transcriber.Transcribe(ctx, u.PCM, st.Hint)
	if strings.TrimSpace(raw) == "" {
		logger.Debug("empty transcript")
		return undelivered, ""
	}
	cleaned := p.cleaner.Clean(raw)
	if cleaned == "" {
		logger.Debug("transcript empty after cleaning", slog.String("raw", raw))
		return undelivered, ""
	}

	table := p.signals.Load()
	match, ok := table.Match(cleaned)
	if !ok {
		text, delivered := p.resolveMode(ctx, logger, table, st.Mode, cleaned)
		return Result{Text: text, Delivered: delivered, State: st}, cleaned
	}

	cfg := match.Config
	logger.Info("signal matched", slog.String("signal", cfg.Name), slog.String("trigger", match.Trigger))
	p.metrics.SignalMatched(ctx, cfg.Name)
	if cfg.OverlayMessage != "" {
		p.notify(ctx, cfg.OverlayMessage)
	}

	actx := action.Context{Text: match.Remaining, Clipboard: p.clipboardSnapshot(ctx, logger)}
	acted := p.executor.Execute(ctx, cfg.Actions, actx, cfg.ActionSignal())

	next := st
	if acted.Mode != "" {
		next.Mode = acted.Mode
	} else if implied, ok := state.ModeForSignal(cfg.Name); ok && cfg.Template != "" {
		// Only templated mode:<m> entries switch implicitly.
		next.Mode = implied
	}
	if acted.Hint != "" {
		next.Hint = acted.Hint
	}
	out := Result{State: next, Signal: cfg.Name}

	if acted.Deliverable() {
		out.Text = acted.Text
		out.Delivered = true
		return out, cleaned
	}

	remaining := match.Remaining
	if next.Hint != st.Hint {
		var ok bool
		remaining, ok = p.rehint(ctx, logger, u, next.Hint, table)
		if !ok {
			return out, cleaned
		}
	}

	out.Text, out.Delivered = p.resolveMode(ctx, logger, table, next.Mode, remaining)
	return out, cleaned
}

// rehint transcribes the same audio once more with hint and strips any signal
// trigger from the new transcript. Actions are not executed again.
func (p *Processor) rehint(ctx context.Context, logger *slog.Logger, u Utterance, hint string, table *signal.Table) (string, bool) {
	start := time.Now()
	raw := p.transcriber.Transcribe(ctx, u.PCM, hint)
	p.metrics.StageDuration(ctx, metrics.StageRetranscribe, start)

	cleaned := p.cleaner.Clean(raw)
	if cleaned == "" {
		logger.Info("re-transcription empty", slog.String("hint", hint))
		return "", false
	}
	if m, ok := table.Match(cleaned); ok {
		return m.Remaining, true
	}
	return cleaned, true
}

// resolveMode produces the final text for mode. Errors come back as
// human-readable text with delivered=false.
func (p *Processor) resolveMode(ctx context.Context, logger *slog.Logger, table *signal.Table, mode state.Mode, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	switch mode {
	case state.ModeNormal, "":
		return text, true
	case state.ModeLLM:
		p.notify(ctx, action.StatusLLM)
		return p.transform(ctx, logger, text, "")
	}

	cfg, ok := table.Lookup(mode.SignalName())
	if !ok || strings.TrimSpace(cfg.Template) == "" {
		if ok || mode == state.ModeSwissGerman {
			logger.Error("templated mode has no signal config or template", slog.String("mode", string(mode)))
			return fmt.Sprintf("Error: Config for mode '%s' missing.", mode), false
		}
		logger.Warn("unknown processing mode", slog.String("mode", string(mode)))
		return fmt.Sprintf("Error: Unknown mode '%s'", mode), false
	}

	prompt, err := action.Render(cfg.Template, action.Context{Text: text})
	if err != nil {
		logger.Error("mode template failed", slog.String("mode", string(mode)), slog.String("error", err.Error()))
		return fmt.Sprintf("Error: Config for mode '%s' missing.", mode), false
	}
	p.notify(ctx, StatusTranslate)
	return p.transform(ctx, logger, prompt, cfg.ModelOverride)
}

func (p *Processor) transform(ctx context.Context, logger *slog.Logger, prompt string, model string) (string, bool) {
	if p.llm == nil {
		logger.Warn("llm not configured")
		return "", false
	}
	start := time.Now()
	out, err := p.llm.Transform(ctx, prompt, model)
	p.metrics.StageDuration(ctx, metrics.StageLLM, start)
	if err != nil || strings.TrimSpace(out) == "" {
		p.metrics.StageFailed(ctx, metrics.StageLLM)
		attrs := []any{slog.String("model", model)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		logger.Warn("llm transform failed", attrs...)
		return "", false
	}
	return out, true
}

func (p *Processor) clipboardSnapshot(ctx context.Context, logger *slog.Logger) string {
	if p.clipboard == nil {
		return ""
	}
	text, err := p.clipboard.Get(ctx)
	if err != nil {
		logger.Debug("clipboard read failed", slog.String("error", err.Error()))
		return ""
	}
	return text
}

func (p *Processor) notify(ctx context.Context, text string) {
	if p.notifier != nil {
		p.notifier.ShowMessage(ctx, text)
	}
}
