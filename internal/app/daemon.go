package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rbright/hark/internal/action"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/llm"
	"github.com/rbright/hark/internal/metrics"
	"github.com/rbright/hark/internal/ner"
	"github.com/rbright/hark/internal/output"
	"github.com/rbright/hark/internal/pipeline"
	"github.com/rbright/hark/internal/processor"
	"github.com/rbright/hark/internal/session"
	"github.com/rbright/hark/internal/signal"
	"github.com/rbright/hark/internal/state"
	"github.com/rbright/hark/internal/stt"
	"github.com/rbright/hark/internal/transcribe"
	"github.com/rbright/hark/internal/transcript"
	"github.com/rbright/hark/internal/translog"
)

// daemon holds everything `hark run` owns for its lifetime.
type daemon struct {
	logger      *slog.Logger
	cfg         config.Config
	signalsPath string

	signals    *signal.Store
	pool       *transcribe.Pool
	metrics    *metrics.Pipeline
	history    *translog.Writer
	store      *translog.Store
	publisher  *translog.Publisher
	controller *session.Controller
}

func (r Runner) commandRun(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	d, err := newDaemon(ctx, loaded, logger, r.Open)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon setup failed", "error", err.Error())
		return 1
	}
	defer d.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if listen := loaded.Config.Metrics.Listen; listen != "" && d.metrics != nil {
		go func() {
			if err := d.metrics.Serve(ctx, listen, logger); err != nil {
				logger.Error("metrics server failed", "error", err.Error())
			}
		}()
	}
	go d.reloadOnHangup(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- ipc.Serve(ctx, listener, d.controller)
	}()

	logger.Info("daemon ready", "socket", socketPath, "signals", d.signals.Load().Len())
	fmt.Fprintf(r.Stdout, "hark listening on %s\n", socketPath)

	_ = d.controller.Run(ctx)
	cancel()
	if err := <-serverErr; err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

func newDaemon(ctx context.Context, loaded config.Loaded, logger *slog.Logger, open pipeline.Opener) (*daemon, error) {
	cfg := loaded.Config
	d := &daemon{
		logger:      logger,
		cfg:         cfg,
		signalsPath: loaded.SignalsPath,
		signals:     signal.NewStore(nil),
	}

	pipelineMetrics, err := metrics.New("hark")
	if err != nil {
		logger.Warn("metrics disabled", "error", err.Error())
	}
	d.metrics = pipelineMetrics

	engine, err := stt.New(stt.Options{
		Kind:     cfg.STT.Engine,
		Command:  cfg.STT.Command,
		BaseURL:  cfg.STT.BaseURL,
		APIKey:   config.APIKey(cfg.STT.APIKeyEnv),
		Model:    cfg.STT.Model,
		Language: cfg.STT.Language,
	})
	if err != nil {
		d.close()
		return nil, fmt.Errorf("stt engine: %w", err)
	}
	d.pool = transcribe.NewPool(engine, transcribe.Options{
		MaxWorkers: cfg.STT.MaxWorkers,
		Timeout:    millis(cfg.STT.TimeoutMS),
		Logger:     logger,
		Metrics:    d.metrics,
	})

	cleaner, err := transcript.NewCleaner(cfg.Processing.FilterPhrases)
	if err != nil {
		d.close()
		return nil, err
	}

	if _, err := d.reload(); err != nil {
		logger.Warn("signal table not loaded", "path", d.signalsPath, "error", err.Error())
	}

	var llmClient llm.Client
	if client, err := llm.New(llm.Options{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      config.APIKey(cfg.LLM.APIKeyEnv),
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     millis(cfg.LLM.TimeoutMS),
	}); err != nil {
		logger.Warn("llm disabled", "error", err.Error())
	} else {
		llmClient = client
	}

	var extractor ner.Extractor
	if cfg.NER.URL != "" {
		extractor = ner.NewClient(cfg.NER.URL, millis(cfg.NER.TimeoutMS))
	}

	ind := indicator.New(cfg.Indicator, logger)
	executor := &action.Executor{
		LLM:      llmClient,
		NER:      extractor,
		Shell:    output.Shell{Timeout: millis(cfg.Shell.TimeoutMS)},
		Notifier: ind,
		Logger:   logger,
		Metrics:  d.metrics,
	}
	if len(cfg.TTS.Argv) > 0 {
		executor.Speaker = output.Speaker{Argv: cfg.TTS.Argv, Timeout: millis(cfg.Shell.TimeoutMS)}
	}

	procOpts := processor.Options{
		Transcriber: d.pool,
		Signals:     d.signals,
		Executor:    executor,
		LLM:         llmClient,
		Cleaner:     cleaner,
		Clipboard:   output.NewClipboard(cfg),
		Notifier:    ind,
		Logger:      logger,
		Metrics:     d.metrics,
	}
	if history := d.openHistory(ctx); history != nil {
		procOpts.Log = history
	}

	d.controller = session.New(session.Options{
		Logger: logger,
		NewRecorder: func() session.Recorder {
			return pipeline.NewRecorder(cfg, open, logger)
		},
		Processor: processor.New(procOpts),
		Deliverer: output.NewDeliverer(cfg, logger),
		Indicator: ind,
		Initial: state.State{
			Mode: state.Mode(cfg.Processing.DefaultMode),
			Hint: cfg.Processing.DefaultHint,
		},
		Reset:  resetPolicy(cfg.Processing),
		Reload: d.reload,
	})
	return d, nil
}

// openHistory starts the transcription log sinks. Sink failures disable
// that sink only.
func (d *daemon) openHistory(ctx context.Context) *translog.Writer {
	cfg := d.cfg.Translog
	if !cfg.Enable {
		return nil
	}

	var sinks []translog.Sink
	path, err := config.TranslogPath(d.cfg)
	if err == nil {
		d.store, err = translog.Open(ctx, path, d.logger)
	}
	if err != nil {
		d.logger.Warn("transcription store disabled", "error", err.Error())
	} else {
		sinks = append(sinks, d.store)
		if cfg.RetentionDays > 0 {
			retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
			if pruned, err := d.store.Prune(ctx, retention); err != nil {
				d.logger.Warn("prune transcription log", "error", err.Error())
			} else if pruned > 0 {
				d.logger.Info("pruned transcription log", "rows", pruned)
			}
		}
	}

	if cfg.NATSURL != "" {
		d.publisher, err = translog.Connect(cfg.NATSURL, cfg.NATSSubject, d.logger)
		if err != nil {
			d.logger.Warn("transcription publisher disabled", "error", err.Error())
		} else {
			sinks = append(sinks, d.publisher)
		}
	}

	if len(sinks) == 0 {
		return nil
	}
	d.history = translog.NewWriter(d.logger, cfg.QueueSize, sinks...)
	return d.history
}

// reload swaps in the signal table from disk.
func (d *daemon) reload() (string, error) {
	warnings, err := d.signals.Reload(d.signalsPath)
	for _, w := range warnings {
		d.logger.Warn("signal table warning", "path", d.signalsPath, "message", w.String())
	}
	if err != nil {
		return "", err
	}
	summary := fmt.Sprintf("loaded %d signals from %s", d.signals.Load().Len(), d.signalsPath)
	if len(warnings) > 0 {
		summary += fmt.Sprintf(" (%d warnings)", len(warnings))
	}
	d.logger.Info("signal table loaded", "path", d.signalsPath, "signals", d.signals.Load().Len())
	return summary, nil
}

func (d *daemon) reloadOnHangup(ctx context.Context) {
	hangup := make(chan os.Signal, 1)
	ossignal.Notify(hangup, syscall.SIGHUP)
	defer ossignal.Stop(hangup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			if _, err := d.reload(); err != nil {
				d.logger.Error("reload on SIGHUP failed", "error", err.Error())
			}
		}
	}
}

func (d *daemon) close() {
	shutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if d.history != nil {
		d.history.Close(shutdown)
		if dropped := d.history.Dropped(); dropped > 0 {
			d.logger.Warn("transcription log entries dropped", "count", dropped)
		}
	}
	if d.publisher != nil {
		d.publisher.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			d.logger.Warn("close transcription store", "error", err.Error())
		}
	}
	if d.pool != nil {
		d.pool.Close()
	}
	if err := d.metrics.Shutdown(shutdown); err != nil {
		d.logger.Warn("metrics shutdown", "error", err.Error())
	}
}

func resetPolicy(cfg config.ProcessingConfig) state.ResetPolicy {
	modes := make([]state.Mode, 0, len(cfg.ResetModes))
	for _, m := range cfg.ResetModes {
		modes = append(modes, state.Mode(m))
	}
	return state.ResetPolicy{
		DefaultMode: state.Mode(cfg.DefaultMode),
		DefaultHint: cfg.DefaultHint,
		Modes:       modes,
		Hints:       cfg.ResetHints,
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
