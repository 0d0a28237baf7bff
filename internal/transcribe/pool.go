// Package transcribe runs speech-to-text calls through a bounded worker pool.
package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/metrics"
)

// ErrClosed is returned when submitting to a closed pool.
var ErrClosed = errors.New("transcription pool closed")

// Engine is the speech-to-text backend contract.
type Engine interface {
	Transcribe(ctx context.Context, pcm []byte, hint string) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, pcm []byte, hint string) (string, error)

func (f EngineFunc) Transcribe(ctx context.Context, pcm []byte, hint string) (string, error) {
	return f(ctx, pcm, hint)
}

// Options controls pool sizing and per-call timeout.
type Options struct {
	MaxWorkers int
	Timeout    time.Duration
	Logger     *slog.Logger
	Metrics    *metrics.Pipeline
}

type task struct {
	ctx    context.Context
	pcm    []byte
	hint   string
	result chan string
}

// Future is the handle for one submitted transcription.
type Future struct {
	result <-chan string

	once sync.Once
	text string
}

// Wait blocks until the transcription finishes or ctx ends. Failures yield "".
func (f *Future) Wait(ctx context.Context) string {
	f.once.Do(func() {
		select {
		case text := <-f.result:
			f.text = text
		case <-ctx.Done():
		}
	})
	return f.text
}

// Pool is a fixed set of workers fed by an unbuffered task queue.
// Submitters block until a worker is free.
type Pool struct {
	engine  Engine
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Pipeline

	tasks chan task
	done  chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool starts MaxWorkers workers (default 12).
func NewPool(engine Engine, opts Options) *Pool {
	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = 12
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	p := &Pool{
		engine:  engine,
		timeout: timeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tasks:   make(chan task),
		done:    make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit hands one segment to a worker, blocking while all workers are busy.
func (p *Pool) Submit(ctx context.Context, pcm []byte, hint string) (*Future, error) {
	result := make(chan string, 1)
	if len(pcm) == 0 {
		result <- ""
		return &Future{result: result}, nil
	}

	select {
	case <-p.done:
		return nil, ErrClosed
	default:
	}

	t := task{ctx: ctx, pcm: pcm, hint: hint, result: result}
	select {
	case p.tasks <- t:
		return &Future{result: result}, nil
	case <-p.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Transcribe submits and waits. Any failure is reported as an empty transcript.
func (p *Pool) Transcribe(ctx context.Context, pcm []byte, hint string) string {
	future, err := p.Submit(ctx, pcm, hint)
	if err != nil {
		p.logWarn("transcription not submitted", err)
		return ""
	}
	return future.Wait(ctx)
}

// Close stops accepting work and waits for running calls to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case t := <-p.tasks:
			t.result <- p.run(t)
		}
	}
}

func (p *Pool) run(t task) string {
	ctx, cancel := context.WithTimeout(t.ctx, p.timeout)
	defer cancel()

	start := time.Now()
	p.metrics.Inflight(ctx, 1)
	defer p.metrics.Inflight(context.Background(), -1)

	text, err := p.engine.Transcribe(ctx, t.pcm, t.hint)
	p.metrics.StageDuration(context.Background(), metrics.StageTranscribe, start)
	if err != nil {
		p.metrics.StageFailed(context.Background(), metrics.StageTranscribe)
		p.logWarn("transcription failed", err,
			slog.Int("bytes", len(t.pcm)),
			slog.String("hint", t.hint),
		)
		return ""
	}
	return strings.TrimSpace(text)
}

func (p *Pool) logWarn(msg string, err error, attrs ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(msg, append([]any{slog.String("error", err.Error())}, attrs...)...)
}
