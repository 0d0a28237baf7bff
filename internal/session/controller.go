// Package session runs the daemon: recording lifecycle, a sequential
// utterance worker, and the mode/hint state carried between utterances.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/processor"
	"github.com/rbright/hark/internal/segment"
	"github.com/rbright/hark/internal/state"
)

// Options wires the controller's collaborators.
type Options struct {
	Logger      *slog.Logger
	NewRecorder func() Recorder
	Processor   Processor
	Deliverer   Deliverer
	Indicator   Indicator
	Initial     state.State
	Reset       state.ResetPolicy
	// Reload swaps the signal table and returns a summary line.
	Reload    func() (string, error)
	QueueSize int
}

type job struct {
	id  string
	seg segment.Segment
	// last marks the final flush of a recording.
	last bool
}

// Controller owns the daemon's lifecycle state. Utterances are processed
// one at a time in arrival order.
type Controller struct {
	logger      *slog.Logger
	newRecorder func() Recorder
	processor   Processor
	deliverer   Deliverer
	indicator   Indicator
	reset       state.ResetPolicy
	reload      func() (string, error)

	queue chan job

	mu        sync.Mutex
	phase     fsm.State
	current   state.State
	recorder  Recorder
	forwarded chan struct{}
	// starting is set between the start transition and the recorder going
	// live. gen tells a late Start whether its recording is still wanted.
	starting bool
	gen      uint64
	pending   int
	device    string
}

// New builds a controller. Run must be started before recordings are accepted.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ind := opts.Indicator
	if ind == nil {
		ind = noopIndicator{}
	}
	deliverer := opts.Deliverer
	if deliverer == nil {
		deliverer = DeliverFunc(func(context.Context, string) error { return nil })
	}
	size := opts.QueueSize
	if size <= 0 {
		size = 32
	}
	return &Controller{
		logger:      logger,
		newRecorder: opts.NewRecorder,
		processor:   opts.Processor,
		deliverer:   deliverer,
		indicator:   ind,
		reset:       opts.Reset,
		reload:      opts.Reload,
		queue:       make(chan job, size),
		phase:       fsm.StateIdle,
		current:     opts.Initial,
	}
}

// Phase returns the lifecycle state.
func (c *Controller) Phase() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns the mode and hint the next utterance starts from.
func (c *Controller) State() state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Run processes queued utterances until ctx ends. An active recording is
// cancelled on exit.
func (c *Controller) Run(ctx context.Context) error {
	var outcome recordingOutcome
	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			recorder := c.recorder
			c.recorder, c.starting = nil, false
			c.mu.Unlock()
			if recorder != nil {
				recorder.Cancel()
			}
			return nil
		case j := <-c.queue:
			outcome = c.handleJob(ctx, j, outcome)
		}
	}
}

// recordingOutcome accumulates per-recording facts across jobs.
type recordingOutcome struct {
	spoke     bool
	delivered bool
}

func (c *Controller) handleJob(ctx context.Context, j job, outcome recordingOutcome) recordingOutcome {
	var res processor.Result
	processed := false
	if !j.seg.Empty() {
		st := c.State()
		res = c.processor.Process(ctx, processor.Utterance{ID: j.id, PCM: j.seg.PCM}, st)
		processed = true

		next := c.reset.Apply(res.State)
		c.mu.Lock()
		c.current = next
		c.mu.Unlock()
		if res.Text != "" || res.Signal != "" {
			outcome.spoke = true
		}
	}

	c.mu.Lock()
	c.pending--
	c.mu.Unlock()

	if j.last {
		c.indicator.Hide(ctx)
	}
	if processed {
		if c.report(ctx, j.id, res) {
			outcome.delivered = true
		}
	}
	if !j.last {
		return outcome
	}

	if !outcome.spoke && !outcome.delivered {
		c.indicator.ShowError(ctx, "No speech detected")
		c.logger.Info("recording finished", slog.String("error", ErrEmptyTranscript.Error()))
	} else {
		c.logger.Info("recording finished", slog.Bool("delivered", outcome.delivered))
	}
	if err := c.transition(fsm.EventDrained); err != nil {
		c.logger.Error("finish recording", slog.String("error", err.Error()))
		c.toErrorAndReset()
	}
	return recordingOutcome{}
}

// report delivers a result or surfaces its error text. It reports whether
// text reached the clipboard.
func (c *Controller) report(ctx context.Context, id string, res processor.Result) bool {
	if !res.Delivered {
		if strings.HasPrefix(res.Text, "Error:") {
			c.indicator.ShowError(ctx, res.Text)
		}
		return false
	}

	start := time.Now()
	if err := c.deliverer.Deliver(ctx, res.Text); err != nil {
		c.logger.Error("delivery failed",
			slog.String("utterance_id", id),
			slog.String("error", err.Error()),
		)
		c.indicator.ShowError(ctx, "Output dispatch failed")
		return false
	}
	c.logger.Debug("delivered",
		slog.String("utterance_id", id),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	c.indicator.CueComplete(ctx)
	c.indicator.ShowMessage(ctx, "Pasted: "+preview(res.Text, 50))
	return true
}

// Handle serves one control request.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var err error
	var msg string
	switch req.Command {
	case ipc.CommandStatus:
		msg = "status"
	case ipc.CommandToggle:
		if c.Phase() == fsm.StateRecording {
			msg, err = c.stop(ctx)
		} else {
			msg, err = c.start(ctx)
		}
	case ipc.CommandStop:
		msg, err = c.stop(ctx)
	case ipc.CommandCancel:
		msg, err = c.cancel(ctx)
	case ipc.CommandReload:
		msg, err = c.doReload()
	default:
		err = fmt.Errorf("unknown command: %s", req.Command)
	}

	resp := c.status()
	resp.OK = err == nil
	resp.Message = msg
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func (c *Controller) status() ipc.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ipc.Response{
		State:   string(c.phase),
		Mode:    string(c.current.Mode),
		Hint:    c.current.Hint,
		Pending: c.pending,
		Device:  c.device,
	}
}

func (c *Controller) start(ctx context.Context) (string, error) {
	if c.newRecorder == nil || c.processor == nil {
		return "", errors.New("audio pipeline is not configured")
	}

	c.mu.Lock()
	if c.phase == fsm.StateProcessing {
		c.mu.Unlock()
		return "", ErrBusy
	}
	next, err := fsm.Transition(c.phase, fsm.EventStart)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.phase = next
	c.starting = true
	c.gen++
	gen := c.gen
	current := c.current
	c.mu.Unlock()

	recorder := c.newRecorder()
	startErr := recorder.Start(ctx)

	c.mu.Lock()
	live := c.starting && c.gen == gen
	if !live {
		c.mu.Unlock()
		if startErr != nil {
			return "", fmt.Errorf("start recording: %w", startErr)
		}
		recorder.Cancel()
		c.logger.Info("recording abandoned during start")
		return "", ErrStartAborted
	}
	c.starting = false
	if startErr != nil {
		c.mu.Unlock()
		c.indicator.ShowError(ctx, "Unable to start recording")
		c.toErrorAndReset()
		return "", fmt.Errorf("start recording: %w", startErr)
	}
	forwarded := make(chan struct{})
	c.recorder = recorder
	c.forwarded = forwarded
	c.device = recorder.Device()
	c.mu.Unlock()

	c.indicator.ShowRecording(ctx, current)
	go c.forward(recorder.Segments(), forwarded)

	c.logger.Info("recording started",
		slog.String("device", recorder.Device()),
		slog.String("mode", string(current.Mode)),
		slog.String("hint", current.Hint),
	)
	return "recording started", nil
}

// forward queues hands-free segments while recording.
func (c *Controller) forward(segments <-chan segment.Segment, done chan<- struct{}) {
	defer close(done)
	for seg := range segments {
		c.enqueue(job{id: uuid.NewString(), seg: seg})
	}
}

func (c *Controller) enqueue(j job) {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	c.queue <- j
}

func (c *Controller) stop(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		return "", ErrStarting
	}
	next, err := fsm.Transition(c.phase, fsm.EventStop)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.phase = next
	recorder, forwarded := c.recorder, c.forwarded
	c.recorder, c.forwarded = nil, nil
	c.mu.Unlock()

	c.indicator.CueStop(ctx)
	c.indicator.ShowProcessing(ctx)

	go func() {
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		last, err := recorder.StopAndFlush(flushCtx)
		if err != nil {
			c.logger.Error("flush recording", slog.String("error", err.Error()))
		}
		<-forwarded
		c.enqueue(job{id: uuid.NewString(), seg: last, last: true})
	}()
	return "stop requested", nil
}

func (c *Controller) cancel(ctx context.Context) (string, error) {
	c.mu.Lock()
	next, err := fsm.Transition(c.phase, fsm.EventCancel)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.phase = next
	recorder := c.recorder
	c.recorder, c.forwarded = nil, nil
	// A start still in flight sees this and releases its own recorder.
	c.starting = false
	c.mu.Unlock()

	if recorder != nil {
		recorder.Cancel()
	}
	c.indicator.CueCancel(ctx)
	c.indicator.Hide(ctx)
	c.logger.Info("recording cancelled")
	return "cancelled", nil
}

func (c *Controller) doReload() (string, error) {
	if c.reload == nil {
		return "", errors.New("reload is not configured")
	}
	return c.reload()
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fsm.Transition(c.phase, event)
	if err != nil {
		return err
	}
	c.phase = next
	return nil
}

func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

func preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "…"
}
