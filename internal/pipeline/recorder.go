// Package pipeline turns a live capture stream into utterance segments.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/segment"
)

// ErrNotStarted is returned when stopping a recorder that never started.
var ErrNotStarted = errors.New("recorder not started")

// Source is a running PCM capture.
type Source interface {
	Frames() <-chan []byte
	Stop() error
}

// Opener starts a capture and reports which device it uses.
type Opener func(ctx context.Context) (Source, audio.Selection, error)

// PulseOpener selects the configured Pulse source and starts capturing from it.
func PulseOpener(cfg config.Config) Opener {
	return func(ctx context.Context) (Source, audio.Selection, error) {
		selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
		if err != nil {
			return nil, audio.Selection{}, err
		}
		capture, err := audio.StartCapture(ctx, selection.Device, cfg.Segmenter.FrameMS)
		if err != nil {
			return nil, audio.Selection{}, err
		}
		return capture, selection, nil
	}
}

// Recorder owns one recording: capture, segmentation, and debug dumps.
// It is single use.
type Recorder struct {
	cfg    config.Config
	logger *slog.Logger
	open   Opener

	mu       sync.Mutex
	started  bool
	source   Source
	device   audio.Device
	segments chan segment.Segment
	final    chan segment.Segment

	cancelled atomic.Bool
}

// NewRecorder builds a recorder. A nil opener uses PulseOpener.
func NewRecorder(cfg config.Config, open Opener, logger *slog.Logger) *Recorder {
	if open == nil {
		open = PulseOpener(cfg)
	}
	return &Recorder{cfg: cfg, open: open, logger: logger}
}

// Start opens the capture and begins segmenting.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("recorder already started")
	}

	source, selection, err := r.open(ctx)
	if err != nil {
		return err
	}
	if selection.Warning != "" && r.logger != nil {
		r.logger.Warn(selection.Warning)
	}

	r.source = source
	r.device = selection.Device
	r.segments = make(chan segment.Segment, 16)
	r.final = make(chan segment.Segment, 1)
	r.started = true

	go r.loop(source, segment.New(segmenterOptions(r.cfg.Segmenter)), r.cfg.Segmenter.HandsFree)
	return nil
}

// Segments delivers hands-free utterances while recording. It is closed
// once the capture ends.
func (r *Recorder) Segments() <-chan segment.Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.segments
}

// Device describes the capture source for status output.
func (r *Recorder) Device() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return describeDevice(r.device)
}

// StopAndFlush stops capture and returns whatever audio was still
// buffered. The returned segment may be empty.
func (r *Recorder) StopAndFlush(ctx context.Context) (segment.Segment, error) {
	r.mu.Lock()
	started, source, final := r.started, r.source, r.final
	r.mu.Unlock()
	if !started {
		return segment.Segment{}, ErrNotStarted
	}

	_ = source.Stop()
	select {
	case seg := <-final:
		r.dump(seg)
		return seg, nil
	case <-ctx.Done():
		return segment.Segment{}, ctx.Err()
	}
}

// Cancel stops capture and discards buffered audio.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	source := r.source
	r.mu.Unlock()

	r.cancelled.Store(true)
	if source != nil {
		_ = source.Stop()
	}
}

func (r *Recorder) loop(source Source, seg *segment.Segmenter, handsFree bool) {
	defer close(r.segments)

	// Without hands-free, silence splits are held and joined into the final flush.
	var held []byte
	for frame := range source.Frames() {
		if r.cancelled.Load() {
			continue
		}
		out, ok := seg.Feed(frame)
		if !ok {
			continue
		}
		if !handsFree {
			held = append(held, out.PCM...)
			continue
		}
		r.dump(out)
		r.segments <- out
	}

	if r.cancelled.Load() {
		r.final <- segment.Segment{}
		return
	}

	last := seg.Flush()
	if len(held) > 0 {
		last.PCM = append(held, last.PCM...)
		last.Duration = time.Duration(len(last.PCM)/audio.BytesPerSample) * time.Second / audio.SampleRate
	}
	r.final <- last
}

func segmenterOptions(cfg config.SegmenterConfig) segment.Options {
	return segment.Options{
		SampleRate:       audio.SampleRate,
		SilenceThreshold: cfg.SilenceThreshold,
		MinSegmentLength: time.Duration(cfg.MinSegmentLengthMS) * time.Millisecond,
		SilenceSpan:      time.Duration(cfg.SilenceSpanMS) * time.Millisecond,
		PreRoll:          time.Duration(cfg.PreRollMS) * time.Millisecond,
	}
}

func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	switch {
	case description == "":
		return id
	case id == "":
		return description
	default:
		return fmt.Sprintf("%s (%s)", description, id)
	}
}
