package session

import (
	"context"
	"errors"

	"github.com/rbright/hark/internal/processor"
	"github.com/rbright/hark/internal/segment"
	"github.com/rbright/hark/internal/state"
)

var (
	// ErrEmptyTranscript means a recording finished without any usable speech.
	ErrEmptyTranscript = errors.New("no speech recognized; check microphone input or mute state")
	// ErrBusy means the previous recording is still being processed.
	ErrBusy = errors.New("still processing the previous recording")
	// ErrStarting means the microphone is still opening; retry once recording is live.
	ErrStarting = errors.New("recording is still starting")
	// ErrStartAborted means the recording was cancelled before capture came up.
	ErrStartAborted = errors.New("recording cancelled while starting")
)

// Recorder is one recording's capture and segmentation.
type Recorder interface {
	Start(ctx context.Context) error
	Segments() <-chan segment.Segment
	StopAndFlush(ctx context.Context) (segment.Segment, error)
	Cancel()
	Device() string
}

// Processor runs one utterance through the pipeline.
type Processor interface {
	Process(ctx context.Context, u processor.Utterance, st state.State) processor.Result
}

// Deliverer places final text into the focused application.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// DeliverFunc adapts a function to Deliverer.
type DeliverFunc func(ctx context.Context, text string) error

func (f DeliverFunc) Deliver(ctx context.Context, text string) error { return f(ctx, text) }

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(ctx context.Context, st state.State)
	ShowProcessing(ctx context.Context)
	ShowMessage(ctx context.Context, text string)
	ShowError(ctx context.Context, text string)
	CueStop(ctx context.Context)
	CueComplete(ctx context.Context)
	CueCancel(ctx context.Context)
	Hide(ctx context.Context)
}

type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context, state.State) {}
func (noopIndicator) ShowProcessing(context.Context)             {}
func (noopIndicator) ShowMessage(context.Context, string)        {}
func (noopIndicator) ShowError(context.Context, string)          {}
func (noopIndicator) CueStop(context.Context)                    {}
func (noopIndicator) CueComplete(context.Context)                {}
func (noopIndicator) CueCancel(context.Context)                  {}
func (noopIndicator) Hide(context.Context)                       {}
