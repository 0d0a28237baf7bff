package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rbright/hark/internal/processor"
	"github.com/rbright/hark/internal/segment"
	"github.com/rbright/hark/internal/state"
)

type fakeRecorder struct {
	startErr error
	// release, when set, holds Start until closed.
	release   chan struct{}
	entered   chan struct{}
	started   atomic.Bool
	final     segment.Segment
	segments  chan segment.Segment
	cancelled atomic.Bool
	flushed   atomic.Bool
}

func newFakeRecorder(final []byte, handsFree ...[]byte) *fakeRecorder {
	r := &fakeRecorder{
		final:    segment.Segment{PCM: final},
		segments: make(chan segment.Segment, len(handsFree)),
	}
	for _, pcm := range handsFree {
		r.segments <- segment.Segment{PCM: pcm}
	}
	return r
}

func (r *fakeRecorder) Start(context.Context) error {
	if r.release != nil {
		close(r.entered)
		<-r.release
	}
	if r.startErr == nil {
		r.started.Store(true)
	}
	return r.startErr
}

// slowStart makes Start block until the returned func is called.
func (r *fakeRecorder) slowStart() (entered <-chan struct{}, release func()) {
	r.release = make(chan struct{})
	r.entered = make(chan struct{})
	return r.entered, func() { close(r.release) }
}

func (r *fakeRecorder) Segments() <-chan segment.Segment { return r.segments }

func (r *fakeRecorder) StopAndFlush(context.Context) (segment.Segment, error) {
	r.flushed.Store(true)
	close(r.segments)
	return r.final, nil
}

func (r *fakeRecorder) Cancel() {
	if r.cancelled.CompareAndSwap(false, true) {
		close(r.segments)
	}
}

func (r *fakeRecorder) Device() string { return "fake-mic" }

type fakeProcessor struct {
	mu     sync.Mutex
	seen   []state.State
	pcms   []string
	result func(pcm string, st state.State) processor.Result
}

func (p *fakeProcessor) Process(_ context.Context, u processor.Utterance, st state.State) processor.Result {
	p.mu.Lock()
	p.seen = append(p.seen, st)
	p.pcms = append(p.pcms, string(u.PCM))
	p.mu.Unlock()
	if p.result != nil {
		return p.result(string(u.PCM), st)
	}
	return processor.Result{Text: string(u.PCM), Delivered: true, State: st}
}

func (p *fakeProcessor) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.pcms...)
}

func (p *fakeProcessor) states() []state.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]state.State(nil), p.seen...)
}

type fakeDeliverer struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (d *fakeDeliverer) Deliver(_ context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.texts = append(d.texts, text)
	return nil
}

func (d *fakeDeliverer) delivered() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...)
}

type fakeIndicator struct {
	mu       sync.Mutex
	messages []string
	errors   []string

	recording atomic.Int32
	stops     atomic.Int32
	completes atomic.Int32
	cancels   atomic.Int32
	hides     atomic.Int32
}

func (f *fakeIndicator) ShowRecording(context.Context, state.State) { f.recording.Add(1) }
func (f *fakeIndicator) ShowProcessing(context.Context)             {}
func (f *fakeIndicator) CueStop(context.Context)                    { f.stops.Add(1) }
func (f *fakeIndicator) CueComplete(context.Context)                { f.completes.Add(1) }
func (f *fakeIndicator) CueCancel(context.Context)                  { f.cancels.Add(1) }
func (f *fakeIndicator) Hide(context.Context)                       { f.hides.Add(1) }

func (f *fakeIndicator) ShowMessage(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
}

func (f *fakeIndicator) ShowError(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, text)
}

func (f *fakeIndicator) shownErrors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.errors...)
}

func (f *fakeIndicator) shownMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

var errDeliver = errors.New("wl-copy missing")
