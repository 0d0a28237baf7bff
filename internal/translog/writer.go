package translog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const defaultQueueSize = 64

// Writer fans entries out to sinks on a background goroutine.
// Log never blocks; when the queue is full the entry is dropped.
type Writer struct {
	sinks []Sink
	log   *slog.Logger
	queue chan Entry

	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewWriter starts the background loop. Nil sinks are ignored.
func NewWriter(log *slog.Logger, queueSize int, sinks ...Sink) *Writer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	active := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}

	w := &Writer{
		sinks: active,
		log:   log,
		queue: make(chan Entry, queueSize),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w
}

// Log queues e for every sink.
func (w *Writer) Log(e Entry) {
	if w == nil || len(w.sinks) == 0 {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		return
	}
	select {
	case w.queue <- e:
	default:
		w.dropped.Add(1)
		w.log.Warn("transcription log queue full; entry dropped", slog.String("utterance_id", e.ID))
	}
}

// Dropped returns how many entries were discarded.
func (w *Writer) Dropped() int64 {
	if w == nil {
		return 0
	}
	return w.dropped.Load()
}

// Close flushes queued entries or gives up when ctx ends.
func (w *Writer) Close(ctx context.Context) {
	if w == nil {
		return
	}
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-ctx.Done():
		w.log.Warn("transcription log flush timed out", slog.Int("pending", len(w.queue)))
	}
}

func (w *Writer) loop() {
	defer close(w.done)
	for e := range w.queue {
		for _, sink := range w.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := sink.Append(ctx, e); err != nil {
				w.log.Warn("transcription log write failed",
					slog.String("utterance_id", e.ID),
					slog.String("error", err.Error()),
				)
			}
			cancel()
		}
	}
}
