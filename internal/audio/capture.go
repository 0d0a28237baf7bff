package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Capture format: 16 kHz mono signed 16-bit little endian.
const (
	SampleRate     = 16000
	BytesPerSample = 2
)

// FrameBytes returns the chunk size for frameMS of audio.
func FrameBytes(frameMS int) int {
	if frameMS <= 0 {
		frameMS = 20
	}
	return SampleRate * BytesPerSample * frameMS / 1000
}

// Capture streams fixed-size PCM frames from one Pulse source.
type Capture struct {
	device    Device
	frameSize int

	client *pulse.Client
	stream *pulse.RecordStream

	frames chan []byte
	stopCh chan struct{}

	mu      sync.Mutex
	pending []byte
	stopped bool

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// StartCapture opens a record stream on selected and starts it. The
// stream stops when ctx ends or Stop is called.
func StartCapture(ctx context.Context, selected Device, frameMS int) (*Capture, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	c := newCapture(selected, FrameBytes(frameMS))
	c.client = client

	writer := pulse.NewWriter(writerFunc(c.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(uint32(c.frameSize)),
		pulse.RecordMediaName("hark voice commands"),
	)
	if err != nil {
		_ = c.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	c.stream = stream
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.stopCh:
		}
	}()

	return c, nil
}

func newCapture(device Device, frameSize int) *Capture {
	return &Capture{
		device:    device,
		frameSize: frameSize,
		frames:    make(chan []byte, 128),
		stopCh:    make(chan struct{}),
	}
}

// Device returns the source being captured.
func (c *Capture) Device() Device { return c.device }

// Frames returns the PCM stream. It is closed after Stop.
func (c *Capture) Frames() <-chan []byte { return c.frames }

// BytesCaptured reports total bytes received from Pulse.
func (c *Capture) BytesCaptured() int64 { return c.bytes.Load() }

// Stop halts the stream, emits any partial frame, and closes Frames once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	c.inflight.Wait()

	c.mu.Lock()
	tail := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(tail) > 0 {
		select {
		case c.frames <- tail:
		default:
		}
	}
	close(c.frames)
	return nil
}

func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Add under mu so Stop's Wait cannot race it.
	c.inflight.Add(1)
	defer c.inflight.Done()

	c.pending = append(c.pending, buffer...)
	var ready [][]byte
	for len(c.pending) >= c.frameSize {
		frame := make([]byte, c.frameSize)
		copy(frame, c.pending)
		c.pending = c.pending[c.frameSize:]
		ready = append(ready, frame)
	}
	c.mu.Unlock()

	c.bytes.Add(int64(len(buffer)))

	for _, frame := range ready {
		select {
		case <-c.stopCh:
			return 0, io.EOF
		case c.frames <- frame:
		}
	}
	return len(buffer), nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }
