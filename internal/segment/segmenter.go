// Package segment groups captured PCM frames into utterance segments using energy-based silence detection.
package segment

import (
	"encoding/binary"
	"math"
	"time"
)

const bytesPerSample = 2 // s16le mono

// Segment is one utterance worth of PCM audio.
type Segment struct {
	PCM      []byte
	Duration time.Duration
	Voiced   time.Duration
	Forced   bool
}

// Empty reports whether the segment carries no audio.
func (s Segment) Empty() bool {
	return len(s.PCM) == 0
}

// Options tunes silence detection.
type Options struct {
	SampleRate       int
	SilenceThreshold float64
	MinSegmentLength time.Duration
	SilenceSpan      time.Duration
	PreRoll          time.Duration
}

// DefaultOptions mirrors the daemon config defaults.
func DefaultOptions() Options {
	return Options{
		SampleRate:       16000,
		SilenceThreshold: 0.01,
		MinSegmentLength: 500 * time.Millisecond,
		SilenceSpan:      400 * time.Millisecond,
		PreRoll:          300 * time.Millisecond,
	}
}

// Segmenter accumulates frames until the silence rule or an explicit flush closes a segment.
//
// A Segmenter is owned by a single goroutine; it performs no locking.
type Segmenter struct {
	opts Options

	buf      []byte
	voiced   time.Duration
	trailing time.Duration
}

// New builds a segmenter, filling zero option fields from DefaultOptions.
func New(opts Options) *Segmenter {
	def := DefaultOptions()
	if opts.SampleRate <= 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.SilenceThreshold <= 0 {
		opts.SilenceThreshold = def.SilenceThreshold
	}
	if opts.MinSegmentLength < 0 {
		opts.MinSegmentLength = 0
	}
	if opts.SilenceSpan <= 0 {
		opts.SilenceSpan = def.SilenceSpan
	}
	if opts.PreRoll < 0 {
		opts.PreRoll = 0
	}
	return &Segmenter{opts: opts}
}

// Feed appends one frame and returns a completed segment when the silence rule fires.
func (s *Segmenter) Feed(frame []byte) (Segment, bool) {
	if len(frame) == 0 {
		return Segment{}, false
	}

	dur := s.duration(len(frame))
	s.buf = append(s.buf, frame...)

	if RMS(frame) >= s.opts.SilenceThreshold {
		s.voiced += dur
		s.trailing = 0
	} else {
		s.trailing += dur
	}

	if s.voiced == 0 {
		s.trimPreRoll()
		return Segment{}, false
	}

	if s.trailing >= s.opts.SilenceSpan {
		if s.voiced >= s.opts.MinSegmentLength {
			return s.emit(false), true
		}
		// A blip too short to stand alone; fall back to the pre-roll window.
		s.voiced = 0
		s.trailing = 0
		s.trimPreRoll()
	}
	return Segment{}, false
}

// Flush closes whatever is buffered. It always returns a segment, possibly empty.
func (s *Segmenter) Flush() Segment {
	return s.emit(true)
}

// Reset discards buffered audio.
func (s *Segmenter) Reset() {
	s.buf = nil
	s.voiced = 0
	s.trailing = 0
}

// Buffered returns the duration of audio currently held.
func (s *Segmenter) Buffered() time.Duration {
	return s.duration(len(s.buf))
}

func (s *Segmenter) emit(forced bool) Segment {
	seg := Segment{
		PCM:      s.buf,
		Duration: s.duration(len(s.buf)),
		Voiced:   s.voiced,
		Forced:   forced,
	}
	s.buf = nil
	s.voiced = 0
	s.trailing = 0
	return seg
}

// trimPreRoll keeps only the most recent PreRoll of leading silence.
func (s *Segmenter) trimPreRoll() {
	limit := int(s.opts.PreRoll.Seconds()*float64(s.opts.SampleRate)) * bytesPerSample
	if len(s.buf) <= limit {
		return
	}
	drop := len(s.buf) - limit
	drop -= drop % bytesPerSample
	s.buf = append([]byte(nil), s.buf[drop:]...)
}

func (s *Segmenter) duration(n int) time.Duration {
	samples := n / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(s.opts.SampleRate)
}

// RMS returns the root-mean-square energy of s16le samples normalized to [0, 1].
func RMS(pcm []byte) float64 {
	n := len(pcm) / bytesPerSample
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
