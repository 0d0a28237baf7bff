package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jfreymuth/pulse"
	"github.com/rbright/hark/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const (
	cueSampleRate = 16000
	cueVolume     = 0.18
	cueGap        = 22 * time.Millisecond
	cueRamp       = 5 * time.Millisecond
)

// tone is one sine burst of a cue, in Hz and milliseconds.
type tone struct {
	hz float64
	ms int
}

type cue struct {
	tones []tone
	file  func(config.IndicatorConfig) string
	pcm   func() []int16
}

var cues = map[cueKind]*cue{
	cueStart: {
		tones: []tone{{880, 70}, {1175, 70}},
		file:  func(c config.IndicatorConfig) string { return c.SoundStartFile },
	},
	cueStop: {
		tones: []tone{{620, 120}},
		file:  func(c config.IndicatorConfig) string { return c.SoundStopFile },
	},
	cueComplete: {
		tones: []tone{{740, 65}, {988, 90}},
		file:  func(c config.IndicatorConfig) string { return c.SoundCompleteFile },
	},
	cueCancel: {
		tones: []tone{{480, 75}, {360, 90}},
		file:  func(c config.IndicatorConfig) string { return c.SoundCancelFile },
	},
}

func init() {
	for _, c := range cues {
		c.pcm = sync.OnceValue(func() []int16 { return renderTones(c.tones) })
	}
}

// emitCue plays the configured WAV file for kind, falling back to the
// built-in tones when no file is set or it cannot be decoded.
func emitCue(ctx context.Context, kind cueKind, cfg config.IndicatorConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, ok := cues[kind]
	if !ok {
		return nil
	}

	if path := cuePath(kind, cfg); path != "" {
		if samples, rate, err := loadCueFile(path); err == nil {
			return playSamples(ctx, samples, rate)
		}
	}
	return playSamples(ctx, c.pcm(), cueSampleRate)
}

func cuePath(kind cueKind, cfg config.IndicatorConfig) string {
	c, ok := cues[kind]
	if !ok {
		return ""
	}
	raw := strings.TrimSpace(c.file(cfg))
	if rest, ok := strings.CutPrefix(raw, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return raw
}

// loadCueFile decodes a PCM WAV file into mono int16 samples.
func loadCueFile(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open cue file %q: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("cue file %q is not a valid wav file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode cue file %q: %w", path, err)
	}
	return monoInt16(buf, int(decoder.BitDepth)), int(decoder.SampleRate), nil
}

// monoInt16 keeps the first channel and rescales to 16-bit.
func monoInt16(buf *audio.IntBuffer, bitDepth int) []int16 {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil
	}
	channels := buf.Format.NumChannels
	out := make([]int16, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		v := buf.Data[i]
		switch {
		case bitDepth > 16:
			v >>= bitDepth - 16
		case bitDepth == 8:
			v = (v - 128) << 8
		}
		out = append(out, int16(v))
	}
	return out
}

func playSamples(ctx context.Context, samples []int16, rate int) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("hark"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(rate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("hark cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return ctx.Err()
}

func cueSamples(kind cueKind) []int16 {
	if c, ok := cues[kind]; ok {
		return c.pcm()
	}
	return nil
}

// renderTones concatenates the tones with a short silence between them.
func renderTones(tones []tone) []int16 {
	gap := make([]int16, sampleCount(cueGap))
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, sine(t.hz, time.Duration(t.ms)*time.Millisecond, cueVolume)...)
	}
	return pcm
}

// sine renders a tone with linear fade in and out to avoid clicks.
func sine(hz float64, d time.Duration, volume float64) []int16 {
	n := sampleCount(d)
	if n == 0 || hz <= 0 || volume <= 0 {
		return nil
	}
	ramp := max(1, min(n/10, sampleCount(cueRamp)))

	pcm := make([]int16, n)
	for i := range n {
		edge := min(i, n-1-i)
		env := min(1, float64(edge)/float64(ramp))
		v := math.Sin(2 * math.Pi * hz * float64(i) / cueSampleRate)
		pcm[i] = int16(math.Round(v * volume * env * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
